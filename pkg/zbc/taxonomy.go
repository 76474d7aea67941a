// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Name tables for device type, zone model, zone type, zone condition, and
// SCSI sense data, ported from zbc_device_type_str/zbc_device_model_str/
// zbc_zone_type_str/zbc_zone_condition_str/zbc_sk_str/zbc_asc_ascq_str in
// the original C library.

package zbc

import "fmt"

// LongName returns the descriptive device-type string used by
// zbc_device_type_str in the original C library (e.g. for zbcls -v output).
func (t TransportKind) LongName() string {
	switch t {
	case TransportBlock:
		return "Zoned block device"
	case TransportSCSI:
		return "SCSI ZBC device"
	case TransportATA:
		return "ATA ZAC device"
	case TransportFake:
		return "Emulated zoned block device"
	default:
		return "Unknown-device-type"
	}
}

func (t ZoneModel) String() string {
	switch t {
	case ZoneModelHostAware:
		return "Host-aware"
	case ZoneModelHostManaged:
		return "Host-managed"
	case ZoneModelDeviceManaged:
		return "Device-managed"
	case ZoneModelStandard:
		return "Standard block device"
	default:
		return "Unknown-device-model"
	}
}

func (t ZoneType) String() string {
	switch t {
	case ZoneTypeConventional:
		return "Conventional"
	case ZoneTypeSequentialRequired:
		return "Sequential-write-required"
	case ZoneTypeSequentialPreferred:
		return "Sequential-write-preferred"
	default:
		return "Unknown-zone-type"
	}
}

func (c ZoneCondition) String() string {
	switch c {
	case ZoneConditionNotWP:
		return "Not-write-pointer"
	case ZoneConditionEmpty:
		return "Empty"
	case ZoneConditionImplicitOpen:
		return "Implicit-open"
	case ZoneConditionExplicitOpen:
		return "Explicit-open"
	case ZoneConditionClosed:
		return "Closed"
	case ZoneConditionReadOnly:
		return "Read-only"
	case ZoneConditionFull:
		return "Full"
	case ZoneConditionOffline:
		return "Offline"
	default:
		return "Unknown-zone-condition"
	}
}

// SenseKey is a SCSI sense key, as reported in fixed- or descriptor-format
// sense data byte 2 (or 1, for descriptor format).
type SenseKey uint8

const (
	SenseKeyIllegalRequest SenseKey = 0x5
	SenseKeyDataProtect    SenseKey = 0x7
	SenseKeyAbortedCommand SenseKey = 0xB
)

func (sk SenseKey) String() string {
	switch sk {
	case SenseKeyIllegalRequest:
		return "Illegal-request"
	case SenseKeyDataProtect:
		return "Data-protect"
	case SenseKeyAbortedCommand:
		return "Aborted-command"
	default:
		return fmt.Sprintf("Unknown-sense-key 0x%02X", uint8(sk))
	}
}

// ASCASCQ is a combined SCSI additional-sense-code / additional-sense-code-
// qualifier pair, packed as (ASC << 8) | ASCQ.
type ASCASCQ uint16

const (
	ASCInvalidFieldInCDB              ASCASCQ = 0x2400
	ASCLogicalBlockAddressOutOfRange  ASCASCQ = 0x2100
	ASCUnalignedWriteCommand          ASCASCQ = 0x2104
	ASCWriteBoundaryViolation         ASCASCQ = 0x2105
	ASCAttemptToReadInvalidData       ASCASCQ = 0x2106
	ASCReadBoundaryViolation          ASCASCQ = 0x2107
	ASCZoneIsReadOnly                 ASCASCQ = 0x2708
	ASCInsufficientZoneResources      ASCASCQ = 0x550E
)

func (a ASCASCQ) String() string {
	switch a {
	case ASCInvalidFieldInCDB:
		return "Invalid-field-in-cdb"
	case ASCLogicalBlockAddressOutOfRange:
		return "Logical-block-address-out-of-range"
	case ASCUnalignedWriteCommand:
		return "Unaligned-write-command"
	case ASCWriteBoundaryViolation:
		return "Write-boundary-violation"
	case ASCAttemptToReadInvalidData:
		return "Attempt-to-read-invalid-data"
	case ASCReadBoundaryViolation:
		return "Read-boundary-violation"
	case ASCZoneIsReadOnly:
		return "Zone-is-read-only"
	case ASCInsufficientZoneResources:
		return "Insufficient-zone-resources"
	default:
		return fmt.Sprintf("Unknown-additional-sense-code-qualifier 0x%04X", uint16(a))
	}
}

// NewASCASCQ packs a raw ASC/ASCQ byte pair as reported in sense data.
func NewASCASCQ(asc, ascq uint8) ASCASCQ {
	return ASCASCQ(uint16(asc)<<8 | uint16(ascq))
}
