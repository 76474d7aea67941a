// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package zbc provides a uniform, device-agnostic API for issuing Zoned
// Block Command (ZBC) and Zoned ATA Command (ZAC) operations to zoned
// storage devices, dispatching across kernel-native, SCSI, ATA-passthrough
// and in-process fake backends.
package zbc

import "fmt"

// TransportKind identifies which backend accepted a device.
type TransportKind uint8

const (
	TransportUnknown TransportKind = iota
	TransportBlock
	TransportSCSI
	TransportATA
	TransportFake
)

func (t TransportKind) String() string {
	switch t {
	case TransportBlock:
		return "block"
	case TransportSCSI:
		return "scsi"
	case TransportATA:
		return "ata"
	case TransportFake:
		return "fake"
	default:
		return "unknown"
	}
}

// ZoneModel classifies how a device expects zone write ordering to be
// obeyed: not at all (standard), optionally (host-aware), mandatorily
// (host-managed), or internally without host involvement (device-managed).
type ZoneModel uint8

const (
	ZoneModelUnknown ZoneModel = iota
	ZoneModelHostAware
	ZoneModelHostManaged
	ZoneModelDeviceManaged
	ZoneModelStandard
)

// ZoneType classifies the write discipline of a zone.
type ZoneType uint8

const (
	ZoneTypeUnknown ZoneType = iota
	ZoneTypeConventional
	ZoneTypeSequentialRequired
	ZoneTypeSequentialPreferred
)

// ZoneCondition is the lifecycle state of a zone's write pointer.
type ZoneCondition uint8

const (
	ZoneConditionNotWP ZoneCondition = iota
	ZoneConditionEmpty
	ZoneConditionImplicitOpen
	ZoneConditionExplicitOpen
	ZoneConditionClosed
	_ // 0x5, 0x6 reserved by the ZBC standard
	_
	ZoneConditionReadOnly = 0xD
	ZoneConditionFull     = 0xE
	ZoneConditionOffline  = 0xF
)

// zoneLimitKind distinguishes a reported numeric limit from the two
// sentinel states the ZBC standard allows in its place.
type zoneLimitKind uint8

const (
	zoneLimitValue zoneLimitKind = iota
	zoneLimitUnlimited
	zoneLimitNotReported
)

// ZoneLimit is a tagged optional: a device-reported zone count, or one of
// the two sentinels the original C library encoded as magic integers
// (ZBC_NO_LIMIT, ZBC_NOT_REPORTED).
type ZoneLimit struct {
	n    uint32
	kind zoneLimitKind
}

// LimitValue builds a ZoneLimit carrying a concrete, device-reported count.
func LimitValue(n uint32) ZoneLimit { return ZoneLimit{n: n, kind: zoneLimitValue} }

// LimitUnlimited is the sentinel for "no limit enforced by the device".
var LimitUnlimited = ZoneLimit{kind: zoneLimitUnlimited}

// LimitNotReported is the sentinel for "the device did not report this".
var LimitNotReported = ZoneLimit{kind: zoneLimitNotReported}

// Value returns the reported count and true, or (0, false) if this limit
// is one of the sentinel states.
func (l ZoneLimit) Value() (uint32, bool) {
	if l.kind != zoneLimitValue {
		return 0, false
	}
	return l.n, true
}

// IsUnlimited reports whether the device declared no enforced limit.
func (l ZoneLimit) IsUnlimited() bool { return l.kind == zoneLimitUnlimited }

// IsNotReported reports whether the device did not report this value.
func (l ZoneLimit) IsNotReported() bool { return l.kind == zoneLimitNotReported }

func (l ZoneLimit) String() string {
	switch l.kind {
	case zoneLimitUnlimited:
		return "unlimited"
	case zoneLimitNotReported:
		return "not reported"
	default:
		return fmt.Sprintf("%d", l.n)
	}
}
