// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scsi probes a device via SCSI INQUIRY and MODE SENSE, the way
// pkg/drive's scsi_nix.go does for TCG security-protocol discovery, but
// checking for the zoned-block-device characteristics page instead of a
// TCG security-protocol list.
package scsi

import (
	"encoding/binary"
	"os"
	"strings"

	"github.com/Spetebroot/libzbc/pkg/zbc"
	"github.com/Spetebroot/libzbc/pkg/zbc/sgio"
)

func init() {
	zbc.RegisterBackend("scsi", zbc.DrvSCSI, open)
}

const (
	opInquiry       = 0x12
	opModeSense6    = 0x1a
	opReadCapacity16 = 0x9e
	saReadCapacity16 = 0x10

	pageZonedBlockDeviceCharacteristics = 0x0a
	subpageZBDC                         = 0x05

	peripheralDeviceTypeDirectAccess = 0x00
	peripheralDeviceTypeZBC          = 0x14
)

// Backend probes a device over SCSI. Full ZBC zone-management support
// (REPORT/RESET WRITE POINTER/... ZONE) is explicitly out of scope for
// this library (see the Non-goals on the SCSI module), so zone operations
// here always report Unsupported, as do PReadv, PWritev and Flush; the
// backend still exists so Open can identify and size a SCSI ZBC drive
// without falling through to the ATA passthrough backend.
type Backend struct {
	f    *os.File
	info zbc.DeviceInfo
}

func open(path string, flags zbc.OpenFlags) (zbc.Backend, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, &zbc.Error{Kind: zbc.KindNoSuchDevice, Device: path, Err: err}
	}

	inq, err := inquiry(f.Fd())
	if err != nil {
		f.Close()
		return nil, &zbc.Error{Kind: zbc.KindNotMine, Device: path, Err: err}
	}

	vendor := strings.TrimSpace(string(inq.VendorIdent[:]))
	if vendor == "ATA" {
		// SCSI/ATA Translation: let the ata backend handle it directly.
		f.Close()
		return nil, zbc.ErrNotMine
	}

	periph := inq.Peripheral & 0x1f
	b := &Backend{f: f}
	switch periph {
	case peripheralDeviceTypeZBC:
		b.info.Model = zbc.ZoneModelHostManaged
	case peripheralDeviceTypeDirectAccess:
		zoned, err := hasZBDCPage(f.Fd())
		if err != nil {
			f.Close()
			return nil, &zbc.Error{Kind: zbc.KindNotMine, Device: path, Err: err}
		}
		if !zoned {
			f.Close()
			return nil, zbc.ErrNotMine
		}
		b.info.Model = zbc.ZoneModelHostAware
	default:
		f.Close()
		return nil, zbc.ErrNotMine
	}

	if err := b.readCapacity(); err != nil {
		f.Close()
		return nil, &zbc.Error{Kind: zbc.KindIO, Device: path, Err: err}
	}

	b.info.VendorID = vendor
	b.info.Transport = zbc.TransportSCSI
	b.info.Sectors = b.info.LogicalBlocks * uint64(b.info.LogicalBlockSize) / 512
	b.info.MaxRWSectors = 65535 * uint64(b.info.LogicalBlockSize) / 512

	return b, nil
}

type inquiryResponse struct {
	Peripheral   byte
	_            byte
	Version      byte
	_            [5]byte
	VendorIdent  [8]byte
	ProductIdent [16]byte
	ProductRev   [4]byte
}

func inquiry(fd uintptr) (inquiryResponse, error) {
	var resp inquiryResponse
	buf := make([]byte, 36)
	cdb := make([]byte, 6)
	cdb[0] = opInquiry
	binary.BigEndian.PutUint16(cdb[3:], uint16(len(buf)))

	if _, err := sgio.Submit(fd, cdb, sgio.DirFromDevice, buf, 0); err != nil {
		return resp, err
	}

	resp.Peripheral = buf[0]
	resp.Version = buf[2]
	copy(resp.VendorIdent[:], buf[8:16])
	copy(resp.ProductIdent[:], buf[16:32])
	copy(resp.ProductRev[:], buf[32:36])
	return resp, nil
}

// hasZBDCPage issues MODE SENSE(6) for the zoned block device
// characteristics VPD-like mode page; its presence on an otherwise plain
// direct-access device marks it host-aware.
func hasZBDCPage(fd uintptr) (bool, error) {
	buf := make([]byte, 64)
	cdb := make([]byte, 6)
	cdb[0] = opModeSense6
	cdb[2] = (1 << 6) | (pageZonedBlockDeviceCharacteristics & 0x3f) // page control=1 (changeable), page code
	cdb[3] = subpageZBDC
	cdb[4] = uint8(len(buf))

	if _, err := sgio.Submit(fd, cdb, sgio.DirFromDevice, buf, 0); err != nil {
		return false, nil
	}
	return len(buf) > 4 && buf[4]&0x3f == pageZonedBlockDeviceCharacteristics, nil
}

func (b *Backend) readCapacity() error {
	buf := make([]byte, 32)
	cdb := make([]byte, 16)
	cdb[0] = opReadCapacity16
	cdb[1] = saReadCapacity16
	binary.BigEndian.PutUint32(cdb[10:], uint32(len(buf)))

	if _, err := sgio.Submit(b.f.Fd(), cdb, sgio.DirFromDevice, buf, 0); err != nil {
		return err
	}

	b.info.LogicalBlocks = binary.BigEndian.Uint64(buf[0:8]) + 1
	b.info.LogicalBlockSize = binary.BigEndian.Uint32(buf[8:12])
	logicalPerPhysical := uint32(1) << (buf[13] & 0x0f)
	if b.info.LogicalBlockSize == 0 {
		return zbc.ErrInvalidArgument
	}
	b.info.PhysicalBlockSize = b.info.LogicalBlockSize * logicalPerPhysical
	b.info.PhysicalBlocks = b.info.LogicalBlocks / uint64(logicalPerPhysical)
	return nil
}

func (b *Backend) Info() *zbc.DeviceInfo { return &b.info }
func (b *Backend) Close() error          { return b.f.Close() }

// Full ZBC zone and vectored I/O command support is out of scope (see
// Non-goals); the scsi backend only identifies and sizes the device.
func (b *Backend) ReportZones(uint64, zbc.ReportingOption, []zbc.Zone) (int, error) {
	return 0, zbc.ErrUnsupported
}
func (b *Backend) ResetWP(uint64, bool) error   { return zbc.ErrUnsupported }
func (b *Backend) OpenZone(uint64, bool) error  { return zbc.ErrUnsupported }
func (b *Backend) CloseZone(uint64, bool) error { return zbc.ErrUnsupported }
func (b *Backend) FinishZone(uint64, bool) error { return zbc.ErrUnsupported }

func (b *Backend) PReadv(iov []zbc.IOVec, offset uint64) (int64, error) {
	return 0, zbc.ErrUnsupported
}
func (b *Backend) PWritev(iov []zbc.IOVec, offset uint64) (int64, error) {
	return 0, zbc.ErrUnsupported
}
func (b *Backend) Flush() error { return zbc.ErrUnsupported }
