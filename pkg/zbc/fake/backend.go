// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fake implements an in-process, file-backed zoned device for
// tests and the end-to-end scenarios in this library's own test suite: no
// real hardware, no root, no SG_IO. A fake-backed Handle behaves exactly
// like a host-managed device as far as the zbc package's callers can
// tell, including rejecting out-of-order writes to a sequential zone.
package fake

import (
	"os"
	"sync"

	"github.com/Spetebroot/libzbc/pkg/zbc"
)

func init() {
	zbc.RegisterBackend("fake", zbc.DrvFake, open)
}

const fakeMagic = "ZBCFAKE1"

// Backend is a file-backed emulation of a host-managed zoned device. The
// backing file holds raw sector data; zone geometry lives only in memory
// and is configured via SetZones/SetWP (the ZoneSetter interface), or
// defaults to a single conventional zone spanning the whole file.
type Backend struct {
	mu    sync.Mutex
	f     *os.File
	info  zbc.DeviceInfo
	zones []zbc.Zone
}

// open only claims paths explicitly created by NewFile; the fake backend
// never probes the filesystem the way the real backends do, since it has
// no wire format of its own to detect. A path created by NewFile is
// tagged with a magic header so Open (with DrvFake allowed) finds it.
func open(path string, flags zbc.OpenFlags) (zbc.Backend, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, &zbc.Error{Kind: zbc.KindNoSuchDevice, Device: path, Err: err}
	}

	hdr := make([]byte, len(fakeMagic))
	if _, err := f.ReadAt(hdr, 0); err != nil || string(hdr) != fakeMagic {
		f.Close()
		return nil, zbc.ErrNotMine
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &zbc.Error{Kind: zbc.KindIO, Device: path, Err: err}
	}
	sectors := (uint64(fi.Size()) - dataOffset) / 512

	b := &Backend{
		f: f,
		info: zbc.DeviceInfo{
			VendorID:          "fake",
			Transport:         zbc.TransportFake,
			Model:             zbc.ZoneModelHostManaged,
			Sectors:           sectors,
			LogicalBlocks:     sectors,
			PhysicalBlocks:    sectors,
			LogicalBlockSize:  512,
			PhysicalBlockSize: 512,
			MaxRWSectors:      4096,
			Flags:             zbc.FlagUnrestrictedRead,
		},
	}
	b.zones = []zbc.Zone{{Start: 0, Length: sectors, Type: zbc.ZoneTypeConventional, Condition: zbc.ZoneConditionNotWP}}
	return b, nil
}

const dataOffset = 4096 // room for the magic header, sector-aligned

// NewFile creates a fake device backing file of the given capacity (in
// sectors) at path, ready to be Open'd with DrvFake. By default it has a
// single conventional zone. SetZones (zbc.ZoneSetter) lays out a
// sequential-zone geometry on a *Backend held directly, as this package's
// tests do; a zbc.Handle exposes neither its backend nor SetZones/SetWP,
// so a device opened through zbc.Open keeps the single conventional zone.
func NewFile(path string, sectors uint64) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(fakeMagic); err != nil {
		return err
	}
	return f.Truncate(int64(dataOffset + sectors*512))
}

func (b *Backend) Info() *zbc.DeviceInfo { return &b.info }
func (b *Backend) Close() error          { return b.f.Close() }

// SetZones lays out a conventional region of convSize sectors followed by
// sequential-write-required zones of zoneSize sectors each, covering the
// rest of the device capacity. Implements zbc.ZoneSetter.
func (b *Backend) SetZones(convSize, zoneSize uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if convSize > b.info.Sectors {
		return zbc.ErrInvalidArgument
	}
	if zoneSize == 0 && convSize < b.info.Sectors {
		return zbc.ErrInvalidArgument
	}

	zones := []zbc.Zone{}
	if convSize > 0 {
		zones = append(zones, zbc.Zone{Start: 0, Length: convSize, Type: zbc.ZoneTypeConventional, Condition: zbc.ZoneConditionNotWP})
	}
	for start := convSize; start < b.info.Sectors; start += zoneSize {
		length := zoneSize
		if start+length > b.info.Sectors {
			length = b.info.Sectors - start
		}
		zones = append(zones, zbc.Zone{
			Start:        start,
			Length:       length,
			WritePointer: start,
			Type:         zbc.ZoneTypeSequentialRequired,
			Condition:    zbc.ZoneConditionEmpty,
		})
	}
	b.zones = zones
	return nil
}

// SetWP forces the write pointer of the zone containing start to wp,
// without requiring an actual write -- used by tests to put a zone in a
// specific condition (implicit-open, full, ...) cheaply. Implements
// zbc.ZoneSetter.
func (b *Backend) SetWP(start, wp uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	z := b.zoneAt(start)
	if z == nil || z.Type == zbc.ZoneTypeConventional {
		return zbc.ErrInvalidArgument
	}
	if wp < z.Start || wp > z.End() {
		return zbc.ErrInvalidArgument
	}
	z.WritePointer = wp
	switch {
	case wp == z.Start:
		z.Condition = zbc.ZoneConditionEmpty
	case wp == z.End():
		z.Condition = zbc.ZoneConditionFull
	default:
		z.Condition = zbc.ZoneConditionImplicitOpen
	}
	return nil
}

func (b *Backend) zoneAt(sector uint64) *zbc.Zone {
	for i := range b.zones {
		if sector >= b.zones[i].Start && sector < b.zones[i].End() {
			return &b.zones[i]
		}
	}
	return nil
}

func (b *Backend) ReportZones(start uint64, opt zbc.ReportingOption, out []zbc.Zone) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, z := range b.zones {
		if z.Start < start {
			continue
		}
		if !matchesOption(z, opt) {
			continue
		}
		if out == nil {
			n++
			continue
		}
		if n >= len(out) {
			break
		}
		out[n] = z
		n++
	}
	return n, nil
}

func matchesOption(z zbc.Zone, opt zbc.ReportingOption) bool {
	switch opt {
	case zbc.ReportAll:
		return true
	case zbc.ReportEmpty:
		return z.Condition == zbc.ZoneConditionEmpty
	case zbc.ReportImplicitOpen:
		return z.Condition == zbc.ZoneConditionImplicitOpen
	case zbc.ReportExplicitOpen:
		return z.Condition == zbc.ZoneConditionExplicitOpen
	case zbc.ReportClosed:
		return z.Condition == zbc.ZoneConditionClosed
	case zbc.ReportFull:
		return z.Condition == zbc.ZoneConditionFull
	case zbc.ReportReadOnly:
		return z.Condition == zbc.ZoneConditionReadOnly
	case zbc.ReportOffline:
		return z.Condition == zbc.ZoneConditionOffline
	case zbc.ReportResetRecommended:
		return z.NeedsReset()
	case zbc.ReportNonSequential:
		return z.NonSeq()
	case zbc.ReportNotWritePointer:
		return z.Condition == zbc.ZoneConditionNotWP
	default:
		return true
	}
}

func (b *Backend) forEachZone(start uint64, all bool, do func(*zbc.Zone) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if all {
		for i := range b.zones {
			if b.zones[i].Type == zbc.ZoneTypeConventional {
				continue
			}
			if err := do(&b.zones[i]); err != nil {
				return err
			}
		}
		return nil
	}

	z := b.zoneAt(start)
	if z == nil || z.Start != start {
		return zbc.ErrInvalidArgument
	}
	if z.Type == zbc.ZoneTypeConventional {
		return zbc.ErrInvalidArgument
	}
	return do(z)
}

func (b *Backend) ResetWP(start uint64, all bool) error {
	return b.forEachZone(start, all, func(z *zbc.Zone) error {
		z.WritePointer = z.Start
		z.Condition = zbc.ZoneConditionEmpty
		z.Flags &^= zbc.ZoneFlagResetRecommended | zbc.ZoneFlagNonSeqWrite
		return nil
	})
}

func (b *Backend) OpenZone(start uint64, all bool) error {
	return b.forEachZone(start, all, func(z *zbc.Zone) error {
		if all && z.Condition != zbc.ZoneConditionClosed && z.Condition != zbc.ZoneConditionEmpty {
			return nil
		}
		if z.Condition == zbc.ZoneConditionFull {
			return zbc.ErrInvalidArgument
		}
		z.Condition = zbc.ZoneConditionExplicitOpen
		return nil
	})
}

func (b *Backend) CloseZone(start uint64, all bool) error {
	return b.forEachZone(start, all, func(z *zbc.Zone) error {
		switch z.Condition {
		case zbc.ZoneConditionImplicitOpen, zbc.ZoneConditionExplicitOpen:
			z.Condition = zbc.ZoneConditionClosed
		}
		return nil
	})
}

func (b *Backend) FinishZone(start uint64, all bool) error {
	return b.forEachZone(start, all, func(z *zbc.Zone) error {
		if all && (z.Condition == zbc.ZoneConditionReadOnly || z.Condition == zbc.ZoneConditionOffline) {
			return nil
		}
		z.WritePointer = z.End()
		z.Condition = zbc.ZoneConditionFull
		return nil
	})
}

func (b *Backend) PReadv(iov []zbc.IOVec, offset uint64) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var total int64
	pos := offset
	for _, v := range iov {
		n, err := b.f.ReadAt(v.Base, int64(dataOffset+pos*512))
		total += int64(n)
		pos += v.Len
		if err != nil {
			return total, &zbc.Error{Kind: zbc.KindIO, Err: err}
		}
	}
	return total, nil
}

// PWritev enforces the sequential-write-pointer invariant for any zone
// that is not conventional: a write must start exactly at the zone's
// current write pointer, and advances it by the number of sectors
// written. Writing past the point where the request would cross into the
// next zone is rejected rather than silently spanning zones.
func (b *Backend) PWritev(iov []zbc.IOVec, offset uint64) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := uint64(0)
	for _, v := range iov {
		count += v.Len
	}

	z := b.zoneAt(offset)
	if z == nil {
		return 0, zbc.ErrInvalidArgument
	}
	if z.Type != zbc.ZoneTypeConventional {
		if offset != z.WritePointer {
			return 0, &zbc.Error{Kind: zbc.KindInvalidArgument, ASCASCQ: zbc.ASCUnalignedWriteCommand, HasSense: true, SenseKey: zbc.SenseKeyIllegalRequest}
		}
		if z.Condition == zbc.ZoneConditionFull || z.Condition == zbc.ZoneConditionReadOnly || z.Condition == zbc.ZoneConditionOffline {
			return 0, &zbc.Error{Kind: zbc.KindIO, ASCASCQ: zbc.ASCZoneIsReadOnly, HasSense: true, SenseKey: zbc.SenseKeyDataProtect}
		}
	}
	if offset+count > z.End() {
		return 0, &zbc.Error{Kind: zbc.KindInvalidArgument, ASCASCQ: zbc.ASCWriteBoundaryViolation, HasSense: true, SenseKey: zbc.SenseKeyIllegalRequest}
	}

	var total int64
	pos := offset
	for _, v := range iov {
		n, err := b.f.WriteAt(v.Base, int64(dataOffset+pos*512))
		total += int64(n)
		pos += v.Len
		if err != nil {
			return total, &zbc.Error{Kind: zbc.KindIO, Err: err}
		}
	}

	if z.Type != zbc.ZoneTypeConventional {
		z.WritePointer = pos
		if z.WritePointer == z.End() {
			z.Condition = zbc.ZoneConditionFull
		} else {
			z.Condition = zbc.ZoneConditionImplicitOpen
		}
	}

	return total, nil
}

func (b *Backend) Flush() error {
	if err := b.f.Sync(); err != nil {
		return &zbc.Error{Kind: zbc.KindIO, Err: err}
	}
	return nil
}
