// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zbc

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// Backend is the capability table every transport must implement: zone
// reporting and zone management, positioned vectored I/O, and device
// identity. It plays the role DriveIntf plays for TCG transports, but keyed
// to the ZBC/ZAC command surface instead.
type Backend interface {
	Info() *DeviceInfo
	Close() error

	ReportZones(start uint64, opt ReportingOption, out []Zone) (n int, err error)
	ResetWP(start uint64, all bool) error
	OpenZone(start uint64, all bool) error
	CloseZone(start uint64, all bool) error
	FinishZone(start uint64, all bool) error

	PReadv(iov []IOVec, offset uint64) (int64, error)
	PWritev(iov []IOVec, offset uint64) (int64, error)
	Flush() error
}

// ZoneSetter is implemented only by backends that can synthesize a zone
// layout after the fact, namely the fake backend; used by tests.
type ZoneSetter interface {
	SetZones(convSize, zoneSize uint64) error
	SetWP(start, wp uint64) error
}

// Opener probes path and either returns a ready Backend or ErrNotMine if
// this transport does not recognize the device, so Open moves on to the
// next registered backend. Any other error aborts the Open call.
type Opener func(path string, flags OpenFlags) (Backend, error)

// slot indexes the fixed, spec-mandated probe order: block, scsi, ata,
// fake. A transport subpackage registers into its slot from an init()
// function, so main packages pull backends in simply by blank-importing
// the subpackages they want available (the database/sql driver pattern).
type slot int

const (
	slotBlock slot = iota
	slotSCSI
	slotATA
	slotFake
	numSlots
)

type registration struct {
	drv  OpenFlags
	name string
	open Opener
}

var registry [numSlots]*registration

func slotFor(drv OpenFlags) (slot, bool) {
	switch drv {
	case DrvBlock:
		return slotBlock, true
	case DrvSCSI:
		return slotSCSI, true
	case DrvATA:
		return slotATA, true
	case DrvFake:
		return slotFake, true
	default:
		return 0, false
	}
}

// RegisterBackend installs a transport's opener under the given driver-
// filter bit (exactly one of DrvBlock/DrvSCSI/DrvATA/DrvFake). Called from
// a subpackage's init(); panics on a programmer error (bad bit, double
// registration), never on a runtime condition.
func RegisterBackend(name string, drv OpenFlags, open Opener) {
	s, ok := slotFor(drv)
	if !ok {
		panic(fmt.Sprintf("zbc: RegisterBackend(%s): drv must be exactly one of Drv{Block,SCSI,ATA,Fake}", name))
	}
	if registry[s] != nil {
		panic(fmt.Sprintf("zbc: RegisterBackend(%s): slot already held by %s", name, registry[s].name))
	}
	registry[s] = &registration{drv: drv, name: name, open: open}
}

// Open resolves path (following symlinks), then walks the registered
// backends in spec order (block, scsi, ata, fake), skipping any the driver
// filter excludes or that were never registered (no blank import), and
// stopping at the first backend that accepts the device. It mirrors
// zbc_open's probe loop: a backend returning ErrNotMine means "keep going",
// any other error is returned immediately.
func Open(path string, flags OpenFlags) (*Handle, error) {
	real, err := resolveSymlink(path)
	if err != nil {
		return nil, newErr(KindNoSuchDevice, path, err)
	}

	filter := flags.DriverFilter()
	var lastErr error = ErrNoSuchDevice
	for _, reg := range registry {
		if reg == nil || filter&reg.drv == 0 {
			continue
		}
		be, err := reg.open(real, flags)
		if err == nil {
			log.WithFields(log.Fields{"device": path, "backend": reg.name}).Debug("zbc: device opened")
			return &Handle{filename: path, backend: be, testMode: flags.IsTestMode()}, nil
		}
		if !isNotMine(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func isNotMine(err error) bool {
	zerr, ok := err.(*Error)
	return ok && zerr.Kind == KindNotMine
}

// resolveSymlink follows symlinks until it reaches a concrete path, the way
// zbc_open does before handing the path to each backend's probe, so that
// e.g. /dev/disk/by-id/... resolves to the /dev/sdX the backends expect.
func resolveSymlink(path string) (string, error) {
	const maxHops = 8
	p := path
	for i := 0; i < maxHops; i++ {
		fi, err := os.Lstat(p)
		if err != nil {
			return "", err
		}
		if fi.Mode()&os.ModeSymlink == 0 {
			return p, nil
		}
		target, err := os.Readlink(p)
		if err != nil {
			return "", err
		}
		if len(target) == 0 || !os.IsPathSeparator(target[0]) {
			target = p[:lastSlash(p)+1] + target
		}
		p = target
	}
	return "", &Error{Kind: KindIO, Device: path, Err: os.ErrInvalid}
}

func lastSlash(p string) int {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return i
		}
	}
	return -1
}
