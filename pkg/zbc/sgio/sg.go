// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Copyright 2021 Christian Svensson. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sgio wraps the Linux SG_IO ioctl, the transport both the scsi
// and ata backends submit CDBs over.
package sgio

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/dswarbrick/smart/ioctl"
)

// Direction selects which way data flows relative to the host for a CDB
// submitted through Submit.
type Direction int32

const (
	DirNone       Direction = -1
	DirToDevice   Direction = -2
	DirFromDevice Direction = -3
	DirToFrom     Direction = -4
)

const (
	sgInfoOKMask = 0x1
	sgInfoOK     = 0x0

	sgIO = 0x2285

	defaultTimeoutMS = 60000

	driverSense = 0x8
)

var nativeEndian binary.ByteOrder

func init() {
	i := uint32(1)
	b := (*[4]byte)(unsafe.Pointer(&i))
	if b[0] == 1 {
		nativeEndian = binary.LittleEndian
	} else {
		nativeEndian = binary.BigEndian
	}
}

// NativeEndian is the host's byte order, needed by callers parsing fixed
// C-layout response structures (e.g. IDENTIFY DEVICE) read through Submit.
func NativeEndian() binary.ByteOrder { return nativeEndian }

// sg_io_hdr_t, from <scsi/sg.h>.
type sgIoHdr struct {
	interfaceID   int32
	dxferDir      Direction
	cmdLen        uint8
	mxSBLen       uint8
	iovecCount    uint16
	dxferLen      uint32
	dxferp        uintptr
	cmdp          uintptr
	sbp           uintptr
	timeout       uint32
	flags         uint32
	packID        int32
	usrPtr        uintptr
	status        uint8
	maskedStatus  uint8
	msgStatus     uint8
	sbLenWr       uint8
	hostStatus    uint16
	driverStatus  uint16
	resid         int32
	duration      uint32
	info          uint32
}

// Result carries back everything a caller needs to classify a failed CDB:
// the raw sense buffer, how many bytes of the transfer buffer the device
// actually touched, and the trimmed sense key / ASC / ASCQ if the driver
// reported SENSE status.
type Result struct {
	Sense       []byte
	Residual    int
	HasSense    bool
	SenseKey    uint8
	ASC, ASCQ   uint8
}

// Submit issues cdb over fd, transferring buf in direction dir, and
// returns the command result. It does not itself interpret SCSI status:
// callers (scsi/ata backends) decide what a given sense key means for
// their own command set.
func Submit(fd uintptr, cdb []byte, dir Direction, buf []byte, timeout uint32) (Result, error) {
	sense := make([]byte, 32)
	if timeout == 0 {
		timeout = defaultTimeoutMS
	}

	hdr := sgIoHdr{
		interfaceID: 'S',
		dxferDir:    dir,
		timeout:     timeout,
		cmdLen:      uint8(len(cdb)),
		mxSBLen:     uint8(len(sense)),
		cmdp:        uintptr(unsafe.Pointer(&cdb[0])),
		sbp:         uintptr(unsafe.Pointer(&sense[0])),
	}
	if len(buf) > 0 {
		hdr.dxferLen = uint32(len(buf))
		hdr.dxferp = uintptr(unsafe.Pointer(&buf[0]))
	}

	if err := ioctl.Ioctl(fd, sgIO, uintptr(unsafe.Pointer(&hdr))); err != nil {
		return Result{}, err
	}

	res := Result{Sense: sense, Residual: int(hdr.resid)}

	if hdr.info&sgInfoOKMask == sgInfoOK {
		return res, nil
	}

	if hdr.driverStatus == driverSense {
		switch sense[0] & 0x7f {
		case 0x70: // fixed format
			res.HasSense = true
			res.SenseKey = sense[2] & 0x0f
			if len(sense) > 13 {
				res.ASC, res.ASCQ = sense[12], sense[13]
			}
		case 0x72: // descriptor format
			res.HasSense = true
			res.SenseKey = sense[1] & 0x0f
			if len(sense) > 3 {
				res.ASC, res.ASCQ = sense[2], sense[3]
			}
		}
		if res.HasSense {
			return res, fmt.Errorf("sgio: sense key 0x%02x asc/ascq 0x%02x/0x%02x",
				res.SenseKey, res.ASC, res.ASCQ)
		}
	}

	return res, fmt.Errorf("sgio: status 0x%02x host status 0x%02x driver status 0x%02x",
		hdr.status, hdr.hostStatus, hdr.driverStatus)
}
