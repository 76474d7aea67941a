// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ata

import (
	"github.com/Spetebroot/libzbc/pkg/zbc"
)

const (
	reportZonesLogPage = 0x1A

	logPageSize        = 512
	logMaxSize         = 128 * 1024
	zoneDescOffset     = 64
	zoneDescLength     = 64
)

func getWord(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func getDword(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func getQword(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// reportZones reads the 0x1A report-zones log, a series of 512-byte pages:
// page 0's first four bytes hold the total zone count, and every page
// packs 64-byte zone descriptors starting at offset 64 in page 0 (and
// offset 0 in every later page). It mirrors zbc_ata_report_zones, walking
// as many pages as needed to fill out, capped by the caller-supplied count.
func (b *Backend) reportZones(start uint64, opt uint8, out []zbc.Zone) (int, error) {
	page := 0
	bufSz := logPageSize

	buf, err := b.readLog(reportZonesLogPage, page, bufSz, opt)
	if err != nil {
		return 0, err
	}

	nz := int(getDword(buf))
	if nz == 0 || len(out) == 0 {
		return nz, nil
	}
	if nz > len(out) {
		nz = len(out)
	}

	// Descriptors are in logical blocks; zbc.Zone is in 512-byte sectors.
	sectPerLBA := uint64(b.info.LogicalBlockSize) / 512
	descOff := zoneDescOffset
	n := 0
	remaining := nz
	for remaining > 0 {
		perPage := (len(buf) - descOff) / zoneDescLength
		if perPage > remaining {
			perPage = remaining
		}
		for i := 0; i < perPage; i++ {
			d := buf[descOff+i*zoneDescLength:]
			out[n] = zbc.Zone{
				Type:         zbc.ZoneType(d[0] & 0x0f),
				Condition:    zbc.ZoneCondition((d[1] >> 4) & 0x0f),
				Length:       getQword(d[8:]) * sectPerLBA,
				Start:        getQword(d[16:]) * sectPerLBA,
				WritePointer: getQword(d[24:]) * sectPerLBA,
			}
			if d[1]&0x01 != 0 {
				out[n].Flags |= zbc.ZoneFlagResetRecommended
			}
			n++
		}
		remaining -= perPage
		if remaining == 0 {
			break
		}

		page += bufSz / logPageSize
		bufSz = (remaining / (logPageSize / zoneDescLength)) * logPageSize
		if bufSz == 0 {
			bufSz = logPageSize
		} else if bufSz > logMaxSize {
			bufSz = logMaxSize
		}

		buf, err = b.readLog(reportZonesLogPage, page, bufSz, opt)
		if err != nil {
			return n, err
		}
		descOff = 0
	}

	return n, nil
}
