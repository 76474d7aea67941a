// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ata talks ZAC (Zoned ATA Commands) to a device, tunnelling ATA
// commands through the SCSI ATA PASS-THROUGH (16) opcode the way Linux's
// SG_IO transport requires.
package ata

const (
	opcodeATA16 = 0x85

	protoNonData = 0x3
	protoDMA     = 0x6

	cmdIdentifyDevice      = 0xEC
	cmdExecDevDiagnostic   = 0x90
	cmdReadLogDMAExt       = 0x47
	cmdReadDMAExt          = 0x25
	cmdWriteDMAExt         = 0x35
	cmdFlushCacheExt       = 0xEA
	cmdResetWritePointerExt = 0x9F
)

// cdb16 builds an ATA PASS-THROUGH (16) CDB. lba is the 48-bit LBA to
// place into the non-contiguous byte layout the command requires: bits
// 31:24 and 7:0 into bytes 7/8, bits 39:32 and 15:8 into bytes 9/10, bits
// 47:40 and 23:16 into bytes 11/12. features and count are both 16-bit ATA
// registers, split into high/low bytes with a plain `& 0xff` mask.
func cdb16(proto uint8, ckCond, tDir, bytBlk, tType bool, tLength uint8, features, count uint16, lba uint64, device, command uint8) [16]byte {
	var cdb [16]byte

	cdb[0] = opcodeATA16
	cdb[1] = (proto << 1) | 0x01 // ext=1, 48-bit command
	cdb[2] = tLength & 0x03
	if bytBlk {
		cdb[2] |= 1 << 2
	}
	if tDir {
		cdb[2] |= 1 << 3
	}
	if tType {
		cdb[2] |= 1 << 4
	}
	if ckCond {
		cdb[2] |= 1 << 5
	}

	cdb[3] = uint8((features >> 8) & 0xff)
	cdb[4] = uint8(features & 0xff)
	cdb[5] = uint8((count >> 8) & 0xff)
	cdb[6] = uint8(count & 0xff)

	cdb[7] = uint8((lba >> 24) & 0xff)
	cdb[8] = uint8(lba & 0xff)
	cdb[9] = uint8((lba >> 32) & 0xff)
	cdb[10] = uint8((lba >> 8) & 0xff)
	cdb[11] = uint8((lba >> 40) & 0xff)
	cdb[12] = uint8((lba >> 16) & 0xff)

	cdb[13] = device
	cdb[14] = command

	return cdb
}

// identifyDeviceCDB builds the CDB for IDENTIFY DEVICE (0xEC), a PIO-class
// command tunnelled as a single 512-byte DMA-protocol transfer, the same
// way the reference implementation issues it.
func identifyDeviceCDB() [16]byte {
	return cdb16(protoDMA, false, true, true, false, 0x2, 0, 1, 0, 0, cmdIdentifyDevice)
}

// execDevDiagnosticCDB builds the CDB for EXECUTE DEVICE DIAGNOSTIC (0x90),
// a non-data command whose returned task-file register signature classify
// uses to tell a ZAC host-managed drive from a standard one.
func execDevDiagnosticCDB() [16]byte {
	return cdb16(protoNonData, true, false, false, false, 0, 0, 0, 0, 0, cmdExecDevDiagnostic)
}

// readLogDMAExtCDB builds the CDB for READ LOG DMA EXT (0x47): log is the
// ATA log address (0x1A for Report Zones), page selects which 512-byte
// page within that log, count is the transfer size in sectors, and opt
// carries the low-4-bit reporting-option filter into the ATA "feature"
// field's low byte (REPORT ZONES EXT repurposes LOG DMA EXT's features
// register for this purpose). The page number goes into cdb[9]/cdb[10],
// the same bytes cdb16 would otherwise use for LBA bits 39:32/15:8, since
// this command addresses a log page rather than an LBA.
func readLogDMAExtCDB(log uint8, page uint16, count uint16, opt uint8) [16]byte {
	cdb := cdb16(protoDMA, false, true, true, false, 0x2, uint16(opt), count, 0, 0, cmdReadLogDMAExt)
	cdb[8] = log
	cdb[9] = uint8((page >> 8) & 0xff)
	cdb[10] = uint8(page & 0xff)
	return cdb
}

// readDMAExtCDB / writeDMAExtCDB build the 48-bit LBA data-transfer
// commands io.go's chunked PReadv/PWritev issue against the ata
// backend. Both set the T_TYPE bit (byte 2 bit 4) since they move a data
// payload, and the device byte's LBA-mode bit (0x40) since they address
// an LBA rather than the whole device.
func readDMAExtCDB(lba uint64, count uint16) [16]byte {
	return cdb16(protoDMA, false, true, true, true, 0x2, 0, count, lba, 0x40, cmdReadDMAExt)
}

func writeDMAExtCDB(lba uint64, count uint16) [16]byte {
	return cdb16(protoDMA, false, false, true, true, 0x2, 0, count, lba, 0x40, cmdWriteDMAExt)
}

// flushCacheExtCDB builds the CDB for FLUSH CACHE EXT (0xEA), a non-data
// command.
func flushCacheExtCDB() [16]byte {
	return cdb16(protoNonData, false, false, false, false, 0, 0, 0, 0, 0, cmdFlushCacheExt)
}

// resetWritePointerExtCDB builds the CDB for RESET WRITE POINTER EXT
// (0x9F). all selects the "reset every zone" sentinel, carried in the
// feature field's low byte (cdb[4]=0x01) rather than the device byte; the
// device byte instead only carries the LBA-mode bit (0x40), set here as on
// every other LBA-bearing command.
func resetWritePointerExtCDB(lba uint64, all bool) [16]byte {
	var features uint16
	if all {
		features = 0x01
	}
	return cdb16(protoNonData, false, false, false, false, 0, features, 0, lba, 0x40, cmdResetWritePointerExt)
}
