// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ata

import "testing"

func TestCdb16Layout(t *testing.T) {
	// lba = 0x12_34_56_78_9A_BC, chosen so each of its six bytes is
	// distinct and lands in a recognisable CDB position.
	cdb := cdb16(protoDMA, true, true, true, false, 0x2, 0x5678, 0x1234, 0x123456789ABC, 0xAB, 0xCD)

	want := [16]byte{
		0x85,                   // opcode
		(protoDMA << 1) | 0x01, // ext + protocol
		0x2 | 1<<2 | 1<<3 | 1<<5,
		0x56, 0x78, // features
		0x12, 0x34, // count
		0x56, 0xBC, // lba bits 31:24, 7:0
		0x34, 0x9A, // lba bits 39:32, 15:8
		0x12, 0x78, // lba bits 47:40, 23:16
		0xAB, // device
		0xCD, // command
		0x00,
	}
	if cdb != want {
		t.Errorf("cdb16(...) = % X; want % X", cdb, want)
	}
}

func TestCdb16CountAndFeatureMasking(t *testing.T) {
	// The byte split must mask with & 0xff: a count/feature value with its
	// top byte at 0xff must not have that top byte collapse to zero, as
	// 0xff % 0xff would.
	cdb := cdb16(protoDMA, false, true, true, false, 0x2, 0xFF34, 0xFF12, 0, 0, cmdReadLogDMAExt)
	if cdb[3] != 0xFF || cdb[4] != 0x34 {
		t.Errorf("features split = %02X %02X; want FF 34", cdb[3], cdb[4])
	}
	if cdb[5] != 0xFF || cdb[6] != 0x12 {
		t.Errorf("count split = %02X %02X; want FF 12", cdb[5], cdb[6])
	}
}

func TestResetWritePointerExtCDB(t *testing.T) {
	testCases := []struct {
		name         string
		all          bool
		lba          uint64
		wantFeatures uint8
	}{
		{"single zone", false, 0x1000, 0x00},
		{"all zones", true, 0, 0x01},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cdb := resetWritePointerExtCDB(tc.lba, tc.all)
			if cdb[0] != opcodeATA16 {
				t.Errorf("opcode = %02X; want %02X", cdb[0], opcodeATA16)
			}
			if cdb[14] != cmdResetWritePointerExt {
				t.Errorf("command = %02X; want %02X", cdb[14], cmdResetWritePointerExt)
			}
			// The all-zones sentinel lives in the feature field's low byte,
			// not the device byte.
			if cdb[4] != tc.wantFeatures {
				t.Errorf("features low byte = %02X; want %02X", cdb[4], tc.wantFeatures)
			}
			if cdb[13]&0x40 == 0 {
				t.Errorf("device byte = %02X; want LBA-mode bit (0x40) set", cdb[13])
			}
			if tc.all {
				for _, b := range []int{7, 8, 9, 10, 11, 12} {
					if cdb[b] != 0 {
						t.Errorf("all-zones LBA byte %d = %02X; want 00", b, cdb[b])
					}
				}
			}
		})
	}
}

func TestReadWriteDMAExtCDBCommands(t *testing.T) {
	r := readDMAExtCDB(0x1234, 8)
	if r[14] != cmdReadDMAExt {
		t.Errorf("readDMAExtCDB command = %02X; want %02X", r[14], cmdReadDMAExt)
	}
	w := writeDMAExtCDB(0x1234, 8)
	if w[14] != cmdWriteDMAExt {
		t.Errorf("writeDMAExtCDB command = %02X; want %02X", w[14], cmdWriteDMAExt)
	}
	// read is a from-device transfer, write is to-device: bit 3 of byte 2
	// (t_dir) differs between the two.
	if r[2]&(1<<3) == 0 {
		t.Errorf("readDMAExtCDB t_dir bit not set")
	}
	if w[2]&(1<<3) != 0 {
		t.Errorf("writeDMAExtCDB t_dir bit unexpectedly set")
	}
	// Both move a data payload, so both set t_type (byte 2 bit 4), and
	// both address an LBA, so both set the device byte's LBA-mode bit.
	if r[2]&(1<<4) == 0 {
		t.Errorf("readDMAExtCDB t_type bit not set")
	}
	if w[2]&(1<<4) == 0 {
		t.Errorf("writeDMAExtCDB t_type bit not set")
	}
	if r[13]&0x40 == 0 {
		t.Errorf("readDMAExtCDB device byte = %02X; want LBA-mode bit (0x40) set", r[13])
	}
	if w[13]&0x40 == 0 {
		t.Errorf("writeDMAExtCDB device byte = %02X; want LBA-mode bit (0x40) set", w[13])
	}
}

func TestReadLogDMAExtCDB(t *testing.T) {
	cdb := readLogDMAExtCDB(0x1A, 0, 1, 0x0F)
	if cdb[8] != 0x1A {
		t.Errorf("log address = %02X; want 1A", cdb[8])
	}
	if cdb[4] != 0x0F {
		t.Errorf("reporting option in features low byte = %02X; want 0F", cdb[4])
	}
	if cdb[9] != 0x00 || cdb[10] != 0x00 {
		t.Errorf("page 0 encoding = %02X %02X; want 00 00", cdb[9], cdb[10])
	}
}

func TestReadLogDMAExtCDBPageEncoding(t *testing.T) {
	// page = 0x0102: high byte into cdb[9], low byte into cdb[10]. A
	// multi-page report-zones traversal depends on this to avoid
	// re-reading page 0 forever.
	cdb := readLogDMAExtCDB(0x1A, 0x0102, 1, 0)
	if cdb[9] != 0x01 {
		t.Errorf("page high byte = %02X; want 01", cdb[9])
	}
	if cdb[10] != 0x02 {
		t.Errorf("page low byte = %02X; want 02", cdb[10])
	}
}
