// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ata

import "testing"

func TestGetWord(t *testing.T) {
	if got := getWord([]byte{0x34, 0x12}); got != 0x1234 {
		t.Errorf("getWord = %04X; want 1234", got)
	}
}

func TestGetDword(t *testing.T) {
	if got := getDword([]byte{0x78, 0x56, 0x34, 0x12}); got != 0x12345678 {
		t.Errorf("getDword = %08X; want 12345678", got)
	}
}

func TestGetQword(t *testing.T) {
	b := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	if got := getQword(b); got != 0x0807060504030201 {
		t.Errorf("getQword = %016X; want 0807060504030201", got)
	}
}
