// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ata

import (
	"errors"
	"testing"

	"github.com/Spetebroot/libzbc/pkg/zbc"
)

// OpenZone/CloseZone/FinishZone never touch the device file, since the ATA
// command set this library targets has no equivalent for them (see the
// comment on OpenZone in backend.go).
func TestZoneManagementGapsReportUnsupported(t *testing.T) {
	b := &Backend{}

	if err := b.OpenZone(0, false); !errors.Is(err, zbc.ErrUnsupported) {
		t.Errorf("OpenZone = %v; want ErrUnsupported", err)
	}
	if err := b.CloseZone(0, false); !errors.Is(err, zbc.ErrUnsupported) {
		t.Errorf("CloseZone = %v; want ErrUnsupported", err)
	}
	if err := b.FinishZone(0, false); !errors.Is(err, zbc.ErrUnsupported) {
		t.Errorf("FinishZone = %v; want ErrUnsupported", err)
	}
}
