// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fake

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Spetebroot/libzbc/pkg/zbc"
)

func newBackend(t *testing.T, sectors uint64) *Backend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dev0")
	if err := NewFile(path, sectors); err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	be, err := open(path, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	b := be.(*Backend)
	t.Cleanup(func() { b.Close() })
	return b
}

func listZones(t *testing.T, b *Backend, opt zbc.ReportingOption) []zbc.Zone {
	t.Helper()
	n, err := b.ReportZones(0, opt, nil)
	if err != nil {
		t.Fatalf("ReportZones(count): %v", err)
	}
	out := make([]zbc.Zone, n)
	if _, err := b.ReportZones(0, opt, out); err != nil {
		t.Fatalf("ReportZones: %v", err)
	}
	return out
}

func TestOpenRejectsMissingMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notfake")
	f, err := filepath.Abs(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := NewFile(f, 8); err != nil {
		t.Fatal(err)
	}
	// Corrupt the magic header so it no longer matches.
	if err := overwriteMagic(f); err != nil {
		t.Fatal(err)
	}
	if _, err := open(f, 0); err != zbc.ErrNotMine {
		t.Errorf("open() on a file without the fake magic = %v; want ErrNotMine", err)
	}
}

func TestOpenDefaultsToOneConventionalZone(t *testing.T) {
	b := newBackend(t, 2048)

	zones := listZones(t, b, zbc.ReportAll)
	if len(zones) != 1 {
		t.Fatalf("got %d zones; want 1", len(zones))
	}
	if zones[0].Type != zbc.ZoneTypeConventional {
		t.Errorf("zone type = %s; want conventional", zones[0].Type)
	}
	if zones[0].Length != 2048 {
		t.Errorf("zone length = %d; want 2048", zones[0].Length)
	}
}

func TestSetZonesLaysOutConventionalThenSequential(t *testing.T) {
	b := newBackend(t, 4096)
	if err := b.SetZones(1024, 1024); err != nil {
		t.Fatalf("SetZones: %v", err)
	}

	zones := listZones(t, b, zbc.ReportAll)
	if len(zones) != 4 {
		t.Fatalf("got %d zones; want 4 (1 conventional + 3 sequential)", len(zones))
	}
	if zones[0].Type != zbc.ZoneTypeConventional || zones[0].Length != 1024 {
		t.Errorf("zone 0 = %+v; want conventional, length 1024", zones[0])
	}
	for i, z := range zones[1:] {
		if z.Type != zbc.ZoneTypeSequentialRequired {
			t.Errorf("zone %d type = %s; want sequential-required", i+1, z.Type)
		}
		if z.Condition != zbc.ZoneConditionEmpty {
			t.Errorf("zone %d condition = %s; want empty", i+1, z.Condition)
		}
	}
}

func TestSequentialWriteMustStartAtWritePointer(t *testing.T) {
	b := newBackend(t, 4096)
	if err := b.SetZones(0, 1024); err != nil {
		t.Fatal(err)
	}

	buf := zbc.IOVec{Base: make([]byte, 512), Len: 1}

	if _, err := b.PWritev([]zbc.IOVec{buf}, 0); err != nil {
		t.Fatalf("first write at wp=0: %v", err)
	}
	if _, err := b.PWritev([]zbc.IOVec{buf}, 0); err == nil {
		t.Fatal("rewriting sector 0 after the write pointer advanced should fail")
	}
	if _, err := b.PWritev([]zbc.IOVec{buf}, 2); err == nil {
		t.Fatal("writing ahead of the write pointer should fail")
	}
	if _, err := b.PWritev([]zbc.IOVec{buf}, 1); err != nil {
		t.Fatalf("write at the advanced write pointer: %v", err)
	}
}

func TestWriteCannotCrossZoneBoundary(t *testing.T) {
	b := newBackend(t, 2048)
	if err := b.SetZones(0, 512); err != nil {
		t.Fatal(err)
	}

	// The zone is only 512 sectors long; a 1024-sector write starting at
	// its beginning necessarily spills into the next zone.
	big := zbc.IOVec{Base: make([]byte, 1024*512), Len: 1024}
	if _, err := b.PWritev([]zbc.IOVec{big}, 0); err == nil {
		t.Fatal("a write spanning past the zone end should fail")
	}
}

func TestWriteToFullZoneIsRejected(t *testing.T) {
	b := newBackend(t, 2048)
	if err := b.SetZones(0, 1024); err != nil {
		t.Fatal(err)
	}
	if err := b.FinishZone(0, false); err != nil {
		t.Fatal(err)
	}

	buf := zbc.IOVec{Base: make([]byte, 512), Len: 1}
	if _, err := b.PWritev([]zbc.IOVec{buf}, 0); err == nil {
		t.Fatal("writing to a full zone should fail")
	}
}

func TestResetOpenCloseFinish(t *testing.T) {
	b := newBackend(t, 2048)
	if err := b.SetZones(0, 1024); err != nil {
		t.Fatal(err)
	}

	if err := b.OpenZone(0, false); err != nil {
		t.Fatalf("OpenZone: %v", err)
	}
	if zs := listZones(t, b, zbc.ReportExplicitOpen); len(zs) != 1 {
		t.Fatalf("expected 1 explicitly-open zone, got %d", len(zs))
	}

	if err := b.CloseZone(0, false); err != nil {
		t.Fatalf("CloseZone: %v", err)
	}
	if zs := listZones(t, b, zbc.ReportClosed); len(zs) != 1 {
		t.Fatalf("expected 1 closed zone, got %d", len(zs))
	}

	if err := b.FinishZone(0, false); err != nil {
		t.Fatalf("FinishZone: %v", err)
	}
	if zs := listZones(t, b, zbc.ReportFull); len(zs) != 1 {
		t.Fatalf("expected 1 full zone, got %d", len(zs))
	}

	if err := b.ResetWP(0, false); err != nil {
		t.Fatalf("ResetWP: %v", err)
	}
	if zs := listZones(t, b, zbc.ReportEmpty); len(zs) != 1 {
		t.Fatalf("expected 1 empty zone after reset, got %d", len(zs))
	}
}

func TestResetAllZones(t *testing.T) {
	b := newBackend(t, 4096)
	if err := b.SetZones(0, 1024); err != nil {
		t.Fatal(err)
	}
	for start := uint64(0); start < 4096; start += 1024 {
		if err := b.FinishZone(start, false); err != nil {
			t.Fatalf("FinishZone(%d): %v", start, err)
		}
	}
	if err := b.ResetWP(0, true); err != nil {
		t.Fatalf("ResetWP(all): %v", err)
	}
	if zs := listZones(t, b, zbc.ReportEmpty); len(zs) != 4 {
		t.Fatalf("got %d empty zones after resetting all; want 4", len(zs))
	}
}

func TestOpenZoneRejectsFullZone(t *testing.T) {
	b := newBackend(t, 2048)
	if err := b.SetZones(0, 1024); err != nil {
		t.Fatal(err)
	}
	if err := b.FinishZone(0, false); err != nil {
		t.Fatal(err)
	}
	if err := b.OpenZone(0, false); err == nil {
		t.Fatal("opening a full zone should fail")
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	b := newBackend(t, 1024)
	if err := b.SetZones(0, 1024); err != nil {
		t.Fatal(err)
	}

	want := make([]byte, 512)
	for i := range want {
		want[i] = byte(i)
	}
	if _, err := b.PWritev([]zbc.IOVec{{Base: want, Len: 1}}, 0); err != nil {
		t.Fatalf("PWritev: %v", err)
	}

	got := make([]byte, 512)
	if _, err := b.PReadv([]zbc.IOVec{{Base: got, Len: 1}}, 0); err != nil {
		t.Fatalf("PReadv: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("read back mismatch at byte %d: got %02x want %02x", i, got[i], want[i])
		}
	}
}

func TestResetWPRejectsConventionalZone(t *testing.T) {
	b := newBackend(t, 2048)
	if err := b.SetZones(1024, 1024); err != nil {
		t.Fatal(err)
	}
	if err := b.ResetWP(0, false); err == nil {
		t.Fatal("resetting a conventional zone should fail")
	}
}

func overwriteMagic(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteAt([]byte("NOTAMAGIC"), 0)
	return err
}
