// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zbc_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Spetebroot/libzbc/pkg/zbc"
	"github.com/Spetebroot/libzbc/pkg/zbc/fake"
)

func openFake(t *testing.T, sectors uint64) *zbc.Handle {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dev0")
	if err := fake.NewFile(path, sectors); err != nil {
		t.Fatalf("fake.NewFile: %v", err)
	}
	h, err := zbc.Open(path, zbc.DrvFake)
	if err != nil {
		t.Fatalf("zbc.Open: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestOpenRespectsDriverFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev0")
	if err := fake.NewFile(path, 2048); err != nil {
		t.Fatal(err)
	}
	if _, err := zbc.Open(path, zbc.DrvBlock|zbc.DrvSCSI|zbc.DrvATA); !errors.Is(err, zbc.ErrNoSuchDevice) {
		t.Errorf("Open with a filter excluding DrvFake = %v; want ErrNoSuchDevice", err)
	}
}

func TestOpenFollowsSymlinkTarget(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	if err := fake.NewFile(real, 2048); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlink not supported in this environment: %v", err)
	}

	h, err := zbc.Open(link, zbc.DrvFake)
	if err != nil {
		t.Fatalf("Open(symlink): %v", err)
	}
	defer h.Close()
	if h.Filename() != link {
		t.Errorf("Filename() = %q; want %q", h.Filename(), link)
	}
}

func TestHandleCloseIsIdempotent(t *testing.T) {
	h := openFake(t, 2048)
	if err := h.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestOperationsAfterCloseFail(t *testing.T) {
	h := openFake(t, 2048)
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := h.ListZones(0, zbc.ReportAll); !errors.Is(err, zbc.ErrInvalidArgument) {
		t.Errorf("ListZones after Close = %v; want ErrInvalidArgument", err)
	}
	if err := h.ResetWP(0, false); !errors.Is(err, zbc.ErrInvalidArgument) {
		t.Errorf("ResetWP after Close = %v; want ErrInvalidArgument", err)
	}
	if _, err := h.PRead(make([]byte, 512), 0); !errors.Is(err, zbc.ErrInvalidArgument) {
		t.Errorf("PRead after Close = %v; want ErrInvalidArgument", err)
	}
}

func TestLastErrorTracksMostRecentFailure(t *testing.T) {
	h := openFake(t, 2048)
	if h.LastError() != nil {
		t.Fatalf("LastError before any call = %v; want nil", h.LastError())
	}

	// Sector 512 is not a zone boundary on a single-zone device, so
	// ResetWP should fail and record the failure.
	_ = h.ResetWP(512, false)
	if h.LastError() == nil {
		t.Fatal("LastError after a failing call = nil; want non-nil")
	}
}

func TestListZonesCountThenAllocate(t *testing.T) {
	h := openFake(t, 4096)

	zones, err := h.ListZones(0, zbc.ReportAll)
	if err != nil {
		t.Fatalf("ListZones: %v", err)
	}
	if len(zones) != 1 {
		t.Fatalf("got %d zones; want 1", len(zones))
	}
	if zones[0].Length != 4096 {
		t.Errorf("zone length = %d; want 4096", zones[0].Length)
	}
}

func TestReportZonesPastCapacityReturnsNoneWithoutError(t *testing.T) {
	h := openFake(t, 1024)
	n, err := h.NumZones(1024, zbc.ReportAll)
	if err != nil {
		t.Fatalf("NumZones: %v", err)
	}
	if n != 0 {
		t.Errorf("NumZones(at capacity) = %d; want 0", n)
	}
}

func TestPReadvRejectsEmptyVector(t *testing.T) {
	h := openFake(t, 2048)
	if _, err := h.PReadv(nil, 0); !errors.Is(err, zbc.ErrInvalidArgument) {
		t.Errorf("PReadv(nil, 0) = %v; want ErrInvalidArgument", err)
	}
}

func TestPWriteThenPReadRoundTrip(t *testing.T) {
	h := openFake(t, 2048)

	want := []byte("the quick brown fox, 512 bytes padded out to a full sector......")
	buf := make([]byte, 512)
	copy(buf, want)

	if _, err := h.PWrite(buf, 0); err != nil {
		t.Fatalf("PWrite: %v", err)
	}
	got := make([]byte, 512)
	if _, err := h.PRead(got, 0); err != nil {
		t.Fatalf("PRead: %v", err)
	}
	if string(got[:len(want)]) != string(want) {
		t.Errorf("read back %q; want %q", got[:len(want)], want)
	}
}

func TestInfoReflectsBackendCapabilities(t *testing.T) {
	h := openFake(t, 4096)
	info := h.Info()
	if info.Transport != zbc.TransportFake {
		t.Errorf("Transport = %s; want fake", info.Transport)
	}
	if info.Sectors != 4096 {
		t.Errorf("Sectors = %d; want 4096", info.Sectors)
	}
	if !info.UnrestrictedRead() {
		t.Error("UnrestrictedRead() = false; want true for the fake backend")
	}
}
