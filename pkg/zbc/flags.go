// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zbc

// OpenFlags is the bitmask accepted by Open: a driver-filter sub-mask
// (which backends are acceptable) plus a test-mode bit that relaxes
// alignment and zero-length checks.
type OpenFlags uint32

const (
	DrvBlock OpenFlags = 1 << iota
	DrvSCSI
	DrvATA
	DrvFake

	// drvMaskBits covers every bit DriverFilter() should consider; bits
	// outside it (e.g. TestMode) are not part of the filter.
	drvMaskBits = DrvBlock | DrvSCSI | DrvATA | DrvFake

	// TestMode relaxes alignment checks and allows zero-length transfers,
	// to exercise command-framing edge cases.
	TestMode OpenFlags = 1 << 8
)

// DriverFilter returns the backend-selection sub-mask, treating an absent
// filter (no Drv* bits set) as "all drivers allowed".
func (f OpenFlags) DriverFilter() OpenFlags {
	m := f & drvMaskBits
	if m == 0 {
		return drvMaskBits
	}
	return m
}

// Allows reports whether the driver filter in f permits the given backend
// capability bit (one of DrvBlock/DrvSCSI/DrvATA/DrvFake).
func (f OpenFlags) Allows(drv OpenFlags) bool {
	return f.DriverFilter()&drv != 0
}

// IsTestMode reports whether the test-mode relaxation bit is set.
func (f OpenFlags) IsTestMode() bool { return f&TestMode != 0 }

// ReportingOption selects which zone conditions a report_zones call should
// return. Only the low 4 bits are significant on the wire; the
// partial-results bit is added by the reporter itself and is not part of
// this type.
type ReportingOption uint8

const (
	ReportAll ReportingOption = iota
	ReportEmpty
	ReportImplicitOpen
	ReportExplicitOpen
	ReportClosed
	ReportFull
	ReportReadOnly
	ReportOffline
	ReportResetRecommended
	ReportNonSequential
	ReportNotWritePointer

	// reportOptionMask is the low-four-bits mask the wire format allows.
	reportOptionMask ReportingOption = 0x0F
)

// Mask returns the low-four-bits wire value for this reporting option.
func (r ReportingOption) Mask() uint8 { return uint8(r) & uint8(reportOptionMask) }
