// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zbc

// flags carried on the Handle to know whether it was opened with TestMode,
// without threading OpenFlags through every I/O call. Set by Open.

// PRead reads count sectors into buf starting at sector offset.
func (h *Handle) PRead(buf []byte, offset uint64) (int64, error) {
	return h.PReadv([]IOVec{{Base: buf, Len: uint64(len(buf)) >> 9}}, offset)
}

// PWrite writes buf (a whole number of sectors) starting at sector offset.
func (h *Handle) PWrite(buf []byte, offset uint64) (int64, error) {
	return h.PWritev([]IOVec{{Base: buf, Len: uint64(len(buf)) >> 9}}, offset)
}

// PReadv performs a chunked, alignment-checked vector read, ported from
// zbc_do_preadv. Unlike the C original this never returns with an
// uninitialized result: every early-return path is given an explicit
// value.
func (h *Handle) PReadv(iov []IOVec, offset uint64) (int64, error) {
	return h.doIOV(iov, offset, h.backend.Info().LogicalBlockSize, Backend.PReadv)
}

// PWritev performs a chunked, alignment-checked vector write, ported from
// zbc_do_pwritev. Write alignment is checked against the physical block
// size rather than the logical one, since a partial physical block write
// can trigger a read-modify-write cycle the device is not obliged to
// perform transparently for sequential zones.
func (h *Handle) PWritev(iov []IOVec, offset uint64) (int64, error) {
	return h.doIOV(iov, offset, h.backend.Info().PhysicalBlockSize, Backend.PWritev)
}

type iovOp func(Backend, []IOVec, uint64) (int64, error)

func (h *Handle) doIOV(iov []IOVec, offset uint64, blockSize uint32, op iovOp) (int64, error) {
	if err := h.checkOpen(); err != nil {
		return 0, err
	}
	if len(iov) == 0 {
		return 0, h.record(&Error{Kind: KindInvalidArgument, Device: h.filename})
	}

	info := h.backend.Info()
	count := iovSectors(iov)
	testMode := h.testMode

	alignedSectors := blockSize <= 512 || (512*count)%uint64(blockSize) == 0
	alignedOffset := blockSize <= 512 || (512*offset)%uint64(blockSize) == 0

	if !testMode {
		if !alignedSectors || !alignedOffset {
			return 0, h.record(&Error{Kind: KindInvalidArgument, Device: h.filename})
		}
		if offset+count > info.Sectors {
			count = info.Sectors - offset
		}
		if count == 0 || offset >= info.Sectors {
			return 0, nil
		}
	}

	if testMode && count == 0 {
		n, err := op(h.backend, convertIOV(iov, 0, 0), offset)
		return n, h.record(err)
	}

	maxCount := info.MaxRWSectors
	if maxCount == 0 {
		maxCount = count
	}

	var done uint64
	for done < count {
		chunk := count - done
		if chunk > maxCount {
			chunk = maxCount
		}
		sub := convertIOV(iov, done, chunk)
		n, err := op(h.backend, sub, offset)
		if n <= 0 {
			if err == nil {
				err = ErrIO
			}
			return int64(done) << 9, h.record(err)
		}
		sectors := uint64(n) >> 9
		offset += sectors
		done += sectors
	}

	return int64(count) << 9, nil
}
