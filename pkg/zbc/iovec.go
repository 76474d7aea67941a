// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zbc

// IOVec is one scatter/gather entry, sized in 512-byte sectors to match
// every other quantity the public API deals in. Backends are responsible
// for converting to and from byte-addressed buffers over their own
// transport.
type IOVec struct {
	Base []byte
	Len  uint64 // sectors
}

// iovSectors sums the sector lengths across iov, the Go analogue of
// zbc_iov_count.
func iovSectors(iov []IOVec) uint64 {
	var n uint64
	for _, v := range iov {
		n += v.Len
	}
	return n
}

// convertIOV re-slices iov (whose lengths are in sectors, relative to the
// start of the overall transfer) down to the byte ranges covering
// [sectorOffset, sectorOffset+sectors), clamped at each vector's own
// bounds. Ported from zbc_iov_convert, which re-expresses the same
// re-slicing arithmetic in C pointer terms.
func convertIOV(iov []IOVec, sectorOffset, sectors uint64) []IOVec {
	size := sectors << 9
	offset := sectorOffset << 9
	var count uint64
	out := make([]IOVec, 0, len(iov))

	for _, v := range iov {
		if count >= size {
			break
		}
		length := v.Len << 9
		if offset >= length {
			offset -= length
			continue
		}

		base := v.Base[offset:]
		length -= offset
		offset = 0

		if count+length > size {
			length = size - count
		}
		out = append(out, IOVec{Base: base[:length], Len: length >> 9})
		count += length
	}

	return out
}
