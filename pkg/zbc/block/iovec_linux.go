// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package block

import (
	"os"

	"golang.org/x/sys/unix"
)

func readvAt(f *os.File, bufs [][]byte, offset int64) (int64, error) {
	n, err := unix.Preadv(int(f.Fd()), bufs, offset)
	return int64(n), err
}

func writevAt(f *os.File, bufs [][]byte, offset int64) (int64, error) {
	n, err := unix.Pwritev(int(f.Fd()), bufs, offset)
	return int64(n), err
}
