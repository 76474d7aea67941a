// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

// Package block is Linux-only: the native zoned-block ioctls it wraps
// (blkzoned.h) do not exist on other kernels. On any other GOOS this
// package registers nothing, so Open's driver filter can still request
// DrvBlock without error -- it just never matches a device.
package block
