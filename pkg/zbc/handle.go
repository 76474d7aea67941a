// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zbc

import "sync"

// Handle is an open device. It owns exactly one backend and must be closed
// exactly once; it is not safe to copy (mirrors the opaque zbc_device
// handle of the original C library, which callers only ever touch through
// a pointer).
type Handle struct {
	filename string
	backend  Backend
	testMode bool

	mu        sync.Mutex
	closed    bool
	lastError *Error
}

// Filename returns the path Open was called with (before symlink
// resolution).
func (h *Handle) Filename() string { return h.filename }

// Info returns the device's identity and capabilities.
func (h *Handle) Info() *DeviceInfo { return h.backend.Info() }

// Close releases the underlying backend. Calling Close more than once
// returns nil without touching the backend again.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return h.backend.Close()
}

// LastError returns the most recent *Error recorded against this handle, or
// nil if every call so far has succeeded. This is the Go rendering of the
// original library's task-local zbc_errno: rather than thread-local storage
// keyed on an opaque device pointer, the record lives directly on the
// Handle it describes and is guarded by a per-handle mutex, so concurrent
// callers sharing a Handle each see a consistent (if possibly stale) view.
func (h *Handle) LastError() *Error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastError
}

// record stores err (if it is a *Error) as the handle's last error and
// returns it unchanged, so call sites can write `return h.record(err)`.
func (h *Handle) record(err error) error {
	if err == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if zerr, ok := err.(*Error); ok {
		h.lastError = zerr
	} else {
		h.lastError = &Error{Kind: KindIO, Device: h.filename, Err: err}
	}
	return err
}

func (h *Handle) checkOpen() error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return h.record(&Error{Kind: KindInvalidArgument, Device: h.filename})
	}
	return nil
}
