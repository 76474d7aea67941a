// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zbc

import (
	"errors"
	"fmt"
)

// ErrorKind is the error taxonomy every backend reports through. NotMine is
// internal only and never surfaces to a caller.
type ErrorKind uint8

const (
	KindNone ErrorKind = iota
	// KindNotMine signals "wrong transport, try the next backend" during
	// probing. Never returned from a public entry point.
	KindNotMine
	KindNoSuchDevice
	KindInvalidArgument
	KindIO
	KindUnsupported
	KindOutOfMemory
	KindPermission
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotMine:
		return "not mine"
	case KindNoSuchDevice:
		return "no such device"
	case KindInvalidArgument:
		return "invalid argument"
	case KindIO:
		return "I/O error"
	case KindUnsupported:
		return "unsupported"
	case KindOutOfMemory:
		return "out of memory"
	case KindPermission:
		return "permission denied"
	default:
		return "no error"
	}
}

// Error is the task-local error record: a taxonomy kind plus, if the
// failure came from a SCSI/ATA transport, the sense key and ASC/ASCQ pair
// the device returned.
type Error struct {
	Kind ErrorKind

	// Device is the filename the failing operation was issued against,
	// for diagnostics.
	Device string

	// HasSense reports whether SenseKey/ASCASCQ were populated by the
	// transport that produced this error.
	HasSense bool
	SenseKey SenseKey
	ASCASCQ  ASCASCQ

	// Err, if non-nil, is the underlying cause (a syscall error, an
	// io error, etc).
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Kind.String()
	if e.Device != "" {
		msg = fmt.Sprintf("%s: %s", e.Device, msg)
	}
	if e.HasSense {
		msg = fmt.Sprintf("%s (sense key: %s, asc/ascq: %s)", msg, e.SenseKey, e.ASCASCQ)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, zbc.ErrNoSuchDevice) to match any *Error sharing
// that Kind, regardless of the device/sense/cause payload.
func (e *Error) Is(target error) bool {
	var kindOnly *Error
	if errors.As(target, &kindOnly) {
		return e.Kind == kindOnly.Kind
	}
	return false
}

// newErr builds an *Error of the given kind, wrapping cause if non-nil.
func newErr(kind ErrorKind, device string, cause error) *Error {
	return &Error{Kind: kind, Device: device, Err: cause}
}

// Sentinel errors, one per ErrorKind, for errors.Is comparisons against a
// plain (no sense, no cause) instance of that kind.
var (
	ErrNotMine          = &Error{Kind: KindNotMine}
	ErrNoSuchDevice     = &Error{Kind: KindNoSuchDevice}
	ErrInvalidArgument  = &Error{Kind: KindInvalidArgument}
	ErrIO               = &Error{Kind: KindIO}
	ErrUnsupported      = &Error{Kind: KindUnsupported}
	ErrOutOfMemory      = &Error{Kind: KindOutOfMemory}
	ErrPermission       = &Error{Kind: KindPermission}
)
