// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zbc

import "fmt"

// ZoneFlags is a bitset of per-zone flags.
type ZoneFlags uint8

const (
	ZoneFlagResetRecommended ZoneFlags = 1 << iota
	ZoneFlagNonSeqWrite
)

// Zone is a single zone descriptor, in 512-byte sector units.
type Zone struct {
	Start         uint64
	Length        uint64
	WritePointer  uint64
	Type          ZoneType
	Condition     ZoneCondition
	Flags         ZoneFlags
}

func (z *Zone) String() string {
	return fmt.Sprintf("start=%d length=%d wp=%d type=%s cond=%s",
		z.Start, z.Length, z.WritePointer, z.Type, z.Condition)
}

// End returns the sector just past the zone (Start + Length).
func (z *Zone) End() uint64 { return z.Start + z.Length }

// NeedsReset reports the reset-recommended flag.
func (z *Zone) NeedsReset() bool { return z.Flags&ZoneFlagResetRecommended != 0 }

// NonSeq reports the non-sequential-write flag (a sequential-write-preferred
// zone that has been written out of order).
func (z *Zone) NonSeq() bool { return z.Flags&ZoneFlagNonSeqWrite != 0 }

// IsWritePointerZone reports whether this zone carries a meaningful write
// pointer (anything but "not write pointer", i.e. conventional zones).
func (z *Zone) IsWritePointerZone() bool { return z.Condition != ZoneConditionNotWP }
