// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Copyright 2021 Christian Svensson. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sgio

import (
	"encoding/binary"
	"testing"
)

func TestNativeEndianIsDetermined(t *testing.T) {
	e := NativeEndian()
	if e != binary.LittleEndian && e != binary.BigEndian {
		t.Fatalf("NativeEndian() = %v; want binary.LittleEndian or binary.BigEndian", e)
	}
}

func TestDirectionConstantsAreDistinct(t *testing.T) {
	dirs := []Direction{DirNone, DirToDevice, DirFromDevice, DirToFrom}
	seen := map[Direction]bool{}
	for _, d := range dirs {
		if seen[d] {
			t.Errorf("duplicate Direction value %d", d)
		}
		seen[d] = true
	}
}
