// Copyright 2018 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vdm

import (
	"encoding/binary"
	"testing"
)

// cmFixtureBuilder assembles a packed CM_RESOURCE_LIST buffer for tests,
// one CM_FULL descriptor holding an arbitrary number of CM_PARTIAL records.
type cmFixtureBuilder struct {
	partials []byte
	count    uint32
}

func (b *cmFixtureBuilder) addPartial(typ uint8, flags uint16, start, size uint64) *cmFixtureBuilder {
	var rec [20]byte
	rec[0] = typ
	rec[1] = 0 // share_disposition
	binary.LittleEndian.PutUint16(rec[2:], flags)
	binary.LittleEndian.PutUint64(rec[4:], start)
	binary.LittleEndian.PutUint64(rec[12:], size)
	b.partials = append(b.partials, rec[:]...)
	b.count++
	return b
}

func (b *cmFixtureBuilder) build() []byte {
	var buf []byte

	// CM_RESOURCE_LIST.count = 1 full descriptor.
	var fullCount [4]byte
	binary.LittleEndian.PutUint32(fullCount[:], 1)
	buf = append(buf, fullCount[:]...)

	// CM_FULL_RESOURCE_DESCRIPTOR: interface_type + bus_number.
	buf = append(buf, make([]byte, 8)...)

	// CM_PARTIAL_RESOURCE_LIST header: version, revision, count.
	buf = append(buf, make([]byte, 4)...)
	var partialCount [4]byte
	binary.LittleEndian.PutUint32(partialCount[:], b.count)
	buf = append(buf, partialCount[:]...)

	buf = append(buf, b.partials...)

	return buf
}

func TestParseCmResourceListMemory(t *testing.T) {
	buf := (&cmFixtureBuilder{}).addPartial(cmResourceTypeMemory, 0, 0x0, 0x1000).build()

	ranges, err := parseCmResourceList(buf)
	if err != nil {
		t.Fatalf("parseCmResourceList: %v", err)
	}
	if len(ranges) != 1 {
		t.Fatalf("got %d ranges, want 1", len(ranges))
	}
	if got, want := ranges[0], (PhysRange{Addr: 0x0, Size: 0x1000}); got != want {
		t.Fatalf("got range %+v, want %+v", got, want)
	}
}

func TestParseCmResourceListMemoryLargeScaling(t *testing.T) {
	// Scenario E: raw size 2, flag Large48 (0x400) -> 2 << 16 = 0x20000.
	buf := (&cmFixtureBuilder{}).addPartial(cmResourceTypeMemoryLarge, cmResourceMemoryLarge48, 0x1000, 2).build()

	ranges, err := parseCmResourceList(buf)
	if err != nil {
		t.Fatalf("parseCmResourceList: %v", err)
	}
	if len(ranges) != 1 {
		t.Fatalf("got %d ranges, want 1", len(ranges))
	}
	if got, want := ranges[0].Size, uint64(0x20000); got != want {
		t.Fatalf("got size %#x, want %#x", got, want)
	}
}

func TestParseCmResourceListLarge64(t *testing.T) {
	buf := (&cmFixtureBuilder{}).addPartial(cmResourceTypeMemoryLarge, cmResourceMemoryLarge64, 0x0, 1).build()

	ranges, err := parseCmResourceList(buf)
	if err != nil {
		t.Fatalf("parseCmResourceList: %v", err)
	}
	if got, want := ranges[0].Size, uint64(1)<<32; got != want {
		t.Fatalf("got size %#x, want %#x", got, want)
	}
}

func TestParseCmResourceListUnknownTypeAborts(t *testing.T) {
	buf := (&cmFixtureBuilder{}).
		addPartial(99, 0, 0x0, 0x1000).
		addPartial(cmResourceTypeMemory, 0, 0x2000, 0x1000).
		build()

	ranges, err := parseCmResourceList(buf)
	if err != nil {
		t.Fatalf("parseCmResourceList: %v", err)
	}
	if len(ranges) != 0 {
		t.Fatalf("got %d ranges, want 0 (unknown type should abort the descriptor)", len(ranges))
	}
}

func TestParseCmResourceListMultiple(t *testing.T) {
	buf := (&cmFixtureBuilder{}).
		addPartial(cmResourceTypeMemory, 0, 0x0, 0x1000).
		addPartial(cmResourceTypeMemory, 0, 0x100000, 0x2000).
		build()

	ranges, err := parseCmResourceList(buf)
	if err != nil {
		t.Fatalf("parseCmResourceList: %v", err)
	}
	if len(ranges) != 2 {
		t.Fatalf("got %d ranges, want 2", len(ranges))
	}
}
