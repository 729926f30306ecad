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
	"context"
	"testing"
)

// Scenario A: a single range maps to a single table entry.
func TestMappingCacheSingleRange(t *testing.T) {
	drv := newMockDriver()
	c := NewMappingCache(drv)

	ranges := []PhysRange{{Addr: 0x0, Size: 0x1000}}
	if err := c.MapRanges(context.Background(), ranges); err != nil {
		t.Fatalf("MapRanges: %v", err)
	}

	table := c.AddressMap()
	if got, want := table.Len(), 1; got != want {
		t.Fatalf("got %d table entries, want %d", got, want)
	}
	if drv.mapCallCount() != 1 {
		t.Fatalf("got %d map calls, want 1", drv.mapCallCount())
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if drv.unmapCallCount() != 1 {
		t.Fatalf("got %d unmap calls, want 1", drv.unmapCallCount())
	}
}

// Scenario B: two disjoint ranges both survive into the table.
func TestMappingCacheTwoRanges(t *testing.T) {
	drv := newMockDriver()
	c := NewMappingCache(drv)

	ranges := []PhysRange{
		{Addr: 0x0, Size: 0x1000},
		{Addr: 0x100000, Size: 0x2000},
	}
	if err := c.MapRanges(context.Background(), ranges); err != nil {
		t.Fatalf("MapRanges: %v", err)
	}

	table := c.AddressMap()
	if got, want := table.Len(), 2; got != want {
		t.Fatalf("got %d table entries, want %d", got, want)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got, want := drv.unmapCallCount(), 2; got != want {
		t.Fatalf("got %d unmap calls, want %d", got, want)
	}
}

// Scenario C / invariant 3: a failure on the second of two ranges rolls
// back exactly the mappings collected before the failure, and MapRanges
// returns an error with no table produced.
func TestMappingCacheRollbackOnPartialFailure(t *testing.T) {
	drv := newMockDriver()
	drv.mapFailAt = 1 // fail the second Map call
	c := NewMappingCache(drv)

	ranges := []PhysRange{
		{Addr: 0x0, Size: 0x1000},
		{Addr: 0x100000, Size: 0x2000},
	}
	err := c.MapRanges(context.Background(), ranges)
	if err == nil {
		t.Fatal("MapRanges: got nil error, want failure")
	}

	mapErr, ok := err.(*MapFailedError)
	if !ok {
		t.Fatalf("got error %v, want *MapFailedError", err)
	}
	if got, want := mapErr.PhysAddr, uint64(0x100000); got != want {
		t.Fatalf("got failing address %#x, want %#x", got, want)
	}

	if got, want := drv.unmapCallCount(), 1; got != want {
		t.Fatalf("got %d unmap calls during rollback, want %d", got, want)
	}
	if got, want := c.AddressMap().Len(), 0; got != want {
		t.Fatalf("got %d table entries after failed MapRanges, want %d", got, want)
	}
}

// Scenario D: mapping zero ranges produces an empty table and no calls.
func TestMappingCacheEmptyRanges(t *testing.T) {
	drv := newMockDriver()
	c := NewMappingCache(drv)

	if err := c.MapRanges(context.Background(), nil); err != nil {
		t.Fatalf("MapRanges: %v", err)
	}
	if got, want := c.AddressMap().Len(), 0; got != want {
		t.Fatalf("got %d table entries, want %d", got, want)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if drv.mapCallCount() != 0 || drv.unmapCallCount() != 0 {
		t.Fatalf("got %d map / %d unmap calls, want 0/0", drv.mapCallCount(), drv.unmapCallCount())
	}
}

func TestMappingCacheMapSystemRanges(t *testing.T) {
	drv := newMockDriver()
	c := NewMappingCache(drv)
	enum := mockEnumerator{ranges: []PhysRange{{Addr: 0x0, Size: 0x1000}}}

	if err := c.MapSystemRanges(context.Background(), enum); err != nil {
		t.Fatalf("MapSystemRanges: %v", err)
	}
	if got, want := c.AddressMap().Len(), 1; got != want {
		t.Fatalf("got %d table entries, want %d", got, want)
	}
}

func TestMappingCacheMapSystemRangesEnumerationError(t *testing.T) {
	drv := newMockDriver()
	c := NewMappingCache(drv)
	enum := mockEnumerator{err: ErrUnsupportedPlatform}

	if err := c.MapSystemRanges(context.Background(), enum); err == nil {
		t.Fatal("MapSystemRanges: got nil error, want enumeration failure")
	}
}
