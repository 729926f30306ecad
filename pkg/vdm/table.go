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
	"sort"
	"unsafe"
)

// tableEntry is one (phys_start, size, virt_start) record in a
// TranslationTable.
type tableEntry struct {
	physStart uint64
	size      uint64
	virtStart uintptr
}

// TranslationTable is the hot-path index from physical address to mapped
// userspace byte slice. It is built once, from a set of disjoint ranges,
// and is immutable and safe for concurrent lookup afterward.
type TranslationTable struct {
	entries []tableEntry
}

// newTranslationTable builds a table from the given mappings, sorted by
// physical start address for binary search. Mappings are assumed disjoint
// (I2); the table does not merge or validate overlap.
func newTranslationTable(mappings []Mapping) *TranslationTable {
	entries := make([]tableEntry, len(mappings))
	for i, m := range mappings {
		entries[i] = tableEntry{physStart: m.PhysAddr, size: m.Size, virtStart: m.VirtAddr}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].physStart < entries[j].physStart
	})

	return &TranslationTable{entries: entries}
}

// Len reports the number of disjoint ranges in the table.
func (t *TranslationTable) Len() int { return len(t.entries) }

// Lookup returns the userspace byte slice backing [phys, phys+size), if the
// entire range falls within a single mapped entry. The slice aliases live
// mapped memory; callers must not retain it past the translation context's
// lifetime.
func (t *TranslationTable) Lookup(phys uint64, size uintptr) ([]byte, bool) {
	entries := t.entries

	// Find the last entry whose physStart is <= phys.
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].physStart > phys
	}) - 1

	if i < 0 || i >= len(entries) {
		return nil, false
	}

	e := entries[i]
	if phys < e.physStart || phys+uint64(size) > e.physStart+e.size {
		return nil, false
	}

	off := phys - e.physStart
	ptr := unsafe.Pointer(e.virtStart + uintptr(off))

	return unsafe.Slice((*byte)(ptr), size), true
}

// clone returns a shallow copy of the table's entry slice. Used by
// TranslationContext.Clone, which shares the underlying mapped memory but
// duplicates the small index describing it.
func (t *TranslationTable) clone() *TranslationTable {
	entries := make([]tableEntry, len(t.entries))
	copy(entries, t.entries)
	return &TranslationTable{entries: entries}
}
