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

// Package vdm provides the driver-agnostic core of a virtual-mapped-device-
// memory connector: range enumeration, the mapping cache, the address-
// translation context, and the connector builder that ties them together.
package vdm

// PhysRange is a contiguous interval of host physical memory reported by
// the platform as backed by actual RAM.
type PhysRange struct {
	Addr uint64
	Size uint64
}

// End returns the address one past the end of the range.
func (r PhysRange) End() uint64 { return r.Addr + r.Size }

// Mapping pairs a physical range with the userspace virtual-address window
// a Driver produced for it. Cookie carries whatever adapter-private state
// the driver needs to hand back to Unmap (the virtual address alone for
// RTCore64, section and object handles for WinIo); the cache never
// inspects it.
type Mapping struct {
	PhysAddr uint64
	Size     uint64
	VirtAddr uintptr
	Cookie   any
}

// Driver is the capability a concrete kernel-driver adapter must provide.
// Implementations must be safe for concurrent Map/Unmap calls on distinct
// mappings; the core never calls Unmap twice for the same Mapping.
type Driver interface {
	// Map requests that [addr, addr+size) be mapped into the caller's
	// virtual address space. size need not be page-aligned; an adapter
	// may round up internally as long as the returned Mapping.Size stays
	// accurate.
	Map(addr uint64, size uint64) (Mapping, error)

	// Unmap releases a mapping previously returned by Map.
	Unmap(m Mapping) error
}

// Enumerator yields the physical memory ranges present on the host.
type Enumerator interface {
	Enumerate() ([]PhysRange, error)
}
