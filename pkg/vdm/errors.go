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
	"fmt"

	"github.com/a2x/govdm/pkg/vdm/winsvc"
)

// ServiceErrorKind classifies a ServiceError. It is an alias of
// winsvc.ServiceErrorKind so callers working against pkg/vdm never need to
// import pkg/vdm/winsvc directly.
type ServiceErrorKind = winsvc.ServiceErrorKind

// ServiceError wraps a failure during service control manager interaction.
// It is an alias of winsvc.ServiceError; winsvc owns the type since it is
// the package actually talking to the SCM, and pkg/vdm re-exports it as
// part of its own error taxonomy (spec §7).
type ServiceError = winsvc.ServiceError

const (
	ServiceOther          = winsvc.ServiceOther
	ServiceAccessDenied   = winsvc.ServiceAccessDenied
	ServiceNotFound       = winsvc.ServiceNotFound
	ServiceAlreadyExists  = winsvc.ServiceAlreadyExists
	ServiceAlreadyRunning = winsvc.ServiceAlreadyRunning
)

// EnumerationError wraps a failure to read or parse the platform's physical
// memory resource descriptor.
type EnumerationError struct {
	Err error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumerate physical memory ranges: %v", e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// DeviceOpenError wraps a failure to open a driver's device node.
type DeviceOpenError struct {
	Path string
	Err  error
}

func (e *DeviceOpenError) Error() string {
	return fmt.Sprintf("open device %s: %v", e.Path, e.Err)
}

func (e *DeviceOpenError) Unwrap() error { return e.Err }

// MapFailedError wraps a driver rejection of a map request.
type MapFailedError struct {
	PhysAddr uint64
	Err      error
}

func (e *MapFailedError) Error() string {
	return fmt.Sprintf("map physical address %#x: %v", e.PhysAddr, e.Err)
}

func (e *MapFailedError) Unwrap() error { return e.Err }

// UnmapFailedError wraps a driver rejection of an unmap request.
type UnmapFailedError struct {
	VirtAddr uint64
	Err      error
}

func (e *UnmapFailedError) Error() string {
	return fmt.Sprintf("unmap virtual address %#x: %v", e.VirtAddr, e.Err)
}

func (e *UnmapFailedError) Unwrap() error { return e.Err }

// PlatformIOError wraps an underlying OS-level I/O failure that doesn't fit
// one of the more specific kinds above (a registry handle leak, a short
// read from a section of the resource descriptor, and so on).
type PlatformIOError struct {
	Op  string
	Err error
}

func (e *PlatformIOError) Error() string {
	return fmt.Sprintf("platform io: %s: %v", e.Op, e.Err)
}

func (e *PlatformIOError) Unwrap() error { return e.Err }

// ErrUnsupportedPlatform is returned by the range enumerator on platforms
// other than Windows, where no resource descriptor exists to read.
var ErrUnsupportedPlatform = fmt.Errorf("vdm: range enumeration is only supported on windows")
