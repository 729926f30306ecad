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

//go:build !windows

package winio

import (
	"github.com/a2x/govdm/pkg/vdm"
)

const devicePath = `\\.\WinIo`

// Driver is a non-functional stand-in on platforms other than Windows.
type Driver struct{}

// Open always fails on non-Windows platforms.
func Open() (*Driver, error) {
	return nil, &vdm.DeviceOpenError{Path: devicePath, Err: vdm.ErrUnsupportedPlatform}
}

func (d *Driver) Close() error { return nil }

func (d *Driver) Map(addr uint64, size uint64) (vdm.Mapping, error) {
	return vdm.Mapping{}, &vdm.MapFailedError{PhysAddr: addr, Err: vdm.ErrUnsupportedPlatform}
}

func (d *Driver) Unmap(m vdm.Mapping) error {
	return &vdm.UnmapFailedError{VirtAddr: uint64(m.VirtAddr), Err: vdm.ErrUnsupportedPlatform}
}
