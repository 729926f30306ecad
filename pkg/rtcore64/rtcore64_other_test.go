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

package rtcore64

import (
	"testing"

	"github.com/a2x/govdm/pkg/vdm"
)

func TestOpenUnsupportedPlatform(t *testing.T) {
	if _, err := Open(); err == nil {
		t.Fatal("Open: got nil error on a non-Windows platform, want failure")
	}
}

func TestMapUnmapUnsupportedPlatform(t *testing.T) {
	d := &Driver{}
	if _, err := d.Map(0x1000, 0x1000); err == nil {
		t.Fatal("Map: got nil error on a non-Windows platform, want failure")
	}
	if err := d.Unmap(vdm.Mapping{VirtAddr: 0x2000}); err == nil {
		t.Fatal("Unmap: got nil error on a non-Windows platform, want failure")
	}
}
