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

package vdm

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/windows/registry"
)

const (
	physMemKeyPath = `HARDWARE\RESOURCEMAP\System Resources\Physical Memory`
	physMemValue   = ".Translated"
)

// RegistryEnumerator reads the physical memory resource descriptor from
// HKLM\HARDWARE\RESOURCEMAP\System Resources\Physical Memory, interprets it
// as a packed CM_RESOURCE_LIST, and yields Memory/MemoryLarge ranges in
// enumeration order.
type RegistryEnumerator struct{}

// NewEnumerator returns the platform's range enumerator.
func NewEnumerator() Enumerator {
	return RegistryEnumerator{}
}

// Enumerate implements Enumerator.
func (RegistryEnumerator) Enumerate() ([]PhysRange, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, physMemKeyPath, registry.QUERY_VALUE)
	if err != nil {
		return nil, &EnumerationError{Err: errors.Wrap(err, "open physical memory resource map key")}
	}
	defer key.Close()

	buf, _, err := key.GetBinaryValue(physMemValue)
	if err != nil {
		return nil, &EnumerationError{Err: errors.Wrap(err, "read .Translated value")}
	}

	ranges, err := parseCmResourceList(buf)
	if err != nil {
		return nil, &EnumerationError{Err: errors.Wrap(err, "parse CM_RESOURCE_LIST")}
	}

	return ranges, nil
}
