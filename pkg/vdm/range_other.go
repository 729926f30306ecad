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

package vdm

// unsupportedEnumerator is installed on non-Windows builds, where there is
// no resource descriptor to read. The library has no non-Windows
// enumerator; every call fails immediately.
type unsupportedEnumerator struct{}

// NewEnumerator returns the platform's range enumerator.
func NewEnumerator() Enumerator {
	return unsupportedEnumerator{}
}

// Enumerate implements Enumerator.
func (unsupportedEnumerator) Enumerate() ([]PhysRange, error) {
	return nil, ErrUnsupportedPlatform
}
