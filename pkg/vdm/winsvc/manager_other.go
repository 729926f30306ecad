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

package winsvc

import "errors"

// ErrUnsupportedPlatform is returned by every winsvc operation on
// platforms other than Windows, where there is no service control manager.
var ErrUnsupportedPlatform = errors.New("winsvc: service control is only supported on windows")

// Manager is a stand-in on non-Windows platforms.
type Manager struct{}

// OpenLocalManager always fails on non-Windows platforms.
func OpenLocalManager() (*Manager, error) {
	return nil, ErrUnsupportedPlatform
}

// Close is a no-op stand-in.
func (*Manager) Close() error { return nil }

// CreateOrOpen always fails on non-Windows platforms.
func CreateOrOpen(*Manager, string, string) (*Service, error) {
	return nil, ErrUnsupportedPlatform
}
