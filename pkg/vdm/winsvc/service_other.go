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

// Service is a stand-in on non-Windows platforms, where there is no
// service control manager to talk to. Every method except Close (a no-op)
// fails with ErrUnsupportedPlatform.
type Service struct{}

func (*Service) Start() error               { return ErrUnsupportedPlatform }
func (*Service) Stop() error                { return ErrUnsupportedPlatform }
func (*Service) Delete() error              { return ErrUnsupportedPlatform }
func (*Service) QueryState() (State, error) { return Unknown, ErrUnsupportedPlatform }
func (*Service) Close() error               { return nil }
