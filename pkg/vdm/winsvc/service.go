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

package winsvc

import (
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

// Service is a created or opened Windows service, typically backing a
// kernel-mode driver.
type Service struct {
	handle *mgr.Service
}

// Start starts the service. The current state is queried first; if it's
// already Running, Start returns success without issuing a start request
// (idempotent start). Start does not wait for or poll transient states.
func (s *Service) Start() error {
	state, err := s.QueryState()
	if err != nil {
		return err
	}
	if state == Running {
		return nil
	}

	if err := s.handle.Start(); err != nil {
		return &ServiceError{Kind: ServiceOther, Op: "start", Err: err}
	}
	return nil
}

// Stop issues the stop control code. Failures here are typically recorded
// by the caller (a TranslationContext's teardown) and not raised further;
// Stop itself still reports the error so the caller can log it.
func (s *Service) Stop() error {
	if _, err := s.handle.Control(svc.Stop); err != nil {
		return &ServiceError{Kind: ServiceOther, Op: "stop", Err: err}
	}
	return nil
}

// Delete marks the service for deletion. Actual removal is deferred until
// every open handle (including this one) is closed. Callers are not
// required to invoke this.
func (s *Service) Delete() error {
	if err := s.handle.Delete(); err != nil {
		return &ServiceError{Kind: ServiceOther, Op: "delete", Err: err}
	}
	return nil
}

// QueryState queries the service's current state.
func (s *Service) QueryState() (State, error) {
	status, err := s.handle.Query()
	if err != nil {
		return Unknown, &ServiceError{Kind: ServiceOther, Op: "query_state", Err: err}
	}
	return State(status.State), nil
}

// Close releases the handle to the service. It does not stop or delete it.
func (s *Service) Close() error {
	return s.handle.Close()
}
