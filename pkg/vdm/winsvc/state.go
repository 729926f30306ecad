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

// Package winsvc wraps the Windows service control manager with the small
// surface a vulnerable-driver loader needs: create-or-open a kernel-driver
// service, start it, query its state, stop it.
package winsvc

// State mirrors SERVICE_STATUS_CURRENT_STATE. Only
// Stopped -> StartPending -> Running and Running -> StopPending -> Stopped
// are exercised by this package; the others are reachable only if some
// other actor drives the service concurrently. Numeric values match
// golang.org/x/sys/windows/svc.State exactly, so converting a query result
// is a plain cast.
type State uint32

const (
	Unknown         State = 0
	Stopped         State = 1
	StartPending    State = 2
	StopPending     State = 3
	Running         State = 4
	ContinuePending State = 5
	PausePending    State = 6
	Paused          State = 7
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case StartPending:
		return "start pending"
	case StopPending:
		return "stop pending"
	case Running:
		return "running"
	case ContinuePending:
		return "continue pending"
	case PausePending:
		return "pause pending"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}
