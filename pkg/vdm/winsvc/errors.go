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

package winsvc

import "fmt"

// ServiceErrorKind classifies a ServiceError.
type ServiceErrorKind int

const (
	// ServiceOther is any service-control failure not covered by a more
	// specific kind.
	ServiceOther ServiceErrorKind = iota
	// ServiceAccessDenied means the caller lacks privilege for the SCM
	// operation attempted.
	ServiceAccessDenied
	// ServiceNotFound means CreateOrOpen was asked to open a service that
	// does not exist.
	ServiceNotFound
	// ServiceAlreadyExists means a create attempt raced an existing service
	// of the same name.
	ServiceAlreadyExists
	// ServiceAlreadyRunning is not returned by this package: Service.Start
	// treats an already running service as success.
	ServiceAlreadyRunning
)

func (k ServiceErrorKind) String() string {
	switch k {
	case ServiceAccessDenied:
		return "access denied"
	case ServiceNotFound:
		return "not found"
	case ServiceAlreadyExists:
		return "already exists"
	case ServiceAlreadyRunning:
		return "already running"
	default:
		return "other"
	}
}

// ServiceError wraps a failure during service control manager interaction.
type ServiceError struct {
	Kind ServiceErrorKind
	Op   string
	Err  error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("service %s: %s", e.Op, e.Kind)
}

func (e *ServiceError) Unwrap() error { return e.Err }
