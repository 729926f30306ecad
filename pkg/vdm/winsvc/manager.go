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
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc/mgr"
)

var log = logrus.WithField("component", "winsvc")

// Manager wraps a handle to the local service control manager.
type Manager struct {
	m *mgr.Mgr
}

// OpenLocalManager opens the service control manager on the local computer
// with rights sufficient to create and start services. It fails with a
// *ServiceError{Kind: AccessDenied} if the calling process lacks privilege
// (typically: the process isn't elevated).
func OpenLocalManager() (*Manager, error) {
	m, err := mgr.Connect()
	if err != nil {
		return nil, serviceError(err, "open_local")
	}
	return &Manager{m: m}, nil
}

// Close releases the manager handle.
func (m *Manager) Close() error {
	return m.m.Disconnect()
}

// scmRetryPolicy bounds the backoff used for transient SCM collisions (the
// database is briefly locked by another installer immediately after a
// driver package is laid down). A handful of short attempts is enough to
// ride out a concurrent installer without the caller needing its own retry
// loop, and it does not change the documented failure semantics: once the
// budget is exhausted the same error taxonomy below is still what comes
// back.
func scmRetryPolicy() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 3 * time.Second
	return b
}

// CreateOrOpen creates a demand-start, error-ignore kernel-driver service
// named name backed by imagePath, or, if imagePath is empty, opens an
// existing service of that name. If imagePath is given and a service of
// that name already exists, the existing service is opened instead of
// failing.
func CreateOrOpen(m *Manager, name, imagePath string) (*Service, error) {
	if imagePath == "" {
		s, err := openExisting(m, name)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	var svc *mgr.Service
	op := func() error {
		s, err := m.m.CreateService(name, imagePath, mgr.Config{
			ServiceType:  windows.SERVICE_KERNEL_DRIVER,
			StartType:    mgr.StartManual,
			ErrorControl: mgr.ErrorIgnore,
			DisplayName:  name,
		})
		if err == nil {
			svc = s
			return nil
		}

		if errIsServiceExists(err) {
			existing, openErr := m.m.OpenService(name)
			if openErr != nil {
				return backoff.Permanent(&ServiceError{Kind: ServiceOther, Op: "open_service", Err: openErr})
			}
			svc = existing
			return nil
		}

		if errIsAccessDenied(err) {
			return backoff.Permanent(&ServiceError{Kind: ServiceAccessDenied, Op: "create_service", Err: err})
		}

		// Anything else is assumed transient (SCM database lock contention)
		// and retried within the bounded policy above.
		log.WithError(err).WithField("service", name).Debug("create_service failed, retrying")
		return err
	}

	if err := backoff.Retry(op, scmRetryPolicy()); err != nil {
		if se, ok := err.(*ServiceError); ok {
			return nil, se
		}
		return nil, &ServiceError{Kind: ServiceOther, Op: "create_service", Err: err}
	}

	return &Service{handle: svc}, nil
}

func openExisting(m *Manager, name string) (*Service, error) {
	s, err := m.m.OpenService(name)
	if err != nil {
		if errIsServiceNotFound(err) {
			return nil, &ServiceError{Kind: ServiceNotFound, Op: "open_service", Err: err}
		}
		if errIsAccessDenied(err) {
			return nil, &ServiceError{Kind: ServiceAccessDenied, Op: "open_service", Err: err}
		}
		return nil, &ServiceError{Kind: ServiceOther, Op: "open_service", Err: err}
	}
	return &Service{handle: s}, nil
}

func serviceError(err error, op string) *ServiceError {
	if errIsAccessDenied(err) {
		return &ServiceError{Kind: ServiceAccessDenied, Op: op, Err: err}
	}
	return &ServiceError{Kind: ServiceOther, Op: op, Err: err}
}

func errIsServiceExists(err error) bool {
	return err == windows.ERROR_SERVICE_EXISTS
}

func errIsServiceNotFound(err error) bool {
	return err == windows.ERROR_SERVICE_DOES_NOT_EXIST
}

func errIsAccessDenied(err error) bool {
	return err == windows.ERROR_ACCESS_DENIED
}
