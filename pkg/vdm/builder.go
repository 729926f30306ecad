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

package vdm

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/a2x/govdm/pkg/vdm/winsvc"
)

var builderLog = logrus.WithField("component", "builder")

// InitDriverFunc constructs a Driver, typically by opening a handle to a
// freshly started service's device node.
type InitDriverFunc func() (Driver, error)

// ConnectorBuilder is a fluent builder that produces a ready-to-use
// Connector. Configuration order does not matter; Build() does the actual
// work, acquiring resources in a fixed order (service, then driver, then
// mappings) and rolling back everything already acquired if a later step
// fails.
type ConnectorBuilder struct {
	driver      Driver
	ranges      []PhysRange
	hasRanges   bool
	serviceName string
	imagePath   string
	initDriver  InitDriverFunc
	useService  bool
	cacheOpts   []CacheOption
}

// NewConnectorBuilder returns an empty ConnectorBuilder.
func NewConnectorBuilder() *ConnectorBuilder {
	return &ConnectorBuilder{}
}

// WithMemory sets the driver adapter directly. Required unless WithService
// is used to obtain one.
func (b *ConnectorBuilder) WithMemory(driver Driver) *ConnectorBuilder {
	b.driver = driver
	return b
}

// WithRanges overrides automatic system-range enumeration; Build maps
// exactly these ranges instead of querying the platform enumerator.
func (b *ConnectorBuilder) WithRanges(ranges []PhysRange) *ConnectorBuilder {
	b.ranges = ranges
	b.hasRanges = true
	return b
}

// WithService arranges for Build to create or open the named service
// (backed by imagePath, if given), start it, and then call initDriver to
// obtain the driver adapter. The resulting service is owned by the built
// Connector and stopped on teardown.
func (b *ConnectorBuilder) WithService(name, imagePath string, initDriver InitDriverFunc) *ConnectorBuilder {
	b.useService = true
	b.serviceName = name
	b.imagePath = imagePath
	b.initDriver = initDriver
	return b
}

// WithCacheOptions passes through options to the underlying MappingCache
// (currently: construction-time IOCTL pacing via WithRateLimiter).
func (b *ConnectorBuilder) WithCacheOptions(opts ...CacheOption) *ConnectorBuilder {
	b.cacheOpts = append(b.cacheOpts, opts...)
	return b
}

// rollbackStack is an ordered stack of best-effort teardown actions,
// pushed as each resource is acquired and unwound in reverse on failure.
// Every unwind error is logged, never returned to the caller of Build.
type rollbackStack struct {
	actions []func() error
}

func (r *rollbackStack) push(action func() error) {
	r.actions = append(r.actions, action)
}

func (r *rollbackStack) unwind() {
	for i := len(r.actions) - 1; i >= 0; i-- {
		if err := r.actions[i](); err != nil {
			builderLog.WithError(err).Warn("rollback: a teardown step failed")
		}
	}
}

// Build constructs a Connector: service (if configured) -> driver -> eager
// mappings -> translation table. Any failure releases every resource
// already acquired, in reverse order, and returns the original error; no
// context is produced and nothing is leaked.
func (b *ConnectorBuilder) Build(ctx context.Context) (*Connector, error) {
	var rollback rollbackStack

	var svc *sharedService
	driver := b.driver

	if b.useService {
		mgr, err := winsvc.OpenLocalManager()
		if err != nil {
			return nil, err
		}
		rollback.push(mgr.Close)

		s, err := winsvc.CreateOrOpen(mgr, b.serviceName, b.imagePath)
		if err != nil {
			rollback.unwind()
			return nil, err
		}
		rollback.push(s.Close)

		if err := s.Start(); err != nil {
			rollback.unwind()
			return nil, err
		}
		rollback.push(s.Stop)
		svc = newSharedService(s)

		d, err := b.initDriver()
		if err != nil {
			rollback.unwind()
			return nil, err
		}
		if c, ok := d.(interface{ Close() error }); ok {
			rollback.push(c.Close)
		}
		driver = d
	}

	if driver == nil {
		rollback.unwind()
		return nil, &DeviceOpenError{Path: "", Err: errNoDriver}
	}

	cache := NewMappingCache(driver, b.cacheOpts...)
	rollback.push(cache.Close)

	var err error
	if b.hasRanges {
		err = cache.MapRanges(ctx, b.ranges)
	} else {
		err = cache.MapSystemRanges(ctx, NewEnumerator())
	}
	if err != nil {
		rollback.unwind()
		return nil, err
	}

	table := cache.AddressMap()
	sc := newSharedCache(cache)
	tctx := newTranslationContext(table, sc, svc)

	return newConnector(tctx), nil
}

var errNoDriver = noDriverError{}

type noDriverError struct{}

func (noDriverError) Error() string {
	return "no driver adapter: call WithMemory or WithService before Build"
}
