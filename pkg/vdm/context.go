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
	"sync"
	"sync/atomic"

	"github.com/a2x/govdm/pkg/vdm/winsvc"
	"github.com/sirupsen/logrus"
)

var contextLog = logrus.WithField("component", "context")

// closer is the minimal shape shared by sharedCache and sharedService: a
// single, idempotent teardown action.
type closer interface {
	Close() error
}

// refCounted wraps a closer with shared ownership: the wrapped resource is
// torn down exactly once, when the last reference releases. release
// does not run teardown unless it observes the refcount drop to zero;
// the teardown itself is additionally guarded by
// sync.Once so a racing double-release can never run it twice.
type refCounted struct {
	count int32
	once  sync.Once
	res   closer
}

func newRefCounted(res closer) *refCounted {
	return &refCounted{count: 1, res: res}
}

func (r *refCounted) acquire() {
	atomic.AddInt32(&r.count, 1)
}

// release decrements the refcount and, on the last release, runs teardown.
// Teardown errors are logged, never returned — callers of release cannot
// meaningfully react to a destructor-time failure (§7).
func (r *refCounted) release(log func(error)) {
	if atomic.AddInt32(&r.count, -1) > 0 {
		return
	}
	r.once.Do(func() {
		if err := r.res.Close(); err != nil && log != nil {
			log(err)
		}
	})
}

// sharedCache is a MappingCache shared by every clone of a
// TranslationContext. Its Close (unmap-all) runs exactly once, on the last
// release.
type sharedCache struct {
	*refCounted
}

func newSharedCache(cache *MappingCache) *sharedCache {
	return &sharedCache{refCounted: newRefCounted(cache)}
}

// newSharedCacheFromCloser mirrors newSharedServiceFromCloser: it lets
// tests observe cache teardown ordering via an arbitrary closer instead of
// a real MappingCache.
func newSharedCacheFromCloser(c closer) *sharedCache {
	return &sharedCache{refCounted: newRefCounted(c)}
}

// sharedService is the (optional) driver service shared by every clone of
// a TranslationContext. Its Close (stop) runs exactly once, on the last
// release.
type sharedService struct {
	*refCounted
}

// serviceCloser adapts *winsvc.Service to the closer interface, matching
// the stop-only teardown policy: Stop is called, never Delete (§9 open
// question, resolved in favor of the canonical stop-only variant).
type serviceCloser struct {
	svc *winsvc.Service
}

func (s serviceCloser) Close() error {
	return s.svc.Stop()
}

func newSharedService(svc *winsvc.Service) *sharedService {
	if svc == nil {
		return nil
	}
	return &sharedService{refCounted: newRefCounted(serviceCloser{svc: svc})}
}

// newSharedServiceFromCloser builds a sharedService around an arbitrary
// closer. Exists so tests can exercise teardown ordering (I3) without a
// real Windows service.
func newSharedServiceFromCloser(c closer) *sharedService {
	return &sharedService{refCounted: newRefCounted(c)}
}

// TranslationContext is the unit of ownership handed to the host
// framework. It holds a translation table (duplicated per clone) plus
// shared references to the mapping cache and, optionally, the backing
// service.
type TranslationContext struct {
	table   *TranslationTable
	cache   *sharedCache
	service *sharedService // nil if the connector was built with_memory only
}

func newTranslationContext(table *TranslationTable, cache *sharedCache, service *sharedService) *TranslationContext {
	return &TranslationContext{table: table, cache: cache, service: service}
}

// Table returns the address-translation table for this context.
func (c *TranslationContext) Table() *TranslationTable {
	return c.table
}

// Clone returns a new TranslationContext sharing this one's cache and
// service by reference (bumping both refcounts) and duplicating the
// (small) translation table. Cloning never invokes additional Map calls.
func (c *TranslationContext) Clone() *TranslationContext {
	c.cache.acquire()
	if c.service != nil {
		c.service.acquire()
	}
	return &TranslationContext{
		table:   c.table.clone(),
		cache:   c.cache,
		service: c.service,
	}
}

// Close releases this context's reference to the cache and, only after
// that release completes, its reference to the service. This ordering
// (unmap-all strictly before service-stop) holds regardless of which
// clone happens to be last, satisfying I3.
func (c *TranslationContext) Close() error {
	c.cache.release(func(err error) {
		contextLog.WithError(err).Warn("mapping cache teardown reported an error")
	})
	if c.service != nil {
		c.service.release(func(err error) {
			contextLog.WithError(err).Warn("service stop reported an error")
		})
	}
	return nil
}
