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

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var cacheLog = logrus.WithField("component", "mapcache")

// CacheOption configures a MappingCache at construction time.
type CacheOption func(*MappingCache)

// WithRateLimiter paces the IOCTLs MapRanges issues against the driver.
// Useful for a driver whose handler drops requests under a tight burst of
// map calls at construction time; it never affects the hot read/write
// path, which does not call into the driver at all.
func WithRateLimiter(l *rate.Limiter) CacheOption {
	return func(c *MappingCache) { c.limiter = l }
}

// MappingCache owns a driver adapter and the list of mappings it has
// produced so far. Eager mapping of the full physical address space
// amortizes the per-access IOCTL cost: once built, reads and writes
// against the translation table are plain memory copies, never kernel
// round-trips.
type MappingCache struct {
	driver   Driver
	mappings []Mapping
	limiter  *rate.Limiter
}

// NewMappingCache returns a MappingCache with no mappings yet.
func NewMappingCache(driver Driver, opts ...CacheOption) *MappingCache {
	c := &MappingCache{driver: driver}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MapRanges maps ranges in order. On the first failure, every mapping
// collected so far in this call is unmapped in reverse order (best effort,
// errors logged and discarded), and the cache is left as it was before the
// call; the returned error is a *MapFailedError naming the offending
// address.
func (c *MappingCache) MapRanges(ctx context.Context, ranges []PhysRange) error {
	mapped := make([]Mapping, 0, len(ranges))

	for _, r := range ranges {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				c.rollback(mapped)
				return &MapFailedError{PhysAddr: r.Addr, Err: err}
			}
		}

		m, err := c.driver.Map(r.Addr, r.Size)
		if err != nil {
			c.rollback(mapped)
			return &MapFailedError{PhysAddr: r.Addr, Err: err}
		}

		mapped = append(mapped, m)
	}

	c.mappings = append(c.mappings, mapped...)
	return nil
}

// rollback unmaps mapped in reverse order, logging and discarding any
// unmap error. Used to satisfy I1 (rollback on partial map failure).
func (c *MappingCache) rollback(mapped []Mapping) {
	var errs *multierror.Error
	for i := len(mapped) - 1; i >= 0; i-- {
		if err := c.driver.Unmap(mapped[i]); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if errs != nil {
		cacheLog.WithError(errs.ErrorOrNil()).Warn("rollback: one or more unmap calls failed")
	}
}

// MapSystemRanges enumerates the host's physical memory ranges and maps
// all of them.
func (c *MappingCache) MapSystemRanges(ctx context.Context, enumerator Enumerator) error {
	ranges, err := enumerator.Enumerate()
	if err != nil {
		return err
	}
	return c.MapRanges(ctx, ranges)
}

// AddressMap builds the translation table from the mappings currently held
// by the cache.
func (c *MappingCache) AddressMap() *TranslationTable {
	return newTranslationTable(c.mappings)
}

// Close unmaps every held mapping, in no particular order, logging and
// discarding any failure; teardown always continues for the remaining
// mappings. Close never returns a propagating error, consistent with the
// "destructor-time failures are swallowed after being logged" rule.
func (c *MappingCache) Close() error {
	var errs *multierror.Error
	for _, m := range c.mappings {
		if err := c.driver.Unmap(m); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	c.mappings = nil

	if errs != nil {
		cacheLog.WithError(errs.ErrorOrNil()).Warn("close: one or more unmap calls failed")
	}
	return nil
}
