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
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// PageSize is the chunk size used to split large reads and writes, and the
// ideal batch size reported in Metadata.
const PageSize = 4096

// Metadata describes the connector's addressable surface, as the host
// framework expects.
type Metadata struct {
	MaxAddress     uint64
	RealSize       uint64
	Readonly       bool
	IdealBatchSize uint64
}

// ReadRequest is one element of a batched read: the physical address to
// read, an opaque tag the host framework uses to correlate the result with
// its own bookkeeping, and the destination buffer.
type ReadRequest struct {
	Addr uint64
	Tag  any
	Buf  []byte
}

// WriteRequest is one element of a batched write.
type WriteRequest struct {
	Addr uint64
	Tag  any
	Buf  []byte
}

// Connector is the object handed to the host memory-introspection
// framework: it exposes physical memory, via the translation context's
// table, as a batched readable/writable surface.
type Connector struct {
	ctx *TranslationContext
}

func newConnector(ctx *TranslationContext) *Connector {
	return &Connector{ctx: ctx}
}

// Table exposes the underlying translation table, mostly for tests.
func (c *Connector) Table() *TranslationTable {
	return c.ctx.Table()
}

// Clone returns a Connector sharing this one's cache and service.
func (c *Connector) Clone() *Connector {
	return &Connector{ctx: c.ctx.Clone()}
}

// Close tears down this connector's reference to the shared cache and
// service, per TranslationContext.Close's ordering guarantee (I3).
func (c *Connector) Close() error {
	return c.ctx.Close()
}

// Metadata reports the connector's addressable surface. The defaults match
// the reference connector this library mirrors: the full 64-bit address
// space is nominally addressable (lookups outside a mapped range simply
// fail per-element), and ideal batch size is one page.
func (c *Connector) Metadata() Metadata {
	return Metadata{
		MaxAddress:     math.MaxUint64,
		RealSize:       math.MaxUint64,
		Readonly:       false,
		IdealBatchSize: PageSize,
	}
}

// ReadIter performs a batch of physical reads. Each element larger than
// one page is read in page-sized chunks; a failure on any chunk fails that
// element only, leaving the rest of the batch unaffected. Per-element
// outcome is reported to onSuccess/onFail, never via the returned error
// (which only reflects context cancellation).
func (c *Connector) ReadIter(ctx context.Context, reqs []ReadRequest, onSuccess func(ReadRequest), onFail func(ReadRequest, error)) error {
	table := c.ctx.Table()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	var mu sync.Mutex
	for _, req := range reqs {
		req := req
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			err := readOne(table, req)
			mu.Lock()
			if err != nil {
				onFail(req, err)
			} else {
				onSuccess(req)
			}
			mu.Unlock()
			return nil
		})
	}

	return g.Wait()
}

// WriteIter performs a batch of physical writes, with the same
// chunking and per-element reporting semantics as ReadIter.
func (c *Connector) WriteIter(ctx context.Context, reqs []WriteRequest, onSuccess func(WriteRequest), onFail func(WriteRequest, error)) error {
	table := c.ctx.Table()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	var mu sync.Mutex
	for _, req := range reqs {
		req := req
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			err := writeOne(table, req)
			mu.Lock()
			if err != nil {
				onFail(req, err)
			} else {
				onSuccess(req)
			}
			mu.Unlock()
			return nil
		})
	}

	return g.Wait()
}

func readOne(table *TranslationTable, req ReadRequest) error {
	if len(req.Buf) < PageSize {
		src, ok := table.Lookup(req.Addr, uintptr(len(req.Buf)))
		if !ok {
			return &PlatformIOError{Op: "read", Err: errNotMapped}
		}
		copy(req.Buf, src)
		return nil
	}

	for off := 0; off < len(req.Buf); off += PageSize {
		n := PageSize
		if off+n > len(req.Buf) {
			n = len(req.Buf) - off
		}
		src, ok := table.Lookup(req.Addr+uint64(off), uintptr(n))
		if !ok {
			return &PlatformIOError{Op: "read", Err: errNotMapped}
		}
		copy(req.Buf[off:off+n], src)
	}
	return nil
}

func writeOne(table *TranslationTable, req WriteRequest) error {
	if len(req.Buf) < PageSize {
		dst, ok := table.Lookup(req.Addr, uintptr(len(req.Buf)))
		if !ok {
			return &PlatformIOError{Op: "write", Err: errNotMapped}
		}
		copy(dst, req.Buf)
		return nil
	}

	for off := 0; off < len(req.Buf); off += PageSize {
		n := PageSize
		if off+n > len(req.Buf) {
			n = len(req.Buf) - off
		}
		dst, ok := table.Lookup(req.Addr+uint64(off), uintptr(n))
		if !ok {
			return &PlatformIOError{Op: "write", Err: errNotMapped}
		}
		copy(dst, req.Buf[off:off+n])
	}
	return nil
}

var errNotMapped = notMappedError{}

type notMappedError struct{}

func (notMappedError) Error() string { return "address range is not backed by a mapping" }
