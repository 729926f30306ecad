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
	"testing"
)

func TestConnectorBuilderMemoryOnly(t *testing.T) {
	drv := newMockDriver()
	ranges := []PhysRange{{Addr: 0x0, Size: 0x1000}, {Addr: 0x100000, Size: 0x2000}}

	conn, err := NewConnectorBuilder().
		WithMemory(drv).
		WithRanges(ranges).
		Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer conn.Close()

	if got, want := conn.Table().Len(), 2; got != want {
		t.Fatalf("got %d table entries, want %d", got, want)
	}
	if got, want := drv.mapCallCount(), 2; got != want {
		t.Fatalf("got %d map calls, want %d", got, want)
	}
}

func TestConnectorBuilderNoDriver(t *testing.T) {
	_, err := NewConnectorBuilder().Build(context.Background())
	if err == nil {
		t.Fatal("Build: got nil error, want failure (no driver configured)")
	}
}

func TestConnectorBuilderRollsBackOnMapFailure(t *testing.T) {
	drv := newMockDriver()
	drv.mapFailAt = 1

	ranges := []PhysRange{{Addr: 0x0, Size: 0x1000}, {Addr: 0x100000, Size: 0x2000}}

	conn, err := NewConnectorBuilder().
		WithMemory(drv).
		WithRanges(ranges).
		Build(context.Background())
	if err == nil {
		t.Fatal("Build: got nil error, want failure")
	}
	if conn != nil {
		t.Fatal("Build: got non-nil connector alongside an error")
	}

	if got, want := drv.unmapCallCount(), 1; got != want {
		t.Fatalf("got %d unmap calls during rollback, want %d", got, want)
	}
}

func TestConnectorBuilderCloseTeardownOrdering(t *testing.T) {
	drv := newMockDriver()
	conn, err := NewConnectorBuilder().
		WithMemory(drv).
		WithRanges([]PhysRange{{Addr: 0x0, Size: 0x1000}}).
		Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	clone := conn.Clone()

	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if drv.unmapCallCount() != 0 {
		t.Fatalf("got %d unmap calls after releasing one of two clones, want 0", drv.unmapCallCount())
	}

	if err := clone.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got, want := drv.unmapCallCount(), 1; got != want {
		t.Fatalf("got %d unmap calls after releasing last clone, want %d", got, want)
	}
}
