// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package devop

import (
	"testing"

	"github.com/virtgpu/vkhost/vkabi"
)

func TestExternalFencePoolReleaseThenDrainEmptiesPool(t *testing.T) {
	p := NewExternalFencePool(nil, 0)
	p.Release(vkabi.Fence(42))

	p.mu.Lock()
	n := len(p.free)
	p.mu.Unlock()
	if n != 1 {
		t.Fatalf("expected 1 idle fence after Release, got %d", n)
	}

	p.Drain()
	p.mu.Lock()
	n = len(p.free)
	p.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected pool empty after Drain, got %d idle", n)
	}
}

func TestExternalFencePoolStartsEmpty(t *testing.T) {
	p := NewExternalFencePool(nil, 0)
	if len(p.free) != 0 {
		t.Fatalf("pool should start empty")
	}
}
