// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dispatch

import (
	"sync"

	"github.com/virtgpu/vkhost/vkabi"
)

// FenceGateState is one of the three states spec.md §3 attaches to a
// Fence record: "not-waitable, waitable, waiting".
type FenceGateState int

const (
	FenceNotWaitable FenceGateState = iota
	FenceWaitable
	FenceWaiting
)

// FenceGate is the per-fence mutex/condition-variable pair spec.md §3
// and §4.8 describe: wait_for_fence blocks until the submitting thread
// has moved the fence from not-waitable to waitable, preventing a
// waiter from calling into the driver before the submission thread has
// released the fence (spec.md §4.8, §5 and Testable Property 8's
// happens-before guarantee extended to fences).
type FenceGate struct {
	mu    sync.Mutex
	cond  *sync.Cond
	state FenceGateState
}

// NewFenceGate creates a gate in the not-waitable state.
func NewFenceGate() *FenceGate {
	g := &FenceGate{state: FenceNotWaitable}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// MarkWaitable transitions the gate to waitable and wakes anyone
// blocked in WaitUntilWaitable — called once a submission that
// referenced this fence has returned successfully from the native
// vkQueueSubmit call (spec.md §4.8 step 5).
func (g *FenceGate) MarkWaitable() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == FenceNotWaitable {
		g.state = FenceWaitable
	}
	g.cond.Broadcast()
}

// WaitUntilWaitable blocks until the gate leaves not-waitable, then
// transitions it to waiting and returns. Called by wait_for_fence
// before it calls the native wait (spec.md §4.8).
func (g *FenceGate) WaitUntilWaitable() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for g.state == FenceNotWaitable {
		g.cond.Wait()
	}
	g.state = FenceWaiting
}

// Reset returns the gate to not-waitable, for vkResetFences and for
// snapshot load leaving a captured not-ready fence unsignalled (spec.md
// §4.10's round-trip law: "fence state returns to not-waitable for
// not-ready fences").
func (g *FenceGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = FenceNotWaitable
}

// fenceGateFor returns (creating if needed) the FenceGate for a native
// fence handle.
func (h *Hub) fenceGateFor(fence vkabi.Fence) *FenceGate {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.fenceGate[fence]
	if !ok {
		g = NewFenceGate()
		h.fenceGate[fence] = g
	}
	return g
}

// forgetFenceGate drops a fence's gate once the fence itself is
// destroyed.
func (h *Hub) forgetFenceGate(fence vkabi.Fence) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.fenceGate, fence)
}
