// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package devop

import (
	"sync"
	"unsafe"

	"github.com/virtgpu/vkhost/vkabi"
)

// ExternalFencePool is spec.md §3's per-device "external-fence pool
// (reusable fences for import/export)": fences created for
// VK_EXTERNAL_FENCE_HANDLE_TYPE import/export round-trips are expensive
// to keep re-creating per call, so a destroyed external fence is kept
// around and handed back out to the next caller that asks for one
// instead of being destroyed immediately (spec.md §3 Fence's "external
// flag that routes destruction through the external-fence pool").
type ExternalFencePool struct {
	mu     sync.Mutex
	cmds   *vkabi.Commands
	device vkabi.Device
	free   []vkabi.Fence
}

// NewExternalFencePool creates an empty pool for device.
func NewExternalFencePool(cmds *vkabi.Commands, device vkabi.Device) *ExternalFencePool {
	return &ExternalFencePool{cmds: cmds, device: device}
}

// Acquire returns a reusable fence if the pool has one, resetting it to
// the unsignaled state first. Otherwise it creates a fresh one with
// fenceCreateInfo (the caller's pre-marshalled, exportable
// VkFenceCreateInfo chain).
func (p *ExternalFencePool) Acquire(fenceCreateInfo unsafe.Pointer) (vkabi.Fence, error) {
	p.mu.Lock()
	if n := len(p.free); n > 0 {
		fence := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		if res := p.cmds.ResetFences(p.device, 1, &fence); !res.IsSuccess() {
			return 0, &poolError{"vkResetFences", res}
		}
		return fence, nil
	}
	p.mu.Unlock()

	var fence vkabi.Fence
	res := p.cmds.CreateFence(p.device, fenceCreateInfo, &fence)
	if !res.IsSuccess() {
		return 0, &poolError{"vkCreateFence", res}
	}
	return fence, nil
}

// Release returns fence to the pool instead of destroying it natively.
// The caller must not touch fence again except via a future Acquire.
func (p *ExternalFencePool) Release(fence vkabi.Fence) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, fence)
}

// Drain empties the pool and destroys every fence that was idle in it,
// for device teardown. With a nil Commands (unit tests exercising only
// bookkeeping) the pool is emptied without any destroy call, matching
// Tracker.destroy's convention.
func (p *ExternalFencePool) Drain() {
	p.mu.Lock()
	idle := p.free
	p.free = nil
	p.mu.Unlock()
	if p.cmds == nil {
		return
	}
	for _, fence := range idle {
		p.cmds.DestroyFence(p.device, fence)
	}
}

type poolError struct {
	op  string
	res vkabi.Result
}

func (e *poolError) Error() string { return "devop: " + e.op + " failed" }
func (e *poolError) Result() vkabi.Result { return e.res }
