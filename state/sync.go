// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package state

import "github.com/virtgpu/vkhost/vkabi"

// Semaphore is the record for a live VkSemaphore.
type Semaphore struct {
	Handle vkabi.Semaphore
	Device vkabi.Device
}

// Fence is the record for a live VkFence. Unlike other kinds, an
// unknown fence token is not always an error at the boxed layer — see
// spec.md §4.1's sentinel-on-unknown-token rule, which differs for
// fences because a guest may legitimately query the status of a fence
// it destroyed itself moments earlier.
type Fence struct {
	Handle       vkabi.Fence
	Device       vkabi.Device
	SubmittedSeq uint64 // ordering sequence number this fence was submitted at
	External     bool   // true if destruction must route through the device's ExternalFencePool
}

// CreateSemaphore registers a newly created semaphore.
func (t *Tracker) CreateSemaphore(handle vkabi.Semaphore, device vkabi.Device) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.semaphores[handle] = &Semaphore{Handle: handle, Device: device}
}

// Semaphore looks up a semaphore record.
func (t *Tracker) Semaphore(handle vkabi.Semaphore) (*Semaphore, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.semaphores[handle]
	return rec, ok
}

// DestroySemaphore removes the semaphore record. Destruction ordering
// relative to any fence waiting on the same queue (spec.md §8) is the
// caller's responsibility via devop/ordering, not this registry.
func (t *Tracker) DestroySemaphore(handle vkabi.Semaphore) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.semaphores, handle)
}

// CreateFence registers a newly created fence. external marks a fence
// obtained from (or destined to be released back to) the device's
// ExternalFencePool rather than destroyed directly (spec.md §3).
func (t *Tracker) CreateFence(handle vkabi.Fence, device vkabi.Device, external bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fences[handle] = &Fence{Handle: handle, Device: device, External: external}
}

// RecordFenceSubmission stamps the ordering sequence number a fence was
// submitted at, so wait_for_fence can correlate with host_sync.
func (t *Tracker) RecordFenceSubmission(handle vkabi.Fence, seq uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.fences[handle]
	if !ok {
		return ErrUnknownHandle
	}
	rec.SubmittedSeq = seq
	return nil
}

// Fence looks up a fence record.
func (t *Tracker) Fence(handle vkabi.Fence) (*Fence, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.fences[handle]
	return rec, ok
}

// DestroyFence removes the fence record.
func (t *Tracker) DestroyFence(handle vkabi.Fence) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.fences, handle)
}
