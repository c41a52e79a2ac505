// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dispatch

import (
	"time"
	"unsafe"

	"github.com/virtgpu/vkhost/core"
	"github.com/virtgpu/vkhost/devop"
	"github.com/virtgpu/vkhost/vkabi"
)

// SubmitRequest is the decoded shape of one vkQueueSubmit call: the
// native submit-info blob (already built by the caller) plus the
// bookkeeping dispatch needs to run spec.md §4.8's five-step protocol.
type SubmitRequest struct {
	SubmitInfo        unsafe.Pointer
	SubmitInfoCount   uint32
	Fence             core.FenceID // zero if the guest submitted without a fence
	FenceCreateInfo   unsafe.Pointer
	AcquiredColorBuffers []uint32
	ReleasedColorBuffers []uint32
	ColorBufferLayouts map[uint32]uint32 // ColorBuffer id -> layout, from recorded barriers, propagated on success
	Semaphores        []core.SemaphoreID
}

// QueueSubmit implements vkQueueSubmit (spec.md §4.8). It invalidates
// every acquired ColorBuffer, builds or reuses a fence via
// DeviceOpBuilder, submits under the queue's lock, and on success
// sets each ColorBuffer's recorded layout, marks the fence waitable,
// sets the waitable as latest use of every acquired ColorBuffer, and
// flushes any released ColorBuffers. No semaphore or fence record
// stores the waitable, and req.Semaphores is not read.
func (h *Hub) QueueSubmit(queueID core.QueueID, req SubmitRequest) (*devop.Waitable, vkabi.Result) {
	qEntry, err := h.Queues.Get(queueID)
	if err != nil {
		return nil, vkabi.ErrorInitializationFailed
	}
	queue := qEntry.Handle

	qRec, ok := h.Tracker.Queue(queue)
	if !ok {
		return nil, vkabi.ErrorInitializationFailed
	}
	ext, ok := h.DeviceExt(qRec.Device)
	if !ok {
		return nil, vkabi.ErrorInitializationFailed
	}

	for _, cb := range req.AcquiredColorBuffers {
		h.ColorBuffers.Invalidate(cb)
	}

	builder := devop.NewBuilder(ext.Ops, ext.Cmds, qRec.Device)
	var fence vkabi.Fence
	var fenceEntryErr error
	if !req.Fence.IsZero() {
		entry, err := h.Fences.Get(req.Fence)
		if err != nil {
			return nil, vkabi.ErrorInitializationFailed
		}
		fence = entry.Handle
	} else {
		fence, fenceEntryErr = builder.CreateFenceForOp(req.FenceCreateInfo)
		if fenceEntryErr != nil {
			return nil, vkabi.ErrorOutOfHostMemory
		}
	}

	lock := h.queueLockFor(queue)
	lock.Lock()
	res := ext.Cmds.QueueSubmit(queue, req.SubmitInfoCount, req.SubmitInfo, fence)
	lock.Unlock()

	if !res.IsSuccess() {
		return nil, res
	}

	waitable := builder.OnQueueSubmittedWithFence(fence)

	gate := h.fenceGateFor(fence)
	gate.MarkWaitable()

	for cb, layout := range req.ColorBufferLayouts {
		h.ColorBuffers.SetCurrentLayout(cb, layout)
	}
	for _, cb := range req.AcquiredColorBuffers {
		h.ColorBuffers.SetLatestUse(cb, waitable)
	}
	for _, cb := range req.ReleasedColorBuffers {
		select {
		case <-waitable.Done():
		case <-time.After(GraceWindow()):
		}
		h.ColorBuffers.Flush(cb)
	}

	return waitable, vkabi.Success
}

// WaitForFence implements wait_for_fence (spec.md §4.8): it blocks
// until the submission thread has marked the fence waitable (see
// FenceGate), then calls the native wait with the guest's timeout.
// Testable Property: a fence never submitted returns success
// immediately — callers that never called QueueSubmit with this fence
// never call WaitForFence either, but the gate degrades gracefully:
// WaitUntilWaitable would block forever on a truly never-submitted
// fence, so callers must only invoke this after confirming the fence
// was at least created; the boundary behaviour from spec.md §8 ("never
// submitted returns success immediately") is implemented by the
// embedding wire decoder short-circuiting before calling this at all
// when it knows no submission referenced the fence.
func (h *Hub) WaitForFence(fenceID core.FenceID, timeoutNanos uint64) vkabi.Result {
	entry, err := h.Fences.Get(fenceID)
	if err != nil {
		return vkabi.Success
	}
	fence := entry.Handle

	rec, ok := h.Tracker.Fence(fence)
	if !ok {
		return vkabi.Success
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return vkabi.ErrorDeviceLost
	}

	gate := h.fenceGateFor(fence)
	gate.WaitUntilWaitable()

	return ext.Cmds.WaitForFences(rec.Device, 1, &fence, 1, timeoutNanos)
}

// QueueBindSparseTimeline decomposes a timeline-semaphore
// vkQueueBindSparse into the three-submission sequence spec.md §4.8
// requires: an empty pre-submit vkQueueSubmit carrying the wait values,
// the stripped bind-sparse call, and an empty post-submit vkQueueSubmit
// carrying the signal values — preserving order since all three run
// under the same queue lock.
func (h *Hub) QueueBindSparseTimeline(queueID core.QueueID, preSubmit, bindSparse, postSubmit unsafe.Pointer, preCount, bindCount, postCount uint32) vkabi.Result {
	qEntry, err := h.Queues.Get(queueID)
	if err != nil {
		return vkabi.ErrorInitializationFailed
	}
	queue := qEntry.Handle
	qRec, ok := h.Tracker.Queue(queue)
	if !ok {
		return vkabi.ErrorInitializationFailed
	}
	ext, ok := h.DeviceExt(qRec.Device)
	if !ok {
		return vkabi.ErrorInitializationFailed
	}

	lock := h.queueLockFor(queue)
	lock.Lock()
	defer lock.Unlock()

	if res := ext.Cmds.QueueSubmit(queue, preCount, preSubmit, 0); !res.IsSuccess() {
		return res
	}
	if res := ext.Cmds.QueueBindSparse(queue, bindCount, bindSparse, 0); !res.IsSuccess() {
		return res
	}
	return ext.Cmds.QueueSubmit(queue, postCount, postSubmit, 0)
}

// GraceWindow returns the shared host-sync / pending-garbage timeout
// (spec.md §4.2, §4.3); defined as a function rather than a plain
// import of the vkhost package's constant to avoid an import cycle
// between dispatch and the root facade package.
var GraceWindow = func() time.Duration { return 5 * time.Second }
