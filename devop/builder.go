// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package devop

import (
	"fmt"
	"unsafe"

	"github.com/virtgpu/vkhost/vkabi"
)

// Builder is DeviceOpBuilder: it turns a queue submission into a
// Waitable the rest of the decoder can block on, without the caller
// needing to know whether the underlying wait is a fence poll, a
// semaphore wait, or something else entirely. One Builder is used for
// exactly one submission; construct a fresh one per QueueSubmit call.
type Builder struct {
	tracker *Tracker
	cmds    *vkabi.Commands
	device  vkabi.Device

	createdFence   *vkabi.Fence
	submittedFence *vkabi.Fence
}

// NewBuilder creates a Builder bound to tracker and to the device whose
// queue is about to be submitted to.
func NewBuilder(tracker *Tracker, cmds *vkabi.Commands, device vkabi.Device) *Builder {
	return &Builder{tracker: tracker, cmds: cmds, device: device}
}

// CreateFenceForOp creates (idempotently) the fence this builder will
// attach to the submission from fenceCreateInfo, the caller's
// pre-marshalled native VkFenceCreateInfo; dispatch
// owns Vulkan struct layout, devop only owns the poll/garbage bookkeeping
// built around the resulting handle.
func (b *Builder) CreateFenceForOp(fenceCreateInfo unsafe.Pointer) (vkabi.Fence, error) {
	if b.createdFence != nil {
		return *b.createdFence, nil
	}
	var fence vkabi.Fence
	res := b.cmds.CreateFence(b.device, fenceCreateInfo, &fence)
	if !res.IsSuccess() {
		return 0, fmt.Errorf("devop: vkCreateFence failed: %v", res)
	}
	b.createdFence = &fence
	return fence, nil
}

// OnQueueSubmittedWithFence registers fence with the tracker's polling
// queue and returns a Waitable that settles once the fence signals (or
// fails). Only a fence this builder created with CreateFenceForOp is
// also queued as pending garbage, so the tracker destroys it once the
// Waitable settles; a caller-supplied fence is left to its owner.
func (b *Builder) OnQueueSubmittedWithFence(fence vkabi.Fence) *Waitable {
	b.submittedFence = &fence
	w := newWaitable()

	b.tracker.addPoll(func() Status {
		res := b.cmds.GetFenceStatus(b.device, fence)
		switch res {
		case vkabi.Success:
			w.settle(nil)
			return StatusDone
		case vkabi.NotReady:
			return StatusPending
		default:
			w.settle(fmt.Errorf("devop: fence wait failed: %v", res))
			return StatusFailure
		}
	})

	if b.createdFence != nil && *b.createdFence == fence {
		b.tracker.AddPendingGarbageFence(w, fence)
	}
	return w
}
