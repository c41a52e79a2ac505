// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package state

import "github.com/virtgpu/vkhost/vkabi"

// CommandPool is the record for a live VkCommandPool.
type CommandPool struct {
	Handle      vkabi.CommandPool
	Device      vkabi.Device
	QueueFamily uint32
}

// PreSubmitHook is a callable the command-buffer dispatcher queues while
// recording, run once more before the buffer's next submission —
// spec.md §3's "subordinate pre-submit hooks", used by the compressed-
// texture detour to re-issue a decompression dispatch whose target
// image was rewritten after the guest's own commands were recorded.
type PreSubmitHook func()

// CommandBuffer is the record for a live VkCommandBuffer (spec.md §3).
// LastBoundComputePipeline/LastBoundDescriptorSets let a mid-recording
// compressed-texture decompression dispatch (spec.md §4.9) save and
// restore the guest's own compute bindings around its own dispatch
// call. NewImageLayouts and the two ColorBuffer sets accumulate what
// vkCmdPipelineBarrier and the ColorBuffer acquire/release protocol
// recorded into this buffer, and are cleared on reset. QueueSubmit does
// not read NewImageLayouts, so recorded image layouts are not carried
// into the Image records (which have no layout field).
type CommandBuffer struct {
	Handle vkabi.CommandBuffer
	Device vkabi.Device
	Pool   vkabi.CommandPool

	PreSubmitHooks []PreSubmitHook

	LastBoundComputePipeline vkabi.Pipeline
	LastBoundDescriptorSets  []vkabi.DescriptorSet

	NewImageLayouts map[vkabi.Image]uint32

	AcquiredColorBuffers map[uint32]uint32 // ColorBuffer id -> target layout
	ReleasedColorBuffers map[uint32]bool
}

// CreateCommandPool registers a newly created command pool.
func (t *Tracker) CreateCommandPool(handle vkabi.CommandPool, device vkabi.Device, queueFamily uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cmdPools[handle] = &CommandPool{Handle: handle, Device: device, QueueFamily: queueFamily}
}

// CommandPool looks up a command pool record.
func (t *Tracker) CommandPool(handle vkabi.CommandPool) (*CommandPool, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.cmdPools[handle]
	return rec, ok
}

// DestroyCommandPool removes the pool record and every command buffer
// allocated from it — vkDestroyCommandPool implicitly frees them all.
func (t *Tracker) DestroyCommandPool(handle vkabi.CommandPool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.cmdPools, handle)
	for cb, rec := range t.cmdBuffers {
		if rec.Pool == handle {
			delete(t.cmdBuffers, cb)
		}
	}
}

// CreateCommandBuffer registers a newly allocated command buffer.
func (t *Tracker) CreateCommandBuffer(handle vkabi.CommandBuffer, device vkabi.Device, pool vkabi.CommandPool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cmdBuffers[handle] = newCommandBufferRecord(handle, device, pool)
}

func newCommandBufferRecord(handle vkabi.CommandBuffer, device vkabi.Device, pool vkabi.CommandPool) *CommandBuffer {
	return &CommandBuffer{
		Handle:               handle,
		Device:               device,
		Pool:                 pool,
		NewImageLayouts:      make(map[vkabi.Image]uint32),
		AcquiredColorBuffers: make(map[uint32]uint32),
		ReleasedColorBuffers: make(map[uint32]bool),
	}
}

// CommandBuffer looks up a command buffer record.
func (t *Tracker) CommandBuffer(handle vkabi.CommandBuffer) (*CommandBuffer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.cmdBuffers[handle]
	return rec, ok
}

// FreeCommandBuffer removes a command buffer record (vkFreeCommandBuffers).
func (t *Tracker) FreeCommandBuffer(handle vkabi.CommandBuffer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.cmdBuffers, handle)
}

// ResetCommandBuffer discards everything recorded into a command buffer
// without releasing its handle (vkResetCommandBuffer, or the implicit
// reset vkBeginCommandBuffer performs on a pool with
// VK_COMMAND_BUFFER_RESET... behaviour disabled is not modelled here;
// the caller decides when a reset is warranted).
func (t *Tracker) ResetCommandBuffer(handle vkabi.CommandBuffer) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.cmdBuffers[handle]
	if !ok {
		return ErrUnknownHandle
	}
	device, pool := rec.Device, rec.Pool
	t.cmdBuffers[handle] = newCommandBufferRecord(handle, device, pool)
	return nil
}

// RecordBoundComputePipeline saves the compute pipeline/descriptor-set
// state the compressed-texture detour needs to restore after its own
// decompression dispatch (spec.md §4.9).
func (t *Tracker) RecordBoundComputePipeline(handle vkabi.CommandBuffer, pipeline vkabi.Pipeline) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.cmdBuffers[handle]
	if !ok {
		return ErrUnknownHandle
	}
	rec.LastBoundComputePipeline = pipeline
	return nil
}

// RecordBoundDescriptorSets saves the descriptor sets most recently
// bound at the compute bind point.
func (t *Tracker) RecordBoundDescriptorSets(handle vkabi.CommandBuffer, sets []vkabi.DescriptorSet) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.cmdBuffers[handle]
	if !ok {
		return ErrUnknownHandle
	}
	rec.LastBoundDescriptorSets = append([]vkabi.DescriptorSet(nil), sets...)
	return nil
}

// RecordNewImageLayout records, in the command buffer's NewImageLayouts,
// the layout a barrier transitions image to. The value stays on the
// command buffer record; nothing copies it into the image's own record.
func (t *Tracker) RecordNewImageLayout(handle vkabi.CommandBuffer, image vkabi.Image, layout uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.cmdBuffers[handle]
	if !ok {
		return ErrUnknownHandle
	}
	rec.NewImageLayouts[image] = layout
	return nil
}

// RecordColorBufferAcquire marks that this command buffer's recording
// acquired a ColorBuffer for the guest to write, targeting layout.
func (t *Tracker) RecordColorBufferAcquire(handle vkabi.CommandBuffer, colorBuffer uint32, layout uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.cmdBuffers[handle]
	if !ok {
		return ErrUnknownHandle
	}
	rec.AcquiredColorBuffers[colorBuffer] = layout
	return nil
}

// RecordColorBufferRelease marks that this command buffer's recording
// released a ColorBuffer back to the compositor.
func (t *Tracker) RecordColorBufferRelease(handle vkabi.CommandBuffer, colorBuffer uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.cmdBuffers[handle]
	if !ok {
		return ErrUnknownHandle
	}
	rec.ReleasedColorBuffers[colorBuffer] = true
	return nil
}

// AddPreSubmitHook queues a callable to run once more just before this
// command buffer's next submission.
func (t *Tracker) AddPreSubmitHook(handle vkabi.CommandBuffer, hook PreSubmitHook) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.cmdBuffers[handle]
	if !ok {
		return ErrUnknownHandle
	}
	rec.PreSubmitHooks = append(rec.PreSubmitHooks, hook)
	return nil
}
