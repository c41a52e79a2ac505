// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dispatch

import (
	"unsafe"

	"github.com/virtgpu/vkhost/core"
	"github.com/virtgpu/vkhost/state"
	"github.com/virtgpu/vkhost/vkabi"
)

// CreateCommandPool implements vkCreateCommandPool.
func (h *Hub) CreateCommandPool(deviceID core.DeviceID, createInfo unsafe.Pointer, queueFamily uint32) (core.CommandPoolID, vkabi.Result) {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return core.CommandPoolID{}, vkabi.ErrorInitializationFailed
	}
	device := devEntry.Handle
	ext, ok := h.DeviceExt(device)
	if !ok {
		return core.CommandPoolID{}, vkabi.ErrorInitializationFailed
	}

	var pool vkabi.CommandPool
	res := ext.Cmds.CreateCommandPool(device, createInfo, &pool)
	if !res.IsSuccess() {
		return core.CommandPoolID{}, res
	}
	h.Tracker.CreateCommandPool(pool, device, queueFamily)
	return h.CommandPools.Add(pool, nil), vkabi.Success
}

// DestroyCommandPool implements vkDestroyCommandPool, which implicitly
// frees every command buffer allocated from the pool.
func (h *Hub) DestroyCommandPool(poolID core.CommandPoolID) error {
	entry, err := h.CommandPools.Get(poolID)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.CommandPool(entry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	if ext, ok := h.DeviceExt(rec.Device); ok {
		ext.Cmds.DestroyCommandPool(rec.Device, entry.Handle)
	}
	h.Tracker.DestroyCommandPool(entry.Handle)
	_, _ = h.CommandPools.Remove(poolID)
	return nil
}

// AllocateCommandBuffers implements vkAllocateCommandBuffers for count
// buffers from one pool, returning one boxed token per allocated buffer
// in order.
func (h *Hub) AllocateCommandBuffers(poolID core.CommandPoolID, allocInfo unsafe.Pointer, count uint32) ([]core.CommandBufferID, vkabi.Result) {
	poolEntry, err := h.CommandPools.Get(poolID)
	if err != nil {
		return nil, vkabi.ErrorInitializationFailed
	}
	poolRec, ok := h.Tracker.CommandPool(poolEntry.Handle)
	if !ok {
		return nil, vkabi.ErrorInitializationFailed
	}
	ext, ok := h.DeviceExt(poolRec.Device)
	if !ok {
		return nil, vkabi.ErrorInitializationFailed
	}

	buffers := make([]vkabi.CommandBuffer, count)
	res := ext.Cmds.AllocateCommandBuffers(poolRec.Device, allocInfo, &buffers[0])
	if !res.IsSuccess() {
		return nil, res
	}

	ids := make([]core.CommandBufferID, count)
	for i, cb := range buffers {
		h.Tracker.CreateCommandBuffer(cb, poolRec.Device, poolEntry.Handle)
		ids[i] = h.CommandBuffers.Add(cb, nil)
	}
	return ids, vkabi.Success
}

// FreeCommandBuffers implements vkFreeCommandBuffers.
func (h *Hub) FreeCommandBuffers(poolID core.CommandPoolID, bufferIDs []core.CommandBufferID) error {
	poolEntry, err := h.CommandPools.Get(poolID)
	if err != nil {
		return err
	}
	poolRec, ok := h.Tracker.CommandPool(poolEntry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(poolRec.Device)
	if !ok {
		return ErrUnknownDevice
	}

	handles := make([]vkabi.CommandBuffer, 0, len(bufferIDs))
	for _, id := range bufferIDs {
		entry, err := h.CommandBuffers.Get(id)
		if err != nil {
			continue
		}
		handles = append(handles, entry.Handle)
	}
	if len(handles) > 0 {
		ext.Cmds.FreeCommandBuffers(poolRec.Device, poolEntry.Handle, uint32(len(handles)), &handles[0])
	}
	for i, id := range bufferIDs {
		if i < len(handles) {
			h.Tracker.FreeCommandBuffer(handles[i])
		}
		_, _ = h.CommandBuffers.Remove(id)
	}
	return nil
}

// BeginCommandBuffer implements vkBeginCommandBuffer.
func (h *Hub) BeginCommandBuffer(bufID core.CommandBufferID, beginInfo unsafe.Pointer) (vkabi.Result, error) {
	entry, err := h.CommandBuffers.Get(bufID)
	if err != nil {
		return 0, err
	}
	rec, ok := h.Tracker.CommandBuffer(entry.Handle)
	if !ok {
		return 0, state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return 0, ErrUnknownDevice
	}
	return ext.Cmds.BeginCommandBuffer(entry.Handle, beginInfo), nil
}

// EndCommandBuffer implements vkEndCommandBuffer.
func (h *Hub) EndCommandBuffer(bufID core.CommandBufferID) (vkabi.Result, error) {
	entry, err := h.CommandBuffers.Get(bufID)
	if err != nil {
		return 0, err
	}
	rec, ok := h.Tracker.CommandBuffer(entry.Handle)
	if !ok {
		return 0, state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return 0, ErrUnknownDevice
	}
	return ext.Cmds.EndCommandBuffer(entry.Handle), nil
}

// ResetCommandBuffer implements vkResetCommandBuffer, discarding the
// tracker's per-recording bookkeeping (bound pipeline/sets, recorded
// layouts, ColorBuffer acquire/release) along with the driver-side
// recording.
func (h *Hub) ResetCommandBuffer(bufID core.CommandBufferID, flags uint32) (vkabi.Result, error) {
	entry, err := h.CommandBuffers.Get(bufID)
	if err != nil {
		return 0, err
	}
	rec, ok := h.Tracker.CommandBuffer(entry.Handle)
	if !ok {
		return 0, state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return 0, ErrUnknownDevice
	}
	res := ext.Cmds.ResetCommandBuffer(entry.Handle, flags)
	if res.IsSuccess() {
		_ = h.Tracker.ResetCommandBuffer(entry.Handle)
	}
	return res, nil
}

// pipelineBindPointCompute mirrors VK_PIPELINE_BIND_POINT_COMPUTE.
const pipelineBindPointCompute = 1

// CmdBindPipeline implements vkCmdBindPipeline, recording the bound
// pipeline when it binds at the compute point so a later mid-recording
// decompression dispatch (spec.md §4.9) can restore it afterward.
func (h *Hub) CmdBindPipeline(bufID core.CommandBufferID, pipelineID core.PipelineID, bindPoint uint32) error {
	bufEntry, err := h.CommandBuffers.Get(bufID)
	if err != nil {
		return err
	}
	pipeEntry, err := h.Pipelines.Get(pipelineID)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.CommandBuffer(bufEntry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return ErrUnknownDevice
	}
	ext.Cmds.CmdBindPipeline(bufEntry.Handle, bindPoint, pipeEntry.Handle)
	if bindPoint == pipelineBindPointCompute {
		return h.Tracker.RecordBoundComputePipeline(bufEntry.Handle, pipeEntry.Handle)
	}
	return nil
}

// CmdBindDescriptorSets implements vkCmdBindDescriptorSets, recording
// the bound sets when they bind at the compute point for the same
// reason CmdBindPipeline does.
func (h *Hub) CmdBindDescriptorSets(bufID core.CommandBufferID, bindPoint uint32, layout vkabi.PipelineLayout, firstSet uint32, setIDs []core.DescriptorSetID, dynamicOffsets []uint32) error {
	bufEntry, err := h.CommandBuffers.Get(bufID)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.CommandBuffer(bufEntry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return ErrUnknownDevice
	}

	sets := make([]vkabi.DescriptorSet, 0, len(setIDs))
	for _, id := range setIDs {
		entry, err := h.DescSets.Get(id)
		if err != nil {
			return err
		}
		sets = append(sets, entry.Handle)
	}

	var setsPtr unsafe.Pointer
	if len(sets) > 0 {
		setsPtr = unsafe.Pointer(&sets[0])
	}
	var offsetsPtr unsafe.Pointer
	if len(dynamicOffsets) > 0 {
		offsetsPtr = unsafe.Pointer(&dynamicOffsets[0])
	}
	ext.Cmds.CmdBindDescriptorSets(bufEntry.Handle, bindPoint, layout, firstSet, uint32(len(sets)), setsPtr, uint32(len(dynamicOffsets)), offsetsPtr)

	if bindPoint == pipelineBindPointCompute {
		return h.Tracker.RecordBoundDescriptorSets(bufEntry.Handle, sets)
	}
	return nil
}

// RestoreComputeBindings re-binds whatever compute pipeline/descriptor
// sets were last recorded on bufID, used by the compressed-texture
// detour after its own decompression dispatch (spec.md §4.9: "the
// command buffer's last-bound compute pipeline and descriptor sets are
// re-bound after the emulation dispatch").
func (h *Hub) RestoreComputeBindings(bufID core.CommandBufferID, layout vkabi.PipelineLayout) error {
	bufEntry, err := h.CommandBuffers.Get(bufID)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.CommandBuffer(bufEntry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return ErrUnknownDevice
	}
	if rec.LastBoundComputePipeline != 0 {
		ext.Cmds.CmdBindPipeline(bufEntry.Handle, pipelineBindPointCompute, rec.LastBoundComputePipeline)
	}
	if len(rec.LastBoundDescriptorSets) > 0 {
		ext.Cmds.CmdBindDescriptorSets(bufEntry.Handle, pipelineBindPointCompute, layout, 0,
			uint32(len(rec.LastBoundDescriptorSets)), unsafe.Pointer(&rec.LastBoundDescriptorSets[0]), 0, nil)
	}
	return nil
}

// CmdPipelineBarrier implements vkCmdPipelineBarrier's layout-tracking
// side effect (spec.md §4.8 step 1): the buffer and image barriers are
// forwarded to the driver as given (memory barriers are passed with a
// count of zero), and each newLayouts[i] is recorded against
// imageTargets[i] in the command buffer's record. The image barriers'
// queue-family fields are not rewritten here, so
// VK_QUEUE_FAMILY_FOREIGN_EXT reaches the driver unchanged;
// TranslateQueueFamily maps a single family value and is not called by
// this function. imageTargets and newLayouts are provided by the caller,
// which has already walked the native VkImageMemoryBarrier array (struct
// layout stays dispatch's caller's responsibility).
func (h *Hub) CmdPipelineBarrier(bufID core.CommandBufferID, srcStage, dstStage, deps uint32,
	memBarriers, bufBarriers unsafe.Pointer, bufBarrierCount uint32,
	imgBarriers unsafe.Pointer, imgBarrierCount uint32,
	imageTargets []core.ImageID, newLayouts []uint32) error {
	bufEntry, err := h.CommandBuffers.Get(bufID)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.CommandBuffer(bufEntry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return ErrUnknownDevice
	}

	ext.Cmds.CmdPipelineBarrier(bufEntry.Handle, srcStage, dstStage, deps,
		0, memBarriers, bufBarrierCount, bufBarriers, imgBarrierCount, imgBarriers)

	for i, imgID := range imageTargets {
		entry, err := h.Images.Get(imgID)
		if err != nil {
			continue
		}
		_ = h.Tracker.RecordNewImageLayout(bufEntry.Handle, entry.Handle, newLayouts[i])
	}
	return nil
}

// CmdCopyBufferToImage implements vkCmdCopyBufferToImage. The regions
// are forwarded to the driver unchanged: a copy onto an emulated-
// compressed image is not rewritten into the shadow domain here.
// RewriteCopyRegions performs that rewrite on decoded regions and is not
// called by this function.
func (h *Hub) CmdCopyBufferToImage(bufID core.CommandBufferID, src vkabi.Buffer, dst vkabi.Image, layout uint32, regionCount uint32, regions unsafe.Pointer) error {
	bufEntry, err := h.CommandBuffers.Get(bufID)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.CommandBuffer(bufEntry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return ErrUnknownDevice
	}
	ext.Cmds.CmdCopyBufferToImage(bufEntry.Handle, src, dst, layout, regionCount, regions)
	return nil
}

// CmdCopyImage implements vkCmdCopyImage.
func (h *Hub) CmdCopyImage(bufID core.CommandBufferID, src vkabi.Image, srcLayout uint32, dst vkabi.Image, dstLayout uint32, regionCount uint32, regions unsafe.Pointer) error {
	bufEntry, err := h.CommandBuffers.Get(bufID)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.CommandBuffer(bufEntry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return ErrUnknownDevice
	}
	ext.Cmds.CmdCopyImage(bufEntry.Handle, src, srcLayout, dst, dstLayout, regionCount, regions)
	return nil
}

// CmdDispatch implements vkCmdDispatch, used both for guest compute
// dispatches and for the compressed-texture decompression dispatch
// itself (spec.md §4.9).
func (h *Hub) CmdDispatch(bufID core.CommandBufferID, x, y, z uint32) error {
	bufEntry, err := h.CommandBuffers.Get(bufID)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.CommandBuffer(bufEntry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return ErrUnknownDevice
	}
	ext.Cmds.CmdDispatch(bufEntry.Handle, x, y, z)
	return nil
}

// AcquireColorBuffer records that this recording acquires colorBuffer
// for the guest to write at targetLayout, consumed by QueueSubmit
// (spec.md §4.8 step 1-2).
func (h *Hub) AcquireColorBuffer(bufID core.CommandBufferID, colorBuffer uint32, targetLayout uint32) error {
	entry, err := h.CommandBuffers.Get(bufID)
	if err != nil {
		return err
	}
	return h.Tracker.RecordColorBufferAcquire(entry.Handle, colorBuffer, targetLayout)
}

// ReleaseColorBuffer records that this recording releases colorBuffer
// back to the compositor, consumed by QueueSubmit (spec.md §4.8 step 6).
func (h *Hub) ReleaseColorBuffer(bufID core.CommandBufferID, colorBuffer uint32) error {
	entry, err := h.CommandBuffers.Get(bufID)
	if err != nil {
		return err
	}
	return h.Tracker.RecordColorBufferRelease(entry.Handle, colorBuffer)
}
