// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dispatch

import (
	"unsafe"

	"github.com/virtgpu/vkhost/core"
	"github.com/virtgpu/vkhost/state"
	"github.com/virtgpu/vkhost/vkabi"
)

// CreateShaderModule implements vkCreateShaderModule. The guest supplies
// the SPIR-V blob already translated (or passed through) by whatever
// upstream collaborator owns shader translation — this package never
// inspects it (SPEC_FULL.md's DOMAIN STACK note on shader translation).
func (h *Hub) CreateShaderModule(deviceID core.DeviceID, createInfo unsafe.Pointer) (core.ShaderModuleID, vkabi.Result) {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return core.ShaderModuleID{}, vkabi.ErrorInitializationFailed
	}
	device := devEntry.Handle
	ext, ok := h.DeviceExt(device)
	if !ok {
		return core.ShaderModuleID{}, vkabi.ErrorInitializationFailed
	}

	var module vkabi.ShaderModule
	res := ext.Cmds.CreateShaderModule(device, createInfo, &module)
	if !res.IsSuccess() {
		return core.ShaderModuleID{}, res
	}
	h.Tracker.CreateShaderModule(module, device)
	return h.ShaderModules.Add(module, nil), vkabi.Success
}

// DestroyShaderModule implements vkDestroyShaderModule.
func (h *Hub) DestroyShaderModule(id core.ShaderModuleID) error {
	entry, err := h.ShaderModules.Get(id)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.ShaderModule(entry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return ErrUnknownDevice
	}
	ext.Cmds.DestroyShaderModule(rec.Device, entry.Handle)
	h.Tracker.DestroyShaderModule(entry.Handle)
	_, _ = h.ShaderModules.Remove(id)
	return nil
}

// CreatePipelineLayout implements vkCreatePipelineLayout. Pipeline
// layouts are not tracked by state.Tracker beyond boxing, since nothing
// else in this module needs to inspect one after creation — only
// CreatePipeline and the compressed-texture detour's bindings care
// about the native handle, which the boxed manager already carries.
func (h *Hub) CreatePipelineLayout(deviceID core.DeviceID, createInfo unsafe.Pointer) (core.PipelineLayoutID, vkabi.Result) {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return core.PipelineLayoutID{}, vkabi.ErrorInitializationFailed
	}
	device := devEntry.Handle
	ext, ok := h.DeviceExt(device)
	if !ok {
		return core.PipelineLayoutID{}, vkabi.ErrorInitializationFailed
	}

	var layout vkabi.PipelineLayout
	res := ext.Cmds.CreatePipelineLayout(device, createInfo, &layout)
	if !res.IsSuccess() {
		return core.PipelineLayoutID{}, res
	}
	return h.PipelineLayouts.Add(layout, device), vkabi.Success
}

// DestroyPipelineLayout implements vkDestroyPipelineLayout.
func (h *Hub) DestroyPipelineLayout(id core.PipelineLayoutID) error {
	entry, err := h.PipelineLayouts.Get(id)
	if err != nil {
		return err
	}
	device, ok := entry.Meta.(vkabi.Device)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(device)
	if !ok {
		return ErrUnknownDevice
	}
	ext.Cmds.DestroyPipelineLayout(device, entry.Handle)
	_, _ = h.PipelineLayouts.Remove(id)
	return nil
}

// CreatePipelineCache implements vkCreatePipelineCache.
func (h *Hub) CreatePipelineCache(deviceID core.DeviceID, createInfo unsafe.Pointer) (core.PipelineCacheID, vkabi.Result) {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return core.PipelineCacheID{}, vkabi.ErrorInitializationFailed
	}
	device := devEntry.Handle
	ext, ok := h.DeviceExt(device)
	if !ok {
		return core.PipelineCacheID{}, vkabi.ErrorInitializationFailed
	}

	var cache vkabi.PipelineCache
	res := ext.Cmds.CreatePipelineCache(device, createInfo, &cache)
	if !res.IsSuccess() {
		return core.PipelineCacheID{}, res
	}
	h.Tracker.CreatePipelineCache(cache, device)
	return h.PipelineCaches.Add(cache, nil), vkabi.Success
}

// DestroyPipelineCache implements vkDestroyPipelineCache.
func (h *Hub) DestroyPipelineCache(id core.PipelineCacheID) error {
	entry, err := h.PipelineCaches.Get(id)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.PipelineCache(entry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return ErrUnknownDevice
	}
	ext.Cmds.DestroyPipelineCache(rec.Device, entry.Handle)
	h.Tracker.DestroyPipelineCache(entry.Handle)
	_, _ = h.PipelineCaches.Remove(id)
	return nil
}

// cachedOrNull resolves an optional boxed pipeline cache token to its
// native handle, or the null handle when the guest passed
// VK_NULL_HANDLE (zero ID).
func (h *Hub) cachedOrNull(cacheID core.PipelineCacheID) vkabi.PipelineCache {
	if cacheID.IsZero() {
		return 0
	}
	entry, err := h.PipelineCaches.Get(cacheID)
	if err != nil {
		return 0
	}
	return entry.Handle
}

// CreateComputePipelines implements vkCreateComputePipelines for a
// single pipeline (the guest's batched-create call is unrolled to one
// dispatch per pipeline by the caller, matching the convention
// CreateGraphicsPipelines below follows).
func (h *Hub) CreateComputePipelines(deviceID core.DeviceID, cacheID core.PipelineCacheID, createInfo unsafe.Pointer, layout vkabi.PipelineLayout) (core.PipelineID, vkabi.Result) {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return core.PipelineID{}, vkabi.ErrorInitializationFailed
	}
	device := devEntry.Handle
	ext, ok := h.DeviceExt(device)
	if !ok {
		return core.PipelineID{}, vkabi.ErrorInitializationFailed
	}

	var pipeline vkabi.Pipeline
	res := ext.Cmds.CreateComputePipelines(device, h.cachedOrNull(cacheID), 1, createInfo, &pipeline)
	if !res.IsSuccess() {
		return core.PipelineID{}, res
	}
	h.Tracker.CreatePipeline(pipeline, device, layout, true)
	return h.Pipelines.Add(pipeline, nil), vkabi.Success
}

// CreateGraphicsPipelines implements vkCreateGraphicsPipelines for a
// single pipeline.
func (h *Hub) CreateGraphicsPipelines(deviceID core.DeviceID, cacheID core.PipelineCacheID, createInfo unsafe.Pointer, layout vkabi.PipelineLayout) (core.PipelineID, vkabi.Result) {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return core.PipelineID{}, vkabi.ErrorInitializationFailed
	}
	device := devEntry.Handle
	ext, ok := h.DeviceExt(device)
	if !ok {
		return core.PipelineID{}, vkabi.ErrorInitializationFailed
	}

	var pipeline vkabi.Pipeline
	res := ext.Cmds.CreateGraphicsPipelines(device, h.cachedOrNull(cacheID), 1, createInfo, &pipeline)
	if !res.IsSuccess() {
		return core.PipelineID{}, res
	}
	h.Tracker.CreatePipeline(pipeline, device, layout, false)
	return h.Pipelines.Add(pipeline, nil), vkabi.Success
}

// DestroyPipeline implements vkDestroyPipeline.
func (h *Hub) DestroyPipeline(id core.PipelineID) error {
	entry, err := h.Pipelines.Get(id)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.Pipeline(entry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return ErrUnknownDevice
	}
	ext.Cmds.DestroyPipeline(rec.Device, entry.Handle)
	h.Tracker.DestroyPipeline(entry.Handle)
	_, _ = h.Pipelines.Remove(id)
	return nil
}

// CreateRenderPass implements vkCreateRenderPass / vkCreateRenderPass2.
func (h *Hub) CreateRenderPass(deviceID core.DeviceID, createInfo unsafe.Pointer, attachmentCount uint32) (core.RenderPassID, vkabi.Result) {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return core.RenderPassID{}, vkabi.ErrorInitializationFailed
	}
	device := devEntry.Handle
	ext, ok := h.DeviceExt(device)
	if !ok {
		return core.RenderPassID{}, vkabi.ErrorInitializationFailed
	}

	var renderPass vkabi.RenderPass
	res := ext.Cmds.CreateRenderPass(device, createInfo, &renderPass)
	if !res.IsSuccess() {
		return core.RenderPassID{}, res
	}
	h.Tracker.CreateRenderPass(renderPass, device, attachmentCount)
	return h.RenderPasses.Add(renderPass, nil), vkabi.Success
}

// DestroyRenderPass implements vkDestroyRenderPass.
func (h *Hub) DestroyRenderPass(id core.RenderPassID) error {
	entry, err := h.RenderPasses.Get(id)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.RenderPass(entry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return ErrUnknownDevice
	}
	ext.Cmds.DestroyRenderPass(rec.Device, entry.Handle)
	h.Tracker.DestroyRenderPass(entry.Handle)
	_, _ = h.RenderPasses.Remove(id)
	return nil
}

// CreateFramebuffer implements vkCreateFramebuffer. attachmentColorBuffers
// maps attachment index to the ColorBuffer id its image view ultimately
// points to (0 if none) — the caller derives this by checking each
// attachment's underlying image against ColorBuffers.GetImage, since
// that is the only direction spec.md §6's ColorBufferManager interface
// exposes. Recording it here lets QueueSubmit find the acquire/release
// targets a render pass into this framebuffer implies (spec.md §3, §4.8).
func (h *Hub) CreateFramebuffer(deviceID core.DeviceID, createInfo unsafe.Pointer, renderPassID core.RenderPassID, attachmentColorBuffers map[uint32]uint32) (core.FramebufferID, vkabi.Result) {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return core.FramebufferID{}, vkabi.ErrorInitializationFailed
	}
	device := devEntry.Handle
	ext, ok := h.DeviceExt(device)
	if !ok {
		return core.FramebufferID{}, vkabi.ErrorInitializationFailed
	}
	rpEntry, err := h.RenderPasses.Get(renderPassID)
	if err != nil {
		return core.FramebufferID{}, vkabi.ErrorInitializationFailed
	}

	var fb vkabi.Framebuffer
	res := ext.Cmds.CreateFramebuffer(device, createInfo, &fb)
	if !res.IsSuccess() {
		return core.FramebufferID{}, res
	}

	h.Tracker.CreateFramebuffer(fb, device, rpEntry.Handle, attachmentColorBuffers)
	return h.Framebuffers.Add(fb, nil), vkabi.Success
}

// DestroyFramebuffer implements vkDestroyFramebuffer.
func (h *Hub) DestroyFramebuffer(id core.FramebufferID) error {
	entry, err := h.Framebuffers.Get(id)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.Framebuffer(entry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return ErrUnknownDevice
	}
	ext.Cmds.DestroyFramebuffer(rec.Device, entry.Handle)
	h.Tracker.DestroyFramebuffer(entry.Handle)
	_, _ = h.Framebuffers.Remove(id)
	return nil
}
