// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package state

import "github.com/virtgpu/vkhost/vkabi"

// ShaderModule is the record for a live VkShaderModule.
type ShaderModule struct {
	Handle vkabi.ShaderModule
	Device vkabi.Device
}

// PipelineCache is the record for a live VkPipelineCache.
type PipelineCache struct {
	Handle vkabi.PipelineCache
	Device vkabi.Device
}

// Pipeline is the record for a live VkPipeline, graphics or compute
// (spec.md §3: "pipeline (cache, graphics, compute)").
type Pipeline struct {
	Handle     vkabi.Pipeline
	Device     vkabi.Device
	Layout     vkabi.PipelineLayout
	IsCompute  bool
}

// RenderPass is the record for a live VkRenderPass. It keeps only the
// attachment count; which ColorBuffer each attachment ultimately targets
// is recorded on Framebuffer (AttachmentColorBuffers), not here.
type RenderPass struct {
	Handle          vkabi.RenderPass
	Device          vkabi.Device
	AttachmentCount uint32
}

// Framebuffer is the record for a live VkFramebuffer.
type Framebuffer struct {
	Handle      vkabi.Framebuffer
	Device      vkabi.Device
	RenderPass  vkabi.RenderPass
	// AttachmentColorBuffers maps attachment index to the ColorBuffer id
	// its image view ultimately points to, 0 if that attachment is not
	// ColorBuffer-backed (spec.md §3).
	AttachmentColorBuffers map[uint32]uint32
}

// CreateShaderModule registers a newly created shader module.
func (t *Tracker) CreateShaderModule(handle vkabi.ShaderModule, device vkabi.Device) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shaderModules[handle] = &ShaderModule{Handle: handle, Device: device}
}

// ShaderModule looks up a shader module record.
func (t *Tracker) ShaderModule(handle vkabi.ShaderModule) (*ShaderModule, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.shaderModules[handle]
	return rec, ok
}

// DestroyShaderModule removes the shader module record.
func (t *Tracker) DestroyShaderModule(handle vkabi.ShaderModule) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.shaderModules, handle)
}

// CreatePipelineCache registers a newly created pipeline cache.
func (t *Tracker) CreatePipelineCache(handle vkabi.PipelineCache, device vkabi.Device) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pipelineCaches[handle] = &PipelineCache{Handle: handle, Device: device}
}

// PipelineCache looks up a pipeline cache record.
func (t *Tracker) PipelineCache(handle vkabi.PipelineCache) (*PipelineCache, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.pipelineCaches[handle]
	return rec, ok
}

// DestroyPipelineCache removes the pipeline cache record.
func (t *Tracker) DestroyPipelineCache(handle vkabi.PipelineCache) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pipelineCaches, handle)
}

// CreatePipeline registers a newly created graphics or compute pipeline.
func (t *Tracker) CreatePipeline(handle vkabi.Pipeline, device vkabi.Device, layout vkabi.PipelineLayout, isCompute bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pipelines[handle] = &Pipeline{Handle: handle, Device: device, Layout: layout, IsCompute: isCompute}
}

// Pipeline looks up a pipeline record.
func (t *Tracker) Pipeline(handle vkabi.Pipeline) (*Pipeline, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.pipelines[handle]
	return rec, ok
}

// DestroyPipeline removes the pipeline record.
func (t *Tracker) DestroyPipeline(handle vkabi.Pipeline) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pipelines, handle)
}

// CreateRenderPass registers a newly created render pass.
func (t *Tracker) CreateRenderPass(handle vkabi.RenderPass, device vkabi.Device, attachmentCount uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.renderPasses[handle] = &RenderPass{Handle: handle, Device: device, AttachmentCount: attachmentCount}
}

// RenderPass looks up a render pass record.
func (t *Tracker) RenderPass(handle vkabi.RenderPass) (*RenderPass, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.renderPasses[handle]
	return rec, ok
}

// DestroyRenderPass removes the render pass record.
func (t *Tracker) DestroyRenderPass(handle vkabi.RenderPass) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.renderPasses, handle)
}

// CreateFramebuffer registers a newly created framebuffer, recording
// which ColorBuffer (if any) each attachment ultimately targets.
func (t *Tracker) CreateFramebuffer(handle vkabi.Framebuffer, device vkabi.Device, renderPass vkabi.RenderPass, attachmentColorBuffers map[uint32]uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if attachmentColorBuffers == nil {
		attachmentColorBuffers = make(map[uint32]uint32)
	}
	t.framebuffers[handle] = &Framebuffer{
		Handle: handle, Device: device, RenderPass: renderPass,
		AttachmentColorBuffers: attachmentColorBuffers,
	}
}

// Framebuffer looks up a framebuffer record.
func (t *Tracker) Framebuffer(handle vkabi.Framebuffer) (*Framebuffer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.framebuffers[handle]
	return rec, ok
}

// DestroyFramebuffer removes the framebuffer record.
func (t *Tracker) DestroyFramebuffer(handle vkabi.Framebuffer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.framebuffers, handle)
}
