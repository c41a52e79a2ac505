// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package state

import (
	"testing"

	"github.com/virtgpu/vkhost/vkabi"
)

func TestInstanceAndPhysicalDeviceLifecycle(t *testing.T) {
	tr := New()
	tr.CreateInstance(vkabi.Instance(1), []string{"VK_KHR_surface"}, 1<<22)

	rec, ok := tr.Instance(vkabi.Instance(1))
	if !ok || rec.ApiVersion != 1<<22 || len(rec.EnabledExtensions) != 1 {
		t.Fatalf("Instance record = %+v, %v", rec, ok)
	}

	props := vkabi.PhysicalDeviceMemoryProperties{MemoryTypeCount: 1}
	tr.CreatePhysicalDevice(vkabi.PhysicalDevice(1), vkabi.Instance(1), props, nil)
	pd, ok := tr.PhysicalDevice(vkabi.PhysicalDevice(1))
	if !ok || pd.Instance != vkabi.Instance(1) {
		t.Fatalf("PhysicalDevice record = %+v, %v", pd, ok)
	}

	tr.DestroyInstance(vkabi.Instance(1))
	if _, ok := tr.Instance(vkabi.Instance(1)); ok {
		t.Fatal("instance survived DestroyInstance")
	}
}

func TestCommandPoolDestroyFreesItsBuffers(t *testing.T) {
	tr := New()
	tr.CreateCommandPool(vkabi.CommandPool(1), vkabi.Device(1), 0)
	tr.CreateCommandPool(vkabi.CommandPool(2), vkabi.Device(1), 0)
	tr.CreateCommandBuffer(vkabi.CommandBuffer(1), vkabi.Device(1), vkabi.CommandPool(1))
	tr.CreateCommandBuffer(vkabi.CommandBuffer(2), vkabi.Device(1), vkabi.CommandPool(2))

	tr.DestroyCommandPool(vkabi.CommandPool(1))

	if _, ok := tr.CommandBuffer(vkabi.CommandBuffer(1)); ok {
		t.Error("command buffer from destroyed pool survived")
	}
	if _, ok := tr.CommandBuffer(vkabi.CommandBuffer(2)); !ok {
		t.Error("command buffer from unrelated pool was incorrectly removed")
	}
}

func TestCommandBufferFreshRecordHasInitializedMaps(t *testing.T) {
	tr := New()
	tr.CreateCommandBuffer(vkabi.CommandBuffer(1), vkabi.Device(1), vkabi.CommandPool(1))
	rec, ok := tr.CommandBuffer(vkabi.CommandBuffer(1))
	if !ok {
		t.Fatal("CommandBuffer lookup failed")
	}
	if rec.NewImageLayouts == nil || rec.AcquiredColorBuffers == nil || rec.ReleasedColorBuffers == nil {
		t.Fatalf("fresh command buffer record has nil maps: %+v", rec)
	}
}

func TestResetCommandBufferClearsRecordedState(t *testing.T) {
	tr := New()
	tr.CreateCommandBuffer(vkabi.CommandBuffer(1), vkabi.Device(1), vkabi.CommandPool(1))
	_ = tr.RecordNewImageLayout(vkabi.CommandBuffer(1), vkabi.Image(1), 2)
	_ = tr.RecordColorBufferAcquire(vkabi.CommandBuffer(1), 5, 2)
	_ = tr.AddPreSubmitHook(vkabi.CommandBuffer(1), func() {})

	if err := tr.ResetCommandBuffer(vkabi.CommandBuffer(1)); err != nil {
		t.Fatalf("ResetCommandBuffer: %v", err)
	}

	rec, _ := tr.CommandBuffer(vkabi.CommandBuffer(1))
	if len(rec.NewImageLayouts) != 0 || len(rec.AcquiredColorBuffers) != 0 || len(rec.PreSubmitHooks) != 0 {
		t.Fatalf("record after reset = %+v, want all cleared", rec)
	}
	// Identity (device/pool) must survive the reset.
	if rec.Device != vkabi.Device(1) || rec.Pool != vkabi.CommandPool(1) {
		t.Fatalf("record identity after reset = %+v, want Device(1)/CommandPool(1)", rec)
	}
}

func TestResetCommandBufferUnknownHandle(t *testing.T) {
	tr := New()
	if err := tr.ResetCommandBuffer(vkabi.CommandBuffer(99)); err != ErrUnknownHandle {
		t.Fatalf("ResetCommandBuffer on unknown handle = %v, want ErrUnknownHandle", err)
	}
}

func TestRecordBoundComputeStateUnknownHandle(t *testing.T) {
	tr := New()
	if err := tr.RecordBoundComputePipeline(vkabi.CommandBuffer(1), vkabi.Pipeline(1)); err != ErrUnknownHandle {
		t.Fatalf("RecordBoundComputePipeline on unknown handle = %v, want ErrUnknownHandle", err)
	}
	if err := tr.RecordBoundDescriptorSets(vkabi.CommandBuffer(1), nil); err != ErrUnknownHandle {
		t.Fatalf("RecordBoundDescriptorSets on unknown handle = %v, want ErrUnknownHandle", err)
	}
}

func TestRecordBoundComputePipelineAndDescriptorSets(t *testing.T) {
	tr := New()
	tr.CreateCommandBuffer(vkabi.CommandBuffer(1), vkabi.Device(1), vkabi.CommandPool(1))

	if err := tr.RecordBoundComputePipeline(vkabi.CommandBuffer(1), vkabi.Pipeline(7)); err != nil {
		t.Fatalf("RecordBoundComputePipeline: %v", err)
	}
	sets := []vkabi.DescriptorSet{1, 2, 3}
	if err := tr.RecordBoundDescriptorSets(vkabi.CommandBuffer(1), sets); err != nil {
		t.Fatalf("RecordBoundDescriptorSets: %v", err)
	}

	rec, _ := tr.CommandBuffer(vkabi.CommandBuffer(1))
	if rec.LastBoundComputePipeline != vkabi.Pipeline(7) {
		t.Fatalf("LastBoundComputePipeline = %v, want 7", rec.LastBoundComputePipeline)
	}
	if len(rec.LastBoundDescriptorSets) != 3 {
		t.Fatalf("LastBoundDescriptorSets len = %d, want 3", len(rec.LastBoundDescriptorSets))
	}

	// Mutating the caller's slice afterward must not affect the stored copy.
	sets[0] = 99
	rec, _ = tr.CommandBuffer(vkabi.CommandBuffer(1))
	if rec.LastBoundDescriptorSets[0] != 1 {
		t.Fatal("RecordBoundDescriptorSets must copy the slice, not alias it")
	}
}

func TestColorBufferAcquireReleaseBookkeeping(t *testing.T) {
	tr := New()
	tr.CreateCommandBuffer(vkabi.CommandBuffer(1), vkabi.Device(1), vkabi.CommandPool(1))

	if err := tr.RecordColorBufferAcquire(vkabi.CommandBuffer(1), 3, 5); err != nil {
		t.Fatalf("RecordColorBufferAcquire: %v", err)
	}
	if err := tr.RecordColorBufferRelease(vkabi.CommandBuffer(1), 3); err != nil {
		t.Fatalf("RecordColorBufferRelease: %v", err)
	}

	rec, _ := tr.CommandBuffer(vkabi.CommandBuffer(1))
	if rec.AcquiredColorBuffers[3] != 5 {
		t.Fatalf("AcquiredColorBuffers[3] = %d, want 5", rec.AcquiredColorBuffers[3])
	}
	if !rec.ReleasedColorBuffers[3] {
		t.Fatal("ReleasedColorBuffers[3] not set")
	}
}

func TestAddPreSubmitHookAccumulates(t *testing.T) {
	tr := New()
	tr.CreateCommandBuffer(vkabi.CommandBuffer(1), vkabi.Device(1), vkabi.CommandPool(1))

	var ran []int
	_ = tr.AddPreSubmitHook(vkabi.CommandBuffer(1), func() { ran = append(ran, 1) })
	_ = tr.AddPreSubmitHook(vkabi.CommandBuffer(1), func() { ran = append(ran, 2) })

	rec, _ := tr.CommandBuffer(vkabi.CommandBuffer(1))
	if len(rec.PreSubmitHooks) != 2 {
		t.Fatalf("len(PreSubmitHooks) = %d, want 2", len(rec.PreSubmitHooks))
	}
	for _, hook := range rec.PreSubmitHooks {
		hook()
	}
	if len(ran) != 2 || ran[0] != 1 || ran[1] != 2 {
		t.Fatalf("ran = %v, want [1 2]", ran)
	}
}

func TestPipelineCacheAndPipelineLifecycle(t *testing.T) {
	tr := New()
	tr.CreatePipelineCache(vkabi.PipelineCache(1), vkabi.Device(1))
	if _, ok := tr.PipelineCache(vkabi.PipelineCache(1)); !ok {
		t.Fatal("PipelineCache not registered")
	}
	tr.DestroyPipelineCache(vkabi.PipelineCache(1))
	if _, ok := tr.PipelineCache(vkabi.PipelineCache(1)); ok {
		t.Fatal("pipeline cache survived destroy")
	}

	tr.CreatePipeline(vkabi.Pipeline(1), vkabi.Device(1), vkabi.PipelineLayout(2), true)
	p, ok := tr.Pipeline(vkabi.Pipeline(1))
	if !ok || !p.IsCompute || p.Layout != vkabi.PipelineLayout(2) {
		t.Fatalf("Pipeline record = %+v, %v", p, ok)
	}
	tr.DestroyPipeline(vkabi.Pipeline(1))
	if _, ok := tr.Pipeline(vkabi.Pipeline(1)); ok {
		t.Fatal("pipeline survived destroy")
	}
}

func TestRenderPassAndFramebufferLifecycle(t *testing.T) {
	tr := New()
	tr.CreateRenderPass(vkabi.RenderPass(1), vkabi.Device(1), 2)
	rp, ok := tr.RenderPass(vkabi.RenderPass(1))
	if !ok || rp.AttachmentCount != 2 {
		t.Fatalf("RenderPass record = %+v, %v", rp, ok)
	}

	tr.CreateFramebuffer(vkabi.Framebuffer(1), vkabi.Device(1), vkabi.RenderPass(1), map[uint32]uint32{0: 9})
	fb, ok := tr.Framebuffer(vkabi.Framebuffer(1))
	if !ok || fb.AttachmentColorBuffers[0] != 9 {
		t.Fatalf("Framebuffer record = %+v, %v", fb, ok)
	}

	tr.DestroyRenderPass(vkabi.RenderPass(1))
	tr.DestroyFramebuffer(vkabi.Framebuffer(1))
	if _, ok := tr.RenderPass(vkabi.RenderPass(1)); ok {
		t.Fatal("render pass survived destroy")
	}
	if _, ok := tr.Framebuffer(vkabi.Framebuffer(1)); ok {
		t.Fatal("framebuffer survived destroy")
	}
}

func TestCreateFramebufferNilMapInitialized(t *testing.T) {
	tr := New()
	tr.CreateFramebuffer(vkabi.Framebuffer(1), vkabi.Device(1), vkabi.RenderPass(1), nil)
	fb, ok := tr.Framebuffer(vkabi.Framebuffer(1))
	if !ok || fb.AttachmentColorBuffers == nil {
		t.Fatalf("Framebuffer.AttachmentColorBuffers = %v, want non-nil empty map", fb.AttachmentColorBuffers)
	}
}

func TestShaderModuleLifecycle(t *testing.T) {
	tr := New()
	tr.CreateShaderModule(vkabi.ShaderModule(1), vkabi.Device(1))
	if _, ok := tr.ShaderModule(vkabi.ShaderModule(1)); !ok {
		t.Fatal("ShaderModule not registered")
	}
	tr.DestroyShaderModule(vkabi.ShaderModule(1))
	if _, ok := tr.ShaderModule(vkabi.ShaderModule(1)); ok {
		t.Fatal("shader module survived destroy")
	}
}

func TestSemaphoreLifecycle(t *testing.T) {
	tr := New()
	tr.CreateSemaphore(vkabi.Semaphore(1), vkabi.Device(1))
	if _, ok := tr.Semaphore(vkabi.Semaphore(1)); !ok {
		t.Fatal("Semaphore not registered")
	}
	tr.DestroySemaphore(vkabi.Semaphore(1))
	if _, ok := tr.Semaphore(vkabi.Semaphore(1)); ok {
		t.Fatal("semaphore survived destroy")
	}
}

func TestFenceSubmissionSequenceTracking(t *testing.T) {
	tr := New()
	tr.CreateFence(vkabi.Fence(1), vkabi.Device(1), false)

	if err := tr.RecordFenceSubmission(vkabi.Fence(1), 42); err != nil {
		t.Fatalf("RecordFenceSubmission: %v", err)
	}
	rec, ok := tr.Fence(vkabi.Fence(1))
	if !ok || rec.SubmittedSeq != 42 {
		t.Fatalf("Fence record = %+v, %v", rec, ok)
	}

	tr.DestroyFence(vkabi.Fence(1))
	if _, ok := tr.Fence(vkabi.Fence(1)); ok {
		t.Fatal("fence survived destroy")
	}
}

func TestFenceExternalFlagRecorded(t *testing.T) {
	tr := New()
	tr.CreateFence(vkabi.Fence(2), vkabi.Device(1), true)
	rec, ok := tr.Fence(vkabi.Fence(2))
	if !ok || !rec.External {
		t.Fatalf("Fence(2) External = %v, ok = %v, want true, true", rec, ok)
	}
}

func TestRecordFenceSubmissionUnknownHandle(t *testing.T) {
	tr := New()
	if err := tr.RecordFenceSubmission(vkabi.Fence(99), 1); err != ErrUnknownHandle {
		t.Fatalf("RecordFenceSubmission on unknown fence = %v, want ErrUnknownHandle", err)
	}
}
