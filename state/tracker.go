// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package state holds the global state registries (spec.md §4.4): the
// business-data record for every live Instance, Device, Queue, Memory,
// Image, Buffer, Semaphore, Fence, DescriptorSetLayout/Pool/Set,
// CommandPool/CommandBuffer, and Pipeline family object, keyed by its
// native vkabi handle rather than a generational ID — unlike boxed,
// which deliberately uses generational tokens, these registries exist
// purely to answer "what do we know about this handle" while the handle
// is live, and a plain map already gives that with no extra bookkeeping.
//
// Every registry sits behind one Tracker-wide mutex (spec.md §5's
// "single global recursive mutex"). Go has no recursive mutex, so this
// is implemented as a single non-recursive sync.Mutex plus a strict
// discipline: no exported Tracker method ever calls another exported
// Tracker method while holding the lock. Methods that need to invoke
// dispatch-transform logic take an unlocked snapshot of whatever state
// they need first, then call out after releasing the lock. This gives
// the same external guarantee the original recursive mutex did (total
// ordering of registry mutation) without needing reentrancy.
package state

import (
	"sync"

	"github.com/virtgpu/vkhost/vkabi"
)

// Tracker is the process-wide state registry. spec.md §6 calls for a
// process-wide singleton; the facade owns the single instance, tests
// construct their own with New.
type Tracker struct {
	mu sync.Mutex

	instances      map[vkabi.Instance]*Instance
	physicalDevices map[vkabi.PhysicalDevice]*PhysicalDevice
	devices        map[vkabi.Device]*Device
	queues         map[vkabi.Queue]*Queue
	memories       map[vkabi.DeviceMemory]*Memory
	buffers        map[vkabi.Buffer]*Buffer
	images         map[vkabi.Image]*Image
	imageViews     map[vkabi.ImageView]*ImageView
	samplers       map[vkabi.Sampler]*Sampler
	semaphores     map[vkabi.Semaphore]*Semaphore
	fences         map[vkabi.Fence]*Fence
	descSetLayouts map[vkabi.DescriptorSetLayout]*DescriptorSetLayout
	descPools      map[vkabi.DescriptorPool]*DescriptorPool
	descSets       map[vkabi.DescriptorSet]*DescriptorSet
	cmdPools       map[vkabi.CommandPool]*CommandPool
	cmdBuffers     map[vkabi.CommandBuffer]*CommandBuffer
	shaderModules  map[vkabi.ShaderModule]*ShaderModule
	pipelineCaches map[vkabi.PipelineCache]*PipelineCache
	pipelines      map[vkabi.Pipeline]*Pipeline
	renderPasses   map[vkabi.RenderPass]*RenderPass
	framebuffers   map[vkabi.Framebuffer]*Framebuffer
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{
		instances:       make(map[vkabi.Instance]*Instance),
		physicalDevices: make(map[vkabi.PhysicalDevice]*PhysicalDevice),
		devices:         make(map[vkabi.Device]*Device),
		queues:          make(map[vkabi.Queue]*Queue),
		memories:        make(map[vkabi.DeviceMemory]*Memory),
		buffers:         make(map[vkabi.Buffer]*Buffer),
		images:          make(map[vkabi.Image]*Image),
		imageViews:      make(map[vkabi.ImageView]*ImageView),
		samplers:        make(map[vkabi.Sampler]*Sampler),
		semaphores:      make(map[vkabi.Semaphore]*Semaphore),
		fences:          make(map[vkabi.Fence]*Fence),
		descSetLayouts:  make(map[vkabi.DescriptorSetLayout]*DescriptorSetLayout),
		descPools:       make(map[vkabi.DescriptorPool]*DescriptorPool),
		descSets:        make(map[vkabi.DescriptorSet]*DescriptorSet),
		cmdPools:        make(map[vkabi.CommandPool]*CommandPool),
		cmdBuffers:      make(map[vkabi.CommandBuffer]*CommandBuffer),
		shaderModules:   make(map[vkabi.ShaderModule]*ShaderModule),
		pipelineCaches:  make(map[vkabi.PipelineCache]*PipelineCache),
		pipelines:       make(map[vkabi.Pipeline]*Pipeline),
		renderPasses:    make(map[vkabi.RenderPass]*RenderPass),
		framebuffers:    make(map[vkabi.Framebuffer]*Framebuffer),
	}
}

// Reset discards every record except Instance and PhysicalDevice,
// keeping the Tracker usable afterward. Snapshot load's first step
// (spec.md §4.10: "clear all registries") uses this instead of taking a
// fresh Tracker so the facade keeps its one long-lived pointer across a
// load; Instance/PhysicalDevice survive because this module never
// replays their creation on load (dispatch.Hub.ResetForSnapshotLoad).
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.devices = make(map[vkabi.Device]*Device)
	t.queues = make(map[vkabi.Queue]*Queue)
	t.memories = make(map[vkabi.DeviceMemory]*Memory)
	t.buffers = make(map[vkabi.Buffer]*Buffer)
	t.images = make(map[vkabi.Image]*Image)
	t.imageViews = make(map[vkabi.ImageView]*ImageView)
	t.samplers = make(map[vkabi.Sampler]*Sampler)
	t.semaphores = make(map[vkabi.Semaphore]*Semaphore)
	t.fences = make(map[vkabi.Fence]*Fence)
	t.descSetLayouts = make(map[vkabi.DescriptorSetLayout]*DescriptorSetLayout)
	t.descPools = make(map[vkabi.DescriptorPool]*DescriptorPool)
	t.descSets = make(map[vkabi.DescriptorSet]*DescriptorSet)
	t.cmdPools = make(map[vkabi.CommandPool]*CommandPool)
	t.cmdBuffers = make(map[vkabi.CommandBuffer]*CommandBuffer)
	t.shaderModules = make(map[vkabi.ShaderModule]*ShaderModule)
	t.pipelineCaches = make(map[vkabi.PipelineCache]*PipelineCache)
	t.pipelines = make(map[vkabi.Pipeline]*Pipeline)
	t.renderPasses = make(map[vkabi.RenderPass]*RenderPass)
	t.framebuffers = make(map[vkabi.Framebuffer]*Framebuffer)
}
