// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package snapshot

import (
	"github.com/virtgpu/vkhost/state"
	"github.com/virtgpu/vkhost/vkabi"
)

// Recorder is the "auxiliary recorder that understands every Vulkan-call
// boxed shape" spec.md §4.10 names for snapshot save, and that Load
// replays creation calls through. Every method takes only Go-native
// parameters and returns a native handle: this package never builds the
// real VkXCreateInfo structs itself (vkabi.ImageCreateInfo and
// vkabi.BufferCreateInfo are explicitly documented projections, not
// ABI-compatible structs — see vkabi/types.go), so the embedding host,
// which already knows how to build those structs for normal dispatch,
// implements this interface.
//
// Instances and PhysicalDevices have no Recorder methods: this module
// treats them as stable host-session identifiers that outlive a
// snapshot boundary (spec.md §8 scenario 6's round-trip example never
// recreates either), so Load expects the host's live VkInstance and
// VkPhysicalDevice to already be registered before it runs.
type Recorder interface {
	// CreateDevice replays vkCreateDevice against the given physical
	// device, requesting enabledExtensions and producing host queues
	// for the families named in queueFamilyMap (guest index -> host
	// index, as state.Device.QueueFamilyMap records it).
	CreateDevice(physicalDevice vkabi.PhysicalDevice, enabledExtensions []string, queueFamilyMap map[uint32]uint32) (vkabi.Device, vkabi.Result)

	// GetDeviceQueue replays vkGetDeviceQueue.
	GetDeviceQueue(device vkabi.Device, familyIndex, index uint32) (vkabi.Queue, error)

	// AllocateMemory replays vkAllocateMemory with no import/export
	// pathway — snapshot restores plain allocations only.
	AllocateMemory(device vkabi.Device, size uint64, memoryTypeIndex uint32) (vkabi.DeviceMemory, vkabi.Result)

	// CreateBuffer replays vkCreateBuffer.
	CreateBuffer(device vkabi.Device, info vkabi.BufferCreateInfo) (vkabi.Buffer, vkabi.Result)

	// CreateImage replays vkCreateImage.
	CreateImage(device vkabi.Device, info vkabi.ImageCreateInfo) (vkabi.Image, vkabi.Result)

	// CreateImageView replays vkCreateImageView over image.
	CreateImageView(device vkabi.Device, image vkabi.Image) (vkabi.ImageView, vkabi.Result)

	// CreateSampler replays vkCreateSampler, applying the opaque-alpha
	// border-colour emulation (spec.md §4.7) when requested.
	CreateSampler(device vkabi.Device, emulatedOpaqueAlpha bool) (vkabi.Sampler, vkabi.Result)

	// CreateSemaphore replays vkCreateSemaphore.
	CreateSemaphore(device vkabi.Device) (vkabi.Semaphore, vkabi.Result)

	// CreateFenceSignaled replays vkCreateFence with
	// VK_FENCE_CREATE_SIGNALED_BIT forced on (spec.md §4.10 load step 2),
	// regardless of what the captured fence's original create flags were.
	CreateFenceSignaled(device vkabi.Device) (vkabi.Fence, vkabi.Result)

	// CreateDescriptorSetLayout replays vkCreateDescriptorSetLayout.
	CreateDescriptorSetLayout(device vkabi.Device, bindings []state.DescriptorBinding) (vkabi.DescriptorSetLayout, vkabi.Result)

	// CreateDescriptorPool replays vkCreateDescriptorPool, sized to hold
	// setCount sets built from the given layouts.
	CreateDescriptorPool(device vkabi.Device, setCount uint32, layouts []vkabi.DescriptorSetLayout) (vkabi.DescriptorPool, vkabi.Result)

	// AllocateDescriptorSet replays one slot of vkAllocateDescriptorSets.
	AllocateDescriptorSet(device vkabi.Device, pool vkabi.DescriptorPool, layout vkabi.DescriptorSetLayout) (vkabi.DescriptorSet, vkabi.Result)

	// BindBufferMemory replays vkBindBufferMemory.
	BindBufferMemory(device vkabi.Device, buffer vkabi.Buffer, memory vkabi.DeviceMemory, offset uint64) vkabi.Result

	// BindImageMemory replays vkBindImageMemory.
	BindImageMemory(device vkabi.Device, image vkabi.Image, memory vkabi.DeviceMemory, offset uint64) vkabi.Result

	// WriteDescriptorSet replays one descriptor write by building the
	// native VkWriteDescriptorSet and submitting it through the same
	// queue_commit_descriptor_set_updates path runtime writes use
	// (spec.md §4.10 load step 6). A zero buffer/imageView/sampler/
	// texelBufferView argument means that field was absent from the
	// original write.
	WriteDescriptorSet(device vkabi.Device, set vkabi.DescriptorSet, binding, arrayElement, descriptorType uint32,
		buffer vkabi.Buffer, imageView vkabi.ImageView, sampler vkabi.Sampler, texelBufferView vkabi.BufferView) error
}

// ContentTransfer is the collaborator that moves image and buffer pixel
// contents to and from the host process during save/load, via "a
// transient command pool, queue, and single-shot copy into a staging
// buffer" (spec.md §4.10). Building the native VkBufferCreateInfo,
// VkCommandBufferAllocateInfo, VkBufferImageCopy, and
// VkImageMemoryBarrier structs this requires is the caller's
// responsibility, matching the convention CreateImage's compressed-
// format detour already established (dispatch/resource.go).
type ContentTransfer interface {
	// ReadBuffer copies buffer's full contents out to host memory.
	ReadBuffer(device vkabi.Device, buffer vkabi.Buffer, size uint64) ([]byte, error)

	// WriteBuffer copies data into buffer, replacing its contents.
	WriteBuffer(device vkabi.Device, buffer vkabi.Buffer, data []byte) error

	// ReadImage reports image's current layout and copies its full
	// pixel contents out to host memory, one entry per mip/array
	// layer in a fixed, implementation-defined order that WriteImage's
	// data argument must reproduce on load.
	ReadImage(device vkabi.Device, image vkabi.Image, info vkabi.ImageCreateInfo) (layout uint32, data []byte, err error)

	// WriteImage restores image's layout (via a transient pipeline
	// barrier) and then its pixel contents (via staging-buffer copy).
	WriteImage(device vkabi.Device, image vkabi.Image, info vkabi.ImageCreateInfo, layout uint32, data []byte) error
}
