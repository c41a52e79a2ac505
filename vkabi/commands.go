// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vkabi

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

// Commands is a resolved dispatch table: one goffi function pointer plus
// prepared call interface per native Vulkan entry point this module uses.
// An Instance-scoped Commands is built by LoadInstance; a Device-scoped
// one (faster device calls, matching spec.md §6's "dispatch table per
// instance and per device") is built by LoadDevice from it.
type Commands struct {
	l        *loader
	instance Instance
	device   Device

	fnCreateInstance    unsafe.Pointer
	fnDestroyInstance   unsafe.Pointer
	fnEnumeratePhysicalDevices unsafe.Pointer
	fnGetPhysicalDeviceMemoryProperties unsafe.Pointer
	fnGetPhysicalDeviceQueueFamilyProperties unsafe.Pointer
	fnCreateDevice      unsafe.Pointer
	fnDestroyDevice     unsafe.Pointer
	fnGetDeviceQueue    unsafe.Pointer
	fnDeviceWaitIdle    unsafe.Pointer

	fnAllocateMemory    unsafe.Pointer
	fnFreeMemory        unsafe.Pointer
	fnMapMemory         unsafe.Pointer
	fnUnmapMemory       unsafe.Pointer
	fnBindBufferMemory  unsafe.Pointer
	fnBindImageMemory   unsafe.Pointer

	fnCreateBuffer      unsafe.Pointer
	fnDestroyBuffer     unsafe.Pointer
	fnGetBufferMemoryRequirements unsafe.Pointer
	fnCreateImage       unsafe.Pointer
	fnDestroyImage      unsafe.Pointer
	fnGetImageMemoryRequirements unsafe.Pointer
	fnCreateImageView   unsafe.Pointer
	fnDestroyImageView  unsafe.Pointer
	fnCreateSampler     unsafe.Pointer
	fnDestroySampler    unsafe.Pointer

	fnCreateSemaphore   unsafe.Pointer
	fnDestroySemaphore  unsafe.Pointer
	fnCreateFence       unsafe.Pointer
	fnDestroyFence      unsafe.Pointer
	fnResetFences       unsafe.Pointer
	fnWaitForFences     unsafe.Pointer
	fnGetFenceStatus    unsafe.Pointer

	fnCreateDescriptorSetLayout  unsafe.Pointer
	fnDestroyDescriptorSetLayout unsafe.Pointer
	fnCreateDescriptorPool       unsafe.Pointer
	fnDestroyDescriptorPool      unsafe.Pointer
	fnResetDescriptorPool        unsafe.Pointer
	fnAllocateDescriptorSets     unsafe.Pointer
	fnFreeDescriptorSets         unsafe.Pointer
	fnUpdateDescriptorSets       unsafe.Pointer

	fnCreateCommandPool     unsafe.Pointer
	fnDestroyCommandPool    unsafe.Pointer
	fnAllocateCommandBuffers unsafe.Pointer
	fnFreeCommandBuffers    unsafe.Pointer
	fnBeginCommandBuffer    unsafe.Pointer
	fnEndCommandBuffer      unsafe.Pointer
	fnResetCommandBuffer    unsafe.Pointer

	fnCmdCopyBufferToImage unsafe.Pointer
	fnCmdCopyImage         unsafe.Pointer
	fnCmdCopyBuffer        unsafe.Pointer
	fnCmdPipelineBarrier   unsafe.Pointer
	fnCmdBindPipeline      unsafe.Pointer
	fnCmdBindDescriptorSets unsafe.Pointer
	fnCmdDispatch          unsafe.Pointer

	fnCreateShaderModule   unsafe.Pointer
	fnDestroyShaderModule  unsafe.Pointer
	fnCreatePipelineLayout unsafe.Pointer
	fnDestroyPipelineLayout unsafe.Pointer
	fnCreatePipelineCache  unsafe.Pointer
	fnDestroyPipelineCache unsafe.Pointer
	fnCreateComputePipelines unsafe.Pointer
	fnCreateGraphicsPipelines unsafe.Pointer
	fnDestroyPipeline      unsafe.Pointer
	fnCreateRenderPass     unsafe.Pointer
	fnDestroyRenderPass    unsafe.Pointer
	fnCreateFramebuffer    unsafe.Pointer
	fnDestroyFramebuffer   unsafe.Pointer

	fnQueueSubmit   unsafe.Pointer
	fnQueueBindSparse unsafe.Pointer
	fnQueueWaitIdle unsafe.Pointer

	sig sigTable
}

// sigTable holds the small number of distinct CallInterface shapes reused
// across the 70 entry points above. Vulkan has many functions but few
// unique C signatures once handles, pointers, and u32/u64/i32 scalars are
// the only primitive kinds involved.
type sigTable struct {
	resultPtrPtrPtr      types.CallInterface // VkResult(ptr,ptr,ptr)
	resultHandlePtrPtr   types.CallInterface // VkResult(handle,ptr,ptr)
	resultHandlePtrPtrPtr types.CallInterface // VkResult(handle,ptr,ptr,ptr)
	voidHandlePtr        types.CallInterface // void(handle,ptr)
	voidHandleHandlePtr  types.CallInterface // void(handle,handle,ptr)
	voidHandlePtrPtr     types.CallInterface // void(handle,ptr,ptr)
	resultHandle4        types.CallInterface // VkResult(handle,handle,handle,u64)
	resultMapMemory       types.CallInterface // VkResult(handle,handle,u64,u64,u32,ptr)
	voidHandleHandle     types.CallInterface // void(handle,handle)
	resultHandleU32      types.CallInterface // VkResult(handle,u32)
	resultWaitForFences  types.CallInterface // VkResult(handle,u32,ptr,u32,u64)
	resultHandleHandle   types.CallInterface // VkResult(handle,handle)
	voidDeviceQueue      types.CallInterface // void(handle,u32,u32,ptr)
	resultHandleHandleU32Ptr types.CallInterface // VkResult(handle,handle,u32,ptr)
	resultHandleU32Ptr   types.CallInterface // VkResult(handle,u32,ptr)
	voidHandleHandleU32Ptr types.CallInterface // void(handle,handle,u32,ptr)
	voidUpdateDescSets   types.CallInterface // void(handle,u32,ptr,u32,ptr)
	voidCmdCopy          types.CallInterface // void(handle,handle,handle,u32,ptr)
	voidCmdCopyBufToImg  types.CallInterface // void(handle,handle,handle,u32,u32,ptr)
	voidCmdCopyImage     types.CallInterface // void(handle,handle,u32,handle,u32,u32,ptr)
	voidCmdBarrier       types.CallInterface // void(handle,u32,u32,u32,u32,ptr,u32,ptr,u32,ptr)
	voidCmdBindPipeline  types.CallInterface // void(handle,u32,handle)
	voidCmdBindDescSets  types.CallInterface // void(handle,u32,handle,u32,u32,ptr,u32,ptr)
	voidCmdDispatch      types.CallInterface // void(handle,u32,u32,u32)
	resultCreatePipelines types.CallInterface // VkResult(handle,handle,u32,ptr,ptr,ptr)
	resultHandle         types.CallInterface // VkResult(handle)
	resultHandlePtr      types.CallInterface // VkResult(handle,ptr)
	resultQueueSubmit    types.CallInterface // VkResult(handle,u32,ptr,handle)
	resultHandleHandleU32 types.CallInterface // VkResult(handle,handle,u32)
}

func prepareSigTable() (sigTable, error) {
	var s sigTable
	ptr := types.PointerTypeDescriptor
	u32 := types.UInt32TypeDescriptor
	u64 := types.UInt64TypeDescriptor
	voidRet := types.VoidTypeDescriptor
	resultRet := types.SInt32TypeDescriptor

	prep := func(cif *types.CallInterface, ret *types.TypeDescriptor, args ...*types.TypeDescriptor) error {
		return ffi.PrepareCallInterface(cif, types.DefaultCall, ret, args)
	}

	cases := []struct {
		cif  *types.CallInterface
		ret  *types.TypeDescriptor
		args []*types.TypeDescriptor
	}{
		{&s.resultPtrPtrPtr, resultRet, []*types.TypeDescriptor{ptr, ptr, ptr}},
		{&s.resultHandlePtrPtr, resultRet, []*types.TypeDescriptor{u64, ptr, ptr}},
		{&s.resultHandlePtrPtrPtr, resultRet, []*types.TypeDescriptor{u64, ptr, ptr, ptr}},
		{&s.voidHandlePtr, voidRet, []*types.TypeDescriptor{u64, ptr}},
		{&s.voidHandleHandlePtr, voidRet, []*types.TypeDescriptor{u64, u64, ptr}},
		{&s.voidHandlePtrPtr, voidRet, []*types.TypeDescriptor{u64, ptr, ptr}},
		{&s.resultHandle4, resultRet, []*types.TypeDescriptor{u64, u64, u64, u64}},
		{&s.resultMapMemory, resultRet, []*types.TypeDescriptor{u64, u64, u64, u64, u32, ptr}},
		{&s.voidHandleHandle, voidRet, []*types.TypeDescriptor{u64, u64}},
		{&s.resultHandleU32, resultRet, []*types.TypeDescriptor{u64, u32}},
		{&s.resultWaitForFences, resultRet, []*types.TypeDescriptor{u64, u32, ptr, u32, u64}},
		{&s.resultHandleHandle, resultRet, []*types.TypeDescriptor{u64, u64}},
		{&s.voidDeviceQueue, voidRet, []*types.TypeDescriptor{u64, u32, u32, ptr}},
		{&s.resultHandleHandleU32Ptr, resultRet, []*types.TypeDescriptor{u64, u64, u32, ptr}},
		{&s.resultHandleU32Ptr, resultRet, []*types.TypeDescriptor{u64, u32, ptr}},
		{&s.voidHandleHandleU32Ptr, voidRet, []*types.TypeDescriptor{u64, u64, u32, ptr}},
		{&s.voidUpdateDescSets, voidRet, []*types.TypeDescriptor{u64, u32, ptr, u32, ptr}},
		{&s.voidCmdCopy, voidRet, []*types.TypeDescriptor{u64, u64, u64, u32, ptr}},
		{&s.voidCmdCopyBufToImg, voidRet, []*types.TypeDescriptor{u64, u64, u64, u32, u32, ptr}},
		{&s.voidCmdCopyImage, voidRet, []*types.TypeDescriptor{u64, u64, u32, u64, u32, u32, ptr}},
		{&s.voidCmdBarrier, voidRet, []*types.TypeDescriptor{u64, u32, u32, u32, u32, ptr, u32, ptr, u32, ptr}},
		{&s.voidCmdBindPipeline, voidRet, []*types.TypeDescriptor{u64, u32, u64}},
		{&s.voidCmdBindDescSets, voidRet, []*types.TypeDescriptor{u64, u32, u64, u32, u32, ptr, u32, ptr}},
		{&s.voidCmdDispatch, voidRet, []*types.TypeDescriptor{u64, u32, u32, u32}},
		{&s.resultCreatePipelines, resultRet, []*types.TypeDescriptor{u64, u64, u32, ptr, ptr, ptr}},
		{&s.resultHandle, resultRet, []*types.TypeDescriptor{u64}},
		{&s.resultHandlePtr, resultRet, []*types.TypeDescriptor{u64, ptr}},
		{&s.resultQueueSubmit, resultRet, []*types.TypeDescriptor{u64, u32, ptr, u64}},
		{&s.resultHandleHandleU32, resultRet, []*types.TypeDescriptor{u64, u64, u32}},
	}
	for _, c := range cases {
		if err := prep(c.cif, c.ret, c.args...); err != nil {
			return s, err
		}
	}
	return s, nil
}

// call invokes fn through cif and writes the single return value into
// ret. Per goffi's calling convention, args[i] holds the address of the
// i'th argument value, not the value itself.
func call(cif *types.CallInterface, fn unsafe.Pointer, ret unsafe.Pointer, args ...unsafe.Pointer) {
	_ = ffi.CallFunction(cif, fn, ret, args)
}

// LoadGlobal opens the native Vulkan library and resolves the
// loader-level entry points needed to create an instance.
func LoadGlobal() (*Commands, error) {
	l, err := loadGlobal()
	if err != nil {
		return nil, err
	}
	sig, err := prepareSigTable()
	if err != nil {
		return nil, fmt.Errorf("vkabi: prepare signatures: %w", err)
	}
	c := &Commands{l: l, sig: sig}
	c.fnCreateInstance = l.resolveInstance(0, "vkCreateInstance")
	if c.fnCreateInstance == nil {
		return nil, fmt.Errorf("vkabi: vkCreateInstance not found")
	}
	return c, nil
}

// LoadInstance resolves the instance-level entry points against a live
// VkInstance, in the loader's three-stage hierarchy (global -> instance ->
// device).
func (c *Commands) LoadInstance(instance Instance) *Commands {
	ic := &Commands{l: c.l, instance: instance, sig: c.sig}
	r := func(name string) unsafe.Pointer { return c.l.resolveInstance(instance, name) }
	ic.fnDestroyInstance = r("vkDestroyInstance")
	ic.fnEnumeratePhysicalDevices = r("vkEnumeratePhysicalDevices")
	ic.fnGetPhysicalDeviceMemoryProperties = r("vkGetPhysicalDeviceMemoryProperties")
	ic.fnGetPhysicalDeviceQueueFamilyProperties = r("vkGetPhysicalDeviceQueueFamilyProperties")
	ic.fnCreateDevice = r("vkCreateDevice")
	c.l.bindDeviceProcAddr(instance)
	return ic
}

// LoadDevice resolves device-level entry points against a live VkDevice,
// preferring vkGetDeviceProcAddr so drivers can hand back a direct
// trampoline instead of the loader's dispatch shim.
func (c *Commands) LoadDevice(device Device) *Commands {
	dc := &Commands{l: c.l, instance: c.instance, device: device, sig: c.sig}
	r := func(name string) unsafe.Pointer {
		if fn := c.l.resolveDevice(device, name); fn != nil {
			return fn
		}
		return c.l.resolveInstance(c.instance, name)
	}
	dc.fnDestroyDevice = r("vkDestroyDevice")
	dc.fnGetDeviceQueue = r("vkGetDeviceQueue")
	dc.fnDeviceWaitIdle = r("vkDeviceWaitIdle")
	dc.fnAllocateMemory = r("vkAllocateMemory")
	dc.fnFreeMemory = r("vkFreeMemory")
	dc.fnMapMemory = r("vkMapMemory")
	dc.fnUnmapMemory = r("vkUnmapMemory")
	dc.fnBindBufferMemory = r("vkBindBufferMemory")
	dc.fnBindImageMemory = r("vkBindImageMemory")
	dc.fnCreateBuffer = r("vkCreateBuffer")
	dc.fnDestroyBuffer = r("vkDestroyBuffer")
	dc.fnGetBufferMemoryRequirements = r("vkGetBufferMemoryRequirements")
	dc.fnCreateImage = r("vkCreateImage")
	dc.fnDestroyImage = r("vkDestroyImage")
	dc.fnGetImageMemoryRequirements = r("vkGetImageMemoryRequirements")
	dc.fnCreateImageView = r("vkCreateImageView")
	dc.fnDestroyImageView = r("vkDestroyImageView")
	dc.fnCreateSampler = r("vkCreateSampler")
	dc.fnDestroySampler = r("vkDestroySampler")
	dc.fnCreateSemaphore = r("vkCreateSemaphore")
	dc.fnDestroySemaphore = r("vkDestroySemaphore")
	dc.fnCreateFence = r("vkCreateFence")
	dc.fnDestroyFence = r("vkDestroyFence")
	dc.fnResetFences = r("vkResetFences")
	dc.fnWaitForFences = r("vkWaitForFences")
	dc.fnGetFenceStatus = r("vkGetFenceStatus")
	dc.fnCreateDescriptorSetLayout = r("vkCreateDescriptorSetLayout")
	dc.fnDestroyDescriptorSetLayout = r("vkDestroyDescriptorSetLayout")
	dc.fnCreateDescriptorPool = r("vkCreateDescriptorPool")
	dc.fnDestroyDescriptorPool = r("vkDestroyDescriptorPool")
	dc.fnResetDescriptorPool = r("vkResetDescriptorPool")
	dc.fnAllocateDescriptorSets = r("vkAllocateDescriptorSets")
	dc.fnFreeDescriptorSets = r("vkFreeDescriptorSets")
	dc.fnUpdateDescriptorSets = r("vkUpdateDescriptorSets")
	dc.fnCreateCommandPool = r("vkCreateCommandPool")
	dc.fnDestroyCommandPool = r("vkDestroyCommandPool")
	dc.fnAllocateCommandBuffers = r("vkAllocateCommandBuffers")
	dc.fnFreeCommandBuffers = r("vkFreeCommandBuffers")
	dc.fnBeginCommandBuffer = r("vkBeginCommandBuffer")
	dc.fnEndCommandBuffer = r("vkEndCommandBuffer")
	dc.fnResetCommandBuffer = r("vkResetCommandBuffer")
	dc.fnCmdCopyBufferToImage = r("vkCmdCopyBufferToImage")
	dc.fnCmdCopyImage = r("vkCmdCopyImage")
	dc.fnCmdCopyBuffer = r("vkCmdCopyBuffer")
	dc.fnCmdPipelineBarrier = r("vkCmdPipelineBarrier")
	dc.fnCmdBindPipeline = r("vkCmdBindPipeline")
	dc.fnCmdBindDescriptorSets = r("vkCmdBindDescriptorSets")
	dc.fnCmdDispatch = r("vkCmdDispatch")
	dc.fnCreateShaderModule = r("vkCreateShaderModule")
	dc.fnDestroyShaderModule = r("vkDestroyShaderModule")
	dc.fnCreatePipelineLayout = r("vkCreatePipelineLayout")
	dc.fnDestroyPipelineLayout = r("vkDestroyPipelineLayout")
	dc.fnCreatePipelineCache = r("vkCreatePipelineCache")
	dc.fnDestroyPipelineCache = r("vkDestroyPipelineCache")
	dc.fnCreateComputePipelines = r("vkCreateComputePipelines")
	dc.fnCreateGraphicsPipelines = r("vkCreateGraphicsPipelines")
	dc.fnDestroyPipeline = r("vkDestroyPipeline")
	dc.fnCreateRenderPass = r("vkCreateRenderPass")
	dc.fnDestroyRenderPass = r("vkDestroyRenderPass")
	dc.fnCreateFramebuffer = r("vkCreateFramebuffer")
	dc.fnDestroyFramebuffer = r("vkDestroyFramebuffer")
	dc.fnQueueSubmit = r("vkQueueSubmit")
	dc.fnQueueBindSparse = r("vkQueueBindSparse")
	dc.fnQueueWaitIdle = r("vkQueueWaitIdle")
	return dc
}

// Close releases the native Vulkan library. Safe to call once the last
// instance using it has been destroyed.
func (c *Commands) Close() error {
	if c.l == nil {
		return nil
	}
	return c.l.close()
}

// --- wrapped entry points ---
// Each wrapper follows goffi's calling convention: args[i] holds a pointer
// to where the i'th argument value is stored (for pointer-typed arguments,
// that means a pointer-to-pointer), and the native return value is
// written through the ret pointer.

func (c *Commands) CreateInstance(createInfo unsafe.Pointer, instance *Instance) Result {
	var ret int32
	call(&c.sig.resultPtrPtrPtr, c.fnCreateInstance, unsafe.Pointer(&ret),
		unsafe.Pointer(&createInfo), unsafe.Pointer(new(unsafe.Pointer)), unsafe.Pointer(&instance))
	return Result(ret)
}

func (c *Commands) DestroyInstance(instance Instance) {
	call(&c.sig.voidHandlePtr, c.fnDestroyInstance, nil, unsafe.Pointer(&instance), unsafe.Pointer(new(unsafe.Pointer)))
}

func (c *Commands) EnumeratePhysicalDevices(instance Instance, count *uint32, devices *PhysicalDevice) Result {
	var ret int32
	call(&c.sig.resultHandlePtrPtr, c.fnEnumeratePhysicalDevices, unsafe.Pointer(&ret),
		unsafe.Pointer(&instance), unsafe.Pointer(&count), unsafe.Pointer(&devices))
	return Result(ret)
}

func (c *Commands) GetPhysicalDeviceMemoryProperties(pd PhysicalDevice, props *PhysicalDeviceMemoryProperties) {
	call(&c.sig.voidHandlePtr, c.fnGetPhysicalDeviceMemoryProperties, nil, unsafe.Pointer(&pd), unsafe.Pointer(&props))
}

func (c *Commands) GetPhysicalDeviceQueueFamilyProperties(pd PhysicalDevice, count *uint32, props *QueueFamilyProperties) {
	call(&c.sig.voidHandlePtrPtr, c.fnGetPhysicalDeviceQueueFamilyProperties, nil,
		unsafe.Pointer(&pd), unsafe.Pointer(&count), unsafe.Pointer(&props))
}

func (c *Commands) CreateDevice(pd PhysicalDevice, createInfo unsafe.Pointer, device *Device) Result {
	var ret int32
	call(&c.sig.resultHandlePtrPtrPtr, c.fnCreateDevice, unsafe.Pointer(&ret),
		unsafe.Pointer(&pd), unsafe.Pointer(&createInfo), unsafe.Pointer(new(unsafe.Pointer)), unsafe.Pointer(&device))
	return Result(ret)
}

func (c *Commands) DestroyDevice(device Device) {
	call(&c.sig.voidHandlePtr, c.fnDestroyDevice, nil, unsafe.Pointer(&device), unsafe.Pointer(new(unsafe.Pointer)))
}

func (c *Commands) GetDeviceQueue(device Device, familyIndex, queueIndex uint32, queue *Queue) {
	call(&c.sig.voidDeviceQueue, c.fnGetDeviceQueue, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&familyIndex), unsafe.Pointer(&queueIndex), unsafe.Pointer(&queue))
}

func (c *Commands) DeviceWaitIdle(device Device) Result {
	var ret int32
	call(&c.sig.resultHandle, c.fnDeviceWaitIdle, unsafe.Pointer(&ret), unsafe.Pointer(&device))
	return Result(ret)
}

func (c *Commands) AllocateMemory(device Device, allocInfo unsafe.Pointer, memory *DeviceMemory) Result {
	var ret int32
	call(&c.sig.resultHandlePtrPtrPtr, c.fnAllocateMemory, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&allocInfo), unsafe.Pointer(new(unsafe.Pointer)), unsafe.Pointer(&memory))
	return Result(ret)
}

func (c *Commands) FreeMemory(device Device, memory DeviceMemory) {
	call(&c.sig.voidHandleHandlePtr, c.fnFreeMemory, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&memory), unsafe.Pointer(new(unsafe.Pointer)))
}

func (c *Commands) MapMemory(device Device, memory DeviceMemory, offset, size uint64, ptr *unsafe.Pointer) Result {
	var ret int32
	var flags uint32
	call(&c.sig.resultMapMemory, c.fnMapMemory, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&memory), unsafe.Pointer(&offset), unsafe.Pointer(&size),
		unsafe.Pointer(&flags), unsafe.Pointer(&ptr))
	return Result(ret)
}

func (c *Commands) UnmapMemory(device Device, memory DeviceMemory) {
	call(&c.sig.voidHandleHandle, c.fnUnmapMemory, nil, unsafe.Pointer(&device), unsafe.Pointer(&memory))
}

func (c *Commands) BindBufferMemory(device Device, buffer Buffer, memory DeviceMemory, offset uint64) Result {
	var ret int32
	call(&c.sig.resultHandle4, c.fnBindBufferMemory, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&buffer), unsafe.Pointer(&memory), unsafe.Pointer(&offset))
	return Result(ret)
}

func (c *Commands) BindImageMemory(device Device, image Image, memory DeviceMemory, offset uint64) Result {
	var ret int32
	call(&c.sig.resultHandle4, c.fnBindImageMemory, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&image), unsafe.Pointer(&memory), unsafe.Pointer(&offset))
	return Result(ret)
}

func (c *Commands) CreateBuffer(device Device, createInfo unsafe.Pointer, buffer *Buffer) Result {
	var ret int32
	call(&c.sig.resultHandlePtrPtrPtr, c.fnCreateBuffer, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&createInfo), unsafe.Pointer(new(unsafe.Pointer)), unsafe.Pointer(&buffer))
	return Result(ret)
}

func (c *Commands) DestroyBuffer(device Device, buffer Buffer) {
	call(&c.sig.voidHandleHandlePtr, c.fnDestroyBuffer, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&buffer), unsafe.Pointer(new(unsafe.Pointer)))
}

func (c *Commands) GetBufferMemoryRequirements(device Device, buffer Buffer, req *MemoryRequirements) {
	call(&c.sig.voidHandleHandlePtr, c.fnGetBufferMemoryRequirements, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&buffer), unsafe.Pointer(&req))
}

func (c *Commands) CreateImage(device Device, createInfo unsafe.Pointer, image *Image) Result {
	var ret int32
	call(&c.sig.resultHandlePtrPtrPtr, c.fnCreateImage, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&createInfo), unsafe.Pointer(new(unsafe.Pointer)), unsafe.Pointer(&image))
	return Result(ret)
}

func (c *Commands) DestroyImage(device Device, image Image) {
	call(&c.sig.voidHandleHandlePtr, c.fnDestroyImage, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&image), unsafe.Pointer(new(unsafe.Pointer)))
}

func (c *Commands) GetImageMemoryRequirements(device Device, image Image, req *MemoryRequirements) {
	call(&c.sig.voidHandleHandlePtr, c.fnGetImageMemoryRequirements, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&image), unsafe.Pointer(&req))
}

func (c *Commands) CreateImageView(device Device, createInfo unsafe.Pointer, view *ImageView) Result {
	var ret int32
	call(&c.sig.resultHandlePtrPtrPtr, c.fnCreateImageView, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&createInfo), unsafe.Pointer(new(unsafe.Pointer)), unsafe.Pointer(&view))
	return Result(ret)
}

func (c *Commands) DestroyImageView(device Device, view ImageView) {
	call(&c.sig.voidHandleHandlePtr, c.fnDestroyImageView, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&view), unsafe.Pointer(new(unsafe.Pointer)))
}

func (c *Commands) CreateSampler(device Device, createInfo unsafe.Pointer, sampler *Sampler) Result {
	var ret int32
	call(&c.sig.resultHandlePtrPtrPtr, c.fnCreateSampler, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&createInfo), unsafe.Pointer(new(unsafe.Pointer)), unsafe.Pointer(&sampler))
	return Result(ret)
}

func (c *Commands) DestroySampler(device Device, sampler Sampler) {
	call(&c.sig.voidHandleHandlePtr, c.fnDestroySampler, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&sampler), unsafe.Pointer(new(unsafe.Pointer)))
}

func (c *Commands) CreateSemaphore(device Device, createInfo unsafe.Pointer, sem *Semaphore) Result {
	var ret int32
	call(&c.sig.resultHandlePtrPtrPtr, c.fnCreateSemaphore, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&createInfo), unsafe.Pointer(new(unsafe.Pointer)), unsafe.Pointer(&sem))
	return Result(ret)
}

func (c *Commands) DestroySemaphore(device Device, sem Semaphore) {
	call(&c.sig.voidHandleHandlePtr, c.fnDestroySemaphore, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&sem), unsafe.Pointer(new(unsafe.Pointer)))
}

func (c *Commands) CreateFence(device Device, createInfo unsafe.Pointer, fence *Fence) Result {
	var ret int32
	call(&c.sig.resultHandlePtrPtrPtr, c.fnCreateFence, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&createInfo), unsafe.Pointer(new(unsafe.Pointer)), unsafe.Pointer(&fence))
	return Result(ret)
}

func (c *Commands) DestroyFence(device Device, fence Fence) {
	call(&c.sig.voidHandleHandlePtr, c.fnDestroyFence, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&fence), unsafe.Pointer(new(unsafe.Pointer)))
}

func (c *Commands) ResetFences(device Device, count uint32, fences *Fence) Result {
	var ret int32
	call(&c.sig.resultHandleU32Ptr, c.fnResetFences, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&count), unsafe.Pointer(&fences))
	return Result(ret)
}

func (c *Commands) WaitForFences(device Device, count uint32, fences *Fence, waitAll uint32, timeout uint64) Result {
	var ret int32
	call(&c.sig.resultWaitForFences, c.fnWaitForFences, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&count), unsafe.Pointer(&fences), unsafe.Pointer(&waitAll), unsafe.Pointer(&timeout))
	return Result(ret)
}

func (c *Commands) GetFenceStatus(device Device, fence Fence) Result {
	var ret int32
	call(&c.sig.resultHandleHandle, c.fnGetFenceStatus, unsafe.Pointer(&ret), unsafe.Pointer(&device), unsafe.Pointer(&fence))
	return Result(ret)
}

func (c *Commands) CreateDescriptorSetLayout(device Device, createInfo unsafe.Pointer, layout *DescriptorSetLayout) Result {
	var ret int32
	call(&c.sig.resultHandlePtrPtrPtr, c.fnCreateDescriptorSetLayout, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&createInfo), unsafe.Pointer(new(unsafe.Pointer)), unsafe.Pointer(&layout))
	return Result(ret)
}

func (c *Commands) DestroyDescriptorSetLayout(device Device, layout DescriptorSetLayout) {
	call(&c.sig.voidHandleHandlePtr, c.fnDestroyDescriptorSetLayout, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&layout), unsafe.Pointer(new(unsafe.Pointer)))
}

func (c *Commands) CreateDescriptorPool(device Device, createInfo unsafe.Pointer, pool *DescriptorPool) Result {
	var ret int32
	call(&c.sig.resultHandlePtrPtrPtr, c.fnCreateDescriptorPool, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&createInfo), unsafe.Pointer(new(unsafe.Pointer)), unsafe.Pointer(&pool))
	return Result(ret)
}

func (c *Commands) DestroyDescriptorPool(device Device, pool DescriptorPool) {
	call(&c.sig.voidHandleHandlePtr, c.fnDestroyDescriptorPool, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&pool), unsafe.Pointer(new(unsafe.Pointer)))
}

func (c *Commands) ResetDescriptorPool(device Device, pool DescriptorPool, flags uint32) Result {
	var ret int32
	call(&c.sig.resultHandleHandleU32, c.fnResetDescriptorPool, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&pool), unsafe.Pointer(&flags))
	return Result(ret)
}

func (c *Commands) AllocateDescriptorSets(device Device, allocInfo unsafe.Pointer, sets *DescriptorSet) Result {
	var ret int32
	call(&c.sig.resultHandlePtrPtr, c.fnAllocateDescriptorSets, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&allocInfo), unsafe.Pointer(&sets))
	return Result(ret)
}

func (c *Commands) FreeDescriptorSets(device Device, pool DescriptorPool, count uint32, sets *DescriptorSet) Result {
	var ret int32
	call(&c.sig.resultHandleHandleU32Ptr, c.fnFreeDescriptorSets, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&pool), unsafe.Pointer(&count), unsafe.Pointer(&sets))
	return Result(ret)
}

func (c *Commands) UpdateDescriptorSets(device Device, writeCount uint32, writes unsafe.Pointer, copyCount uint32, copies unsafe.Pointer) {
	call(&c.sig.voidUpdateDescSets, c.fnUpdateDescriptorSets, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&writeCount), unsafe.Pointer(&writes), unsafe.Pointer(&copyCount), unsafe.Pointer(&copies))
}

func (c *Commands) CreateCommandPool(device Device, createInfo unsafe.Pointer, pool *CommandPool) Result {
	var ret int32
	call(&c.sig.resultHandlePtrPtrPtr, c.fnCreateCommandPool, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&createInfo), unsafe.Pointer(new(unsafe.Pointer)), unsafe.Pointer(&pool))
	return Result(ret)
}

func (c *Commands) DestroyCommandPool(device Device, pool CommandPool) {
	call(&c.sig.voidHandleHandlePtr, c.fnDestroyCommandPool, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&pool), unsafe.Pointer(new(unsafe.Pointer)))
}

func (c *Commands) AllocateCommandBuffers(device Device, allocInfo unsafe.Pointer, buffers *CommandBuffer) Result {
	var ret int32
	call(&c.sig.resultHandlePtrPtr, c.fnAllocateCommandBuffers, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&allocInfo), unsafe.Pointer(&buffers))
	return Result(ret)
}

func (c *Commands) FreeCommandBuffers(device Device, pool CommandPool, count uint32, buffers *CommandBuffer) {
	call(&c.sig.voidHandleHandleU32Ptr, c.fnFreeCommandBuffers, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&pool), unsafe.Pointer(&count), unsafe.Pointer(&buffers))
}

func (c *Commands) BeginCommandBuffer(cmd CommandBuffer, beginInfo unsafe.Pointer) Result {
	var ret int32
	call(&c.sig.resultHandlePtr, c.fnBeginCommandBuffer, unsafe.Pointer(&ret), unsafe.Pointer(&cmd), unsafe.Pointer(&beginInfo))
	return Result(ret)
}

func (c *Commands) EndCommandBuffer(cmd CommandBuffer) Result {
	var ret int32
	call(&c.sig.resultHandle, c.fnEndCommandBuffer, unsafe.Pointer(&ret), unsafe.Pointer(&cmd))
	return Result(ret)
}

func (c *Commands) ResetCommandBuffer(cmd CommandBuffer, flags uint32) Result {
	var ret int32
	call(&c.sig.resultHandleU32, c.fnResetCommandBuffer, unsafe.Pointer(&ret), unsafe.Pointer(&cmd), unsafe.Pointer(&flags))
	return Result(ret)
}

func (c *Commands) CmdCopyBufferToImage(cmd CommandBuffer, src Buffer, dst Image, layout uint32, regionCount uint32, regions unsafe.Pointer) {
	call(&c.sig.voidCmdCopyBufToImg, c.fnCmdCopyBufferToImage, nil,
		unsafe.Pointer(&cmd), unsafe.Pointer(&src), unsafe.Pointer(&dst), unsafe.Pointer(&layout), unsafe.Pointer(&regionCount), unsafe.Pointer(&regions))
}

func (c *Commands) CmdCopyImage(cmd CommandBuffer, src Image, srcLayout uint32, dst Image, dstLayout uint32, regionCount uint32, regions unsafe.Pointer) {
	call(&c.sig.voidCmdCopyImage, c.fnCmdCopyImage, nil,
		unsafe.Pointer(&cmd), unsafe.Pointer(&src), unsafe.Pointer(&srcLayout), unsafe.Pointer(&dst),
		unsafe.Pointer(&dstLayout), unsafe.Pointer(&regionCount), unsafe.Pointer(&regions))
}

func (c *Commands) CmdCopyBuffer(cmd CommandBuffer, src, dst Buffer, regionCount uint32, regions unsafe.Pointer) {
	call(&c.sig.voidCmdCopy, c.fnCmdCopyBuffer, nil,
		unsafe.Pointer(&cmd), unsafe.Pointer(&src), unsafe.Pointer(&dst), unsafe.Pointer(&regionCount), unsafe.Pointer(&regions))
}

func (c *Commands) CmdPipelineBarrier(cmd CommandBuffer, srcStage, dstStage, deps uint32,
	memCount uint32, memBarriers unsafe.Pointer,
	bufCount uint32, bufBarriers unsafe.Pointer,
	imgCount uint32, imgBarriers unsafe.Pointer) {
	call(&c.sig.voidCmdBarrier, c.fnCmdPipelineBarrier, nil,
		unsafe.Pointer(&cmd), unsafe.Pointer(&srcStage), unsafe.Pointer(&dstStage), unsafe.Pointer(&deps),
		unsafe.Pointer(&memCount), unsafe.Pointer(&memBarriers),
		unsafe.Pointer(&bufCount), unsafe.Pointer(&bufBarriers),
		unsafe.Pointer(&imgCount), unsafe.Pointer(&imgBarriers))
}

func (c *Commands) CmdBindPipeline(cmd CommandBuffer, bindPoint uint32, pipeline Pipeline) {
	call(&c.sig.voidCmdBindPipeline, c.fnCmdBindPipeline, nil, unsafe.Pointer(&cmd), unsafe.Pointer(&bindPoint), unsafe.Pointer(&pipeline))
}

func (c *Commands) CmdBindDescriptorSets(cmd CommandBuffer, bindPoint uint32, layout PipelineLayout,
	firstSet, setCount uint32, sets unsafe.Pointer, dynOffsetCount uint32, dynOffsets unsafe.Pointer) {
	call(&c.sig.voidCmdBindDescSets, c.fnCmdBindDescriptorSets, nil,
		unsafe.Pointer(&cmd), unsafe.Pointer(&bindPoint), unsafe.Pointer(&layout), unsafe.Pointer(&firstSet),
		unsafe.Pointer(&setCount), unsafe.Pointer(&sets), unsafe.Pointer(&dynOffsetCount), unsafe.Pointer(&dynOffsets))
}

func (c *Commands) CmdDispatch(cmd CommandBuffer, x, y, z uint32) {
	call(&c.sig.voidCmdDispatch, c.fnCmdDispatch, nil, unsafe.Pointer(&cmd), unsafe.Pointer(&x), unsafe.Pointer(&y), unsafe.Pointer(&z))
}

func (c *Commands) CreateShaderModule(device Device, createInfo unsafe.Pointer, module *ShaderModule) Result {
	var ret int32
	call(&c.sig.resultHandlePtrPtrPtr, c.fnCreateShaderModule, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&createInfo), unsafe.Pointer(new(unsafe.Pointer)), unsafe.Pointer(&module))
	return Result(ret)
}

func (c *Commands) DestroyShaderModule(device Device, module ShaderModule) {
	call(&c.sig.voidHandleHandlePtr, c.fnDestroyShaderModule, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&module), unsafe.Pointer(new(unsafe.Pointer)))
}

func (c *Commands) CreatePipelineLayout(device Device, createInfo unsafe.Pointer, layout *PipelineLayout) Result {
	var ret int32
	call(&c.sig.resultHandlePtrPtrPtr, c.fnCreatePipelineLayout, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&createInfo), unsafe.Pointer(new(unsafe.Pointer)), unsafe.Pointer(&layout))
	return Result(ret)
}

func (c *Commands) DestroyPipelineLayout(device Device, layout PipelineLayout) {
	call(&c.sig.voidHandleHandlePtr, c.fnDestroyPipelineLayout, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&layout), unsafe.Pointer(new(unsafe.Pointer)))
}

func (c *Commands) CreatePipelineCache(device Device, createInfo unsafe.Pointer, cache *PipelineCache) Result {
	var ret int32
	call(&c.sig.resultHandlePtrPtrPtr, c.fnCreatePipelineCache, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&createInfo), unsafe.Pointer(new(unsafe.Pointer)), unsafe.Pointer(&cache))
	return Result(ret)
}

func (c *Commands) DestroyPipelineCache(device Device, cache PipelineCache) {
	call(&c.sig.voidHandleHandlePtr, c.fnDestroyPipelineCache, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&cache), unsafe.Pointer(new(unsafe.Pointer)))
}

func (c *Commands) CreateComputePipelines(device Device, cache PipelineCache, count uint32, createInfos unsafe.Pointer, pipelines *Pipeline) Result {
	var ret int32
	call(&c.sig.resultCreatePipelines, c.fnCreateComputePipelines, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&cache), unsafe.Pointer(&count), unsafe.Pointer(&createInfos), unsafe.Pointer(new(unsafe.Pointer)), unsafe.Pointer(&pipelines))
	return Result(ret)
}

func (c *Commands) CreateGraphicsPipelines(device Device, cache PipelineCache, count uint32, createInfos unsafe.Pointer, pipelines *Pipeline) Result {
	var ret int32
	call(&c.sig.resultCreatePipelines, c.fnCreateGraphicsPipelines, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&cache), unsafe.Pointer(&count), unsafe.Pointer(&createInfos), unsafe.Pointer(new(unsafe.Pointer)), unsafe.Pointer(&pipelines))
	return Result(ret)
}

func (c *Commands) DestroyPipeline(device Device, pipeline Pipeline) {
	call(&c.sig.voidHandleHandlePtr, c.fnDestroyPipeline, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&pipeline), unsafe.Pointer(new(unsafe.Pointer)))
}

func (c *Commands) CreateRenderPass(device Device, createInfo unsafe.Pointer, renderPass *RenderPass) Result {
	var ret int32
	call(&c.sig.resultHandlePtrPtrPtr, c.fnCreateRenderPass, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&createInfo), unsafe.Pointer(new(unsafe.Pointer)), unsafe.Pointer(&renderPass))
	return Result(ret)
}

func (c *Commands) DestroyRenderPass(device Device, renderPass RenderPass) {
	call(&c.sig.voidHandleHandlePtr, c.fnDestroyRenderPass, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&renderPass), unsafe.Pointer(new(unsafe.Pointer)))
}

func (c *Commands) CreateFramebuffer(device Device, createInfo unsafe.Pointer, fb *Framebuffer) Result {
	var ret int32
	call(&c.sig.resultHandlePtrPtrPtr, c.fnCreateFramebuffer, unsafe.Pointer(&ret),
		unsafe.Pointer(&device), unsafe.Pointer(&createInfo), unsafe.Pointer(new(unsafe.Pointer)), unsafe.Pointer(&fb))
	return Result(ret)
}

func (c *Commands) DestroyFramebuffer(device Device, fb Framebuffer) {
	call(&c.sig.voidHandleHandlePtr, c.fnDestroyFramebuffer, nil,
		unsafe.Pointer(&device), unsafe.Pointer(&fb), unsafe.Pointer(new(unsafe.Pointer)))
}

func (c *Commands) QueueSubmit(queue Queue, count uint32, submits unsafe.Pointer, fence Fence) Result {
	var ret int32
	call(&c.sig.resultQueueSubmit, c.fnQueueSubmit, unsafe.Pointer(&ret),
		unsafe.Pointer(&queue), unsafe.Pointer(&count), unsafe.Pointer(&submits), unsafe.Pointer(&fence))
	return Result(ret)
}

func (c *Commands) QueueBindSparse(queue Queue, count uint32, bindInfos unsafe.Pointer, fence Fence) Result {
	var ret int32
	call(&c.sig.resultQueueSubmit, c.fnQueueBindSparse, unsafe.Pointer(&ret),
		unsafe.Pointer(&queue), unsafe.Pointer(&count), unsafe.Pointer(&bindInfos), unsafe.Pointer(&fence))
	return Result(ret)
}

func (c *Commands) QueueWaitIdle(queue Queue) Result {
	var ret int32
	call(&c.sig.resultHandle, c.fnQueueWaitIdle, unsafe.Pointer(&ret), unsafe.Pointer(&queue))
	return Result(ret)
}
