// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package vkabi is the narrow native-driver ABI the rest of this module
// talks to. It exposes only the Vulkan entry points the state tracker and
// dispatchers actually call, not the full API surface: the native loader
// and ICD are an external collaborator (see spec.md §6), and this package
// is the "narrow interface the core requires" into that collaborator.
package vkabi

// Handle is the underlying representation of every Vulkan dispatchable and
// non-dispatchable handle: a 64-bit integer, matching the wire format the
// driver itself uses on every supported platform.
type Handle uint64

type (
	Instance             Handle
	PhysicalDevice        Handle
	Device                Handle
	Queue                 Handle
	CommandPool           Handle
	CommandBuffer         Handle
	DeviceMemory          Handle
	Buffer                Handle
	BufferView            Handle
	Image                 Handle
	ImageView             Handle
	Sampler               Handle
	Semaphore             Handle
	Fence                 Handle
	ShaderModule          Handle
	PipelineLayout        Handle
	Pipeline              Handle
	PipelineCache         Handle
	RenderPass            Handle
	Framebuffer           Handle
	DescriptorSetLayout   Handle
	DescriptorPool        Handle
	DescriptorSet         Handle
)

// Result mirrors VkResult. Only the subset this module inspects is named;
// any other value is still a valid driver result and is propagated
// verbatim by dispatch code (see spec.md §7, "guest-visible driver errors").
type Result int32

const (
	Success                    Result = 0
	NotReady                   Result = 1
	Timeout                    Result = 2
	EventSet                   Result = 3
	EventReset                 Result = 4
	Incomplete                 Result = 5
	ErrorOutOfHostMemory       Result = -1
	ErrorOutOfDeviceMemory     Result = -2
	ErrorInitializationFailed  Result = -3
	ErrorDeviceLost            Result = -4
	ErrorMemoryMapFailed       Result = -5
	ErrorLayerNotPresent       Result = -6
	ErrorExtensionNotPresent   Result = -7
	ErrorFeatureNotPresent     Result = -8
	ErrorIncompatibleDriver    Result = -9
	ErrorFormatNotSupported    Result = -11
	ErrorFragmentedPool        Result = -12
	ErrorOutOfPoolMemory       Result = -1000069000
	ErrorInvalidExternalHandle Result = -1000072003
)

func (r Result) IsSuccess() bool { return r == Success }

// StructureType mirrors a small, relevant slice of VkStructureType values.
type StructureType uint32

const (
	StructureTypeApplicationInfo                    StructureType = 0
	StructureTypeInstanceCreateInfo                 StructureType = 1
	StructureTypeDeviceQueueCreateInfo               StructureType = 2
	StructureTypeDeviceCreateInfo                    StructureType = 3
	StructureTypeMemoryAllocateInfo                  StructureType = 5
	StructureTypeMappedMemoryRange                   StructureType = 6
	StructureTypeBufferCreateInfo                    StructureType = 12
	StructureTypeImageCreateInfo                     StructureType = 14
	StructureTypeImageViewCreateInfo                 StructureType = 15
	StructureTypeShaderModuleCreateInfo              StructureType = 16
	StructureTypePipelineLayoutCreateInfo            StructureType = 30
	StructureTypeSamplerCreateInfo                   StructureType = 31
	StructureTypeDescriptorSetLayoutCreateInfo       StructureType = 32
	StructureTypeDescriptorPoolCreateInfo            StructureType = 33
	StructureTypeDescriptorSetAllocateInfo           StructureType = 34
	StructureTypeWriteDescriptorSet                  StructureType = 35
	StructureTypeCopyDescriptorSet                   StructureType = 36
	StructureTypeFramebufferCreateInfo               StructureType = 37
	StructureTypeRenderPassCreateInfo                StructureType = 38
	StructureTypeCommandPoolCreateInfo               StructureType = 39
	StructureTypeCommandBufferAllocateInfo           StructureType = 40
	StructureTypeCommandBufferBeginInfo              StructureType = 42
	StructureTypeSubmitInfo                          StructureType = 4
	StructureTypeFenceCreateInfo                     StructureType = 8
	StructureTypeSemaphoreCreateInfo                 StructureType = 9
	StructureTypeBufferMemoryBarrier                 StructureType = 44
	StructureTypeImageMemoryBarrier                  StructureType = 45
	StructureTypeComputePipelineCreateInfo           StructureType = 29
	StructureTypeGraphicsPipelineCreateInfo          StructureType = 28
	StructureTypePipelineCacheCreateInfo             StructureType = 17
	StructureTypeBindImageMemoryInfo                 StructureType = 1000157001
	StructureTypeExternalMemoryBufferCreateInfo      StructureType = 1000071003
	StructureTypeExternalMemoryImageCreateInfo       StructureType = 1000071002
	StructureTypeImportMemoryFdInfoKHR               StructureType = 1000074002
	StructureTypeExportMemoryAllocateInfo            StructureType = 1000072002
)

// Format mirrors a subset of VkFormat relevant to compressed-texture
// emulation and the size-compatible shadow-image machinery (spec.md §4.9).
type Format uint32

const (
	FormatUndefined          Format = 0
	FormatR8g8b8a8Unorm      Format = 37
	FormatR16g16b16a16Uint   Format = 91
	FormatR32g32b32a32Uint   Format = 107
	FormatEtc2R8g8b8UnormBlock   Format = 147
	FormatEtc2R8g8b8SrgbBlock    Format = 148
	FormatEtc2R8g8b8a1UnormBlock Format = 149
	FormatEtc2R8g8b8a1SrgbBlock  Format = 150
	FormatEtc2R8g8b8a8UnormBlock Format = 151
	FormatEtc2R8g8b8a8SrgbBlock  Format = 152
	FormatAstc4x4UnormBlock      Format = 157
	FormatAstc4x4SrgbBlock       Format = 158
	FormatAstc12x12UnormBlock    Format = 183
	FormatAstc12x12SrgbBlock     Format = 184
)

// ImageType mirrors VkImageType.
type ImageType uint32

const (
	ImageType1D ImageType = 0
	ImageType2D ImageType = 1
	ImageType3D ImageType = 2
)

// MemoryPropertyFlags mirrors VkMemoryPropertyFlagBits.
type MemoryPropertyFlags uint32

const (
	MemoryPropertyDeviceLocal  MemoryPropertyFlags = 1 << 0
	MemoryPropertyHostVisible  MemoryPropertyFlags = 1 << 1
	MemoryPropertyHostCoherent MemoryPropertyFlags = 1 << 2
	MemoryPropertyHostCached   MemoryPropertyFlags = 1 << 3
)

// ImageUsageFlags mirrors VkImageUsageFlagBits.
type ImageUsageFlags uint32

const (
	ImageUsageTransferSrc    ImageUsageFlags = 1 << 0
	ImageUsageTransferDst    ImageUsageFlags = 1 << 1
	ImageUsageSampled        ImageUsageFlags = 1 << 2
	ImageUsageStorage        ImageUsageFlags = 1 << 3
	ImageUsageColorAttachment ImageUsageFlags = 1 << 4
)

// BufferUsageFlags mirrors VkBufferUsageFlagBits.
type BufferUsageFlags uint32

const (
	BufferUsageTransferSrc BufferUsageFlags = 1 << 0
	BufferUsageTransferDst BufferUsageFlags = 1 << 1
)

// ImageCreateInfo is a Go-native projection of VkImageCreateInfo holding
// only the fields dispatch transforms (spec.md §4.6) need to inspect or
// rewrite before the native call.
type ImageCreateInfo struct {
	ImageType   ImageType
	Format      Format
	Width       uint32
	Height      uint32
	Depth       uint32
	MipLevels   uint32
	ArrayLayers uint32
	Usage       ImageUsageFlags
	Flags       uint32
}

// BufferCreateInfo is a Go-native projection of VkBufferCreateInfo.
type BufferCreateInfo struct {
	Size  uint64
	Usage BufferUsageFlags
}

// MemoryRequirements mirrors VkMemoryRequirements.
type MemoryRequirements struct {
	Size           uint64
	Alignment      uint64
	MemoryTypeBits uint32
}

// MemoryType mirrors VkMemoryType.
type MemoryType struct {
	PropertyFlags MemoryPropertyFlags
	HeapIndex     uint32
}

// PhysicalDeviceMemoryProperties mirrors VkPhysicalDeviceMemoryProperties,
// truncated to the memory-type table the memory-properties helper
// (spec.md §4.5) consults.
type PhysicalDeviceMemoryProperties struct {
	MemoryTypeCount uint32
	MemoryTypes     [32]MemoryType
}

// QueueFamilyProperties mirrors VkQueueFamilyProperties.
type QueueFamilyProperties struct {
	QueueFlags       uint32
	QueueCount       uint32
	TimestampValidBits uint32
}
