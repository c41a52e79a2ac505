package core

import (
	"fmt"
)

// Index is the index component of a resource ID.
// It identifies the slot in the storage array.
type Index = uint32

// Epoch is the generation component of a resource ID.
// It prevents use-after-free by invalidating old IDs.
type Epoch = uint32

// RawID is the underlying 64-bit representation of a resource identifier.
// Layout: lower 32 bits = index, upper 32 bits = epoch.
type RawID uint64

// Zip combines an index and epoch into a RawID.
func Zip(index Index, epoch Epoch) RawID {
	return RawID(index) | (RawID(epoch) << 32)
}

// Unzip extracts the index and epoch from a RawID.
func (id RawID) Unzip() (Index, Epoch) {
	//nolint:gosec // G115: Safe conversion - masked to 32 bits
	return Index(id & 0xFFFFFFFF), Epoch(id >> 32)
}

// Index returns the index component of the RawID.
func (id RawID) Index() Index {
	//nolint:gosec // G115: Safe conversion - masked to 32 bits
	return Index(id & 0xFFFFFFFF)
}

// Epoch returns the epoch component of the RawID.
func (id RawID) Epoch() Epoch {
	//nolint:gosec // G115: Safe conversion - shifted down from upper 32 bits
	return Epoch(id >> 32)
}

// IsZero returns true if both index and epoch are zero.
func (id RawID) IsZero() bool {
	return id == 0
}

// String returns a string representation of the RawID.
func (id RawID) String() string {
	index, epoch := id.Unzip()
	return fmt.Sprintf("RawID(%d,%d)", index, epoch)
}

// Marker is a constraint for marker types used to distinguish ID types.
// Marker types are empty structs that provide compile-time type safety.
type Marker interface {
	marker() // unexported method prevents external implementation
}

// ID is a type-safe resource identifier parameterized by a marker type.
// Different boxed-handle kinds (Instance, Device, Image, ...) have
// different marker types, preventing accidental misuse of IDs across
// kinds even though every ID shares the same index/epoch representation.
type ID[T Marker] struct {
	raw RawID
}

// NewID creates a new ID from index and epoch components.
func NewID[T Marker](index Index, epoch Epoch) ID[T] {
	return ID[T]{raw: Zip(index, epoch)}
}

// FromRaw creates an ID from a raw representation.
// Use with caution - the caller must ensure type safety.
func FromRaw[T Marker](raw RawID) ID[T] {
	return ID[T]{raw: raw}
}

// Raw returns the underlying RawID.
func (id ID[T]) Raw() RawID {
	return id.raw
}

// Unzip extracts the index and epoch from the ID.
func (id ID[T]) Unzip() (Index, Epoch) {
	return id.raw.Unzip()
}

// Index returns the index component of the ID.
func (id ID[T]) Index() Index {
	return id.raw.Index()
}

// Epoch returns the epoch component of the ID.
func (id ID[T]) Epoch() Epoch {
	return id.raw.Epoch()
}

// IsZero returns true if the ID is zero (invalid).
func (id ID[T]) IsZero() bool {
	return id.raw.IsZero()
}

// String returns a string representation of the ID.
func (id ID[T]) String() string {
	index, epoch := id.Unzip()
	return fmt.Sprintf("ID(%d,%d)", index, epoch)
}

// Marker types, one per boxed-handle kind this module tracks (spec.md §3).
// These are empty structs that implement the Marker interface.

type InstanceMarker struct{}

func (InstanceMarker) marker() {}

type PhysicalDeviceMarker struct{}

func (PhysicalDeviceMarker) marker() {}

type DeviceMarker struct{}

func (DeviceMarker) marker() {}

type QueueMarker struct{}

func (QueueMarker) marker() {}

type DeviceMemoryMarker struct{}

func (DeviceMemoryMarker) marker() {}

type BufferMarker struct{}

func (BufferMarker) marker() {}

type BufferViewMarker struct{}

func (BufferViewMarker) marker() {}

type ImageMarker struct{}

func (ImageMarker) marker() {}

type ImageViewMarker struct{}

func (ImageViewMarker) marker() {}

type SamplerMarker struct{}

func (SamplerMarker) marker() {}

type SemaphoreMarker struct{}

func (SemaphoreMarker) marker() {}

type FenceMarker struct{}

func (FenceMarker) marker() {}

type ShaderModuleMarker struct{}

func (ShaderModuleMarker) marker() {}

type PipelineLayoutMarker struct{}

func (PipelineLayoutMarker) marker() {}

type PipelineMarker struct{}

func (PipelineMarker) marker() {}

type PipelineCacheMarker struct{}

func (PipelineCacheMarker) marker() {}

type RenderPassMarker struct{}

func (RenderPassMarker) marker() {}

type FramebufferMarker struct{}

func (FramebufferMarker) marker() {}

type DescriptorSetLayoutMarker struct{}

func (DescriptorSetLayoutMarker) marker() {}

type DescriptorPoolMarker struct{}

func (DescriptorPoolMarker) marker() {}

type DescriptorSetMarker struct{}

func (DescriptorSetMarker) marker() {}

type CommandPoolMarker struct{}

func (CommandPoolMarker) marker() {}

type CommandBufferMarker struct{}

func (CommandBufferMarker) marker() {}

// Type aliases for boxed-handle IDs. These are convenient, readable names
// for the per-kind ID[Marker] instantiations used throughout boxed,
// state, and dispatch.

type InstanceID = ID[InstanceMarker]
type PhysicalDeviceID = ID[PhysicalDeviceMarker]
type DeviceID = ID[DeviceMarker]
type QueueID = ID[QueueMarker]
type DeviceMemoryID = ID[DeviceMemoryMarker]
type BufferID = ID[BufferMarker]
type BufferViewID = ID[BufferViewMarker]
type ImageID = ID[ImageMarker]
type ImageViewID = ID[ImageViewMarker]
type SamplerID = ID[SamplerMarker]
type SemaphoreID = ID[SemaphoreMarker]
type FenceID = ID[FenceMarker]
type ShaderModuleID = ID[ShaderModuleMarker]
type PipelineLayoutID = ID[PipelineLayoutMarker]
type PipelineID = ID[PipelineMarker]
type PipelineCacheID = ID[PipelineCacheMarker]
type RenderPassID = ID[RenderPassMarker]
type FramebufferID = ID[FramebufferMarker]
type DescriptorSetLayoutID = ID[DescriptorSetLayoutMarker]
type DescriptorPoolID = ID[DescriptorPoolMarker]
type DescriptorSetID = ID[DescriptorSetMarker]
type CommandPoolID = ID[CommandPoolMarker]
type CommandBufferID = ID[CommandBufferMarker]
