// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package state

import (
	"errors"
	"unsafe"

	"github.com/virtgpu/vkhost/vkabi"
)

// ErrNoCompatibleMemoryType is returned when no host memory type
// satisfies the guest's requested property flags and type bits.
var ErrNoCompatibleMemoryType = errors.New("state: no compatible host memory type")

// Memory is the record for a live VkDeviceMemory (spec.md §4.5).
type Memory struct {
	Handle          vkabi.DeviceMemory
	Device          vkabi.Device
	Size            uint64
	MemoryTypeIndex uint32

	// Mapped is non-nil while the allocation is mapped via MapMemory.
	Mapped       unsafe.Pointer
	MappedOffset uint64
	MappedSize   uint64

	// ColorBuffer is set when this allocation backs a guest ColorBuffer
	// rather than plain guest-visible memory (spec.md glossary).
	ColorBuffer uint32
	// BlobID is set when this allocation was imported via a guest blob
	// ID rather than allocated fresh (spec.md §4.5 "blob import").
	BlobID uint64
	// Exportable marks memory allocated with an external-memory handle
	// type so extres can hand the OS handle back out on request.
	Exportable bool
	// DirectMappedGPA is the guest physical address this allocation is
	// mapped into, if any (spec.md §4.5's direct-map-into-guest-physical
	// path); zero when not directly mapped.
	DirectMappedGPA uint64
}

// CreateMemory registers a newly allocated VkDeviceMemory.
func (t *Tracker) CreateMemory(handle vkabi.DeviceMemory, device vkabi.Device, size uint64, memoryTypeIndex uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.memories[handle] = &Memory{Handle: handle, Device: device, Size: size, MemoryTypeIndex: memoryTypeIndex}
}

// Memory looks up a memory record.
func (t *Tracker) Memory(handle vkabi.DeviceMemory) (*Memory, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.memories[handle]
	return rec, ok
}

// DestroyMemory removes the memory record. Callers must have already
// unmapped and revoked any direct guest-physical mapping (spec.md §4.5)
// before calling this.
func (t *Tracker) DestroyMemory(handle vkabi.DeviceMemory) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.memories, handle)
}

// RecordMap stores the host pointer returned by vkMapMemory against the
// allocation's record, so subsequent guest reads/writes and UnmapMemory
// don't need a second native round trip to learn it.
func (t *Tracker) RecordMap(handle vkabi.DeviceMemory, ptr unsafe.Pointer, offset, size uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.memories[handle]
	if !ok {
		return ErrUnknownHandle
	}
	rec.Mapped, rec.MappedOffset, rec.MappedSize = ptr, offset, size
	return nil
}

// RecordUnmap clears the cached mapping.
func (t *Tracker) RecordUnmap(handle vkabi.DeviceMemory) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.memories[handle]
	if !ok {
		return ErrUnknownHandle
	}
	rec.Mapped, rec.MappedOffset, rec.MappedSize = nil, 0, 0
	return nil
}

// RecordDirectMap sets the guest physical address an allocation is
// mapped into, revoking (and reporting) any prior mapping at that same
// address first — goldfish_address_space.cpp logs and replaces a
// duplicate mapping rather than stacking two live mappings on one GPA
// (spec.md §4.5, SPEC_FULL.md supplemented feature 6).
func (t *Tracker) RecordDirectMap(handle vkabi.DeviceMemory, gpa uint64) (revoked vkabi.DeviceMemory, hadPrior bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for h, rec := range t.memories {
		if h != handle && rec.DirectMappedGPA == gpa {
			rec.DirectMappedGPA = 0
			revoked, hadPrior = h, true
			break
		}
	}
	if rec, ok := t.memories[handle]; ok {
		rec.DirectMappedGPA = gpa
	}
	return revoked, hadPrior
}

// TranslateMemoryType maps a guest-requested (typeBits, propertyFlags)
// pair to a host memory type index, implementing the memory-properties
// helper (spec.md §4.5, component budget item "Memory-properties
// helper"). It walks the host's memory type table exactly as the
// Vulkan spec's own vkAllocateMemory validation does: the lowest index
// whose bit is set in typeBits and whose property flags are a superset
// of the request wins.
func TranslateMemoryType(props *vkabi.PhysicalDeviceMemoryProperties, typeBits uint32, required vkabi.MemoryPropertyFlags) (uint32, error) {
	for i := uint32(0); i < props.MemoryTypeCount; i++ {
		if typeBits&(1<<i) == 0 {
			continue
		}
		if props.MemoryTypes[i].PropertyFlags&required == required {
			return i, nil
		}
	}
	return 0, ErrNoCompatibleMemoryType
}
