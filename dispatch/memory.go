// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dispatch

import (
	"unsafe"

	"github.com/virtgpu/vkhost/core"
	"github.com/virtgpu/vkhost/extres"
	"github.com/virtgpu/vkhost/state"
	"github.com/virtgpu/vkhost/vkabi"
)

// AllocationRequest is the guest-visible shape of a vkAllocateMemory
// call, plus the optional provenance-selecting fields spec.md §4.5
// enumerates: import-by-ColorBuffer, import-by-blob-ID, or request an
// exportable allocation.
type AllocationRequest struct {
	CreateInfo      unsafe.Pointer // native VkMemoryAllocateInfo, already typeIndex-translated
	Size            uint64
	MemoryTypeIndex uint32
	ImportColorBuffer uint32 // 0 if none
	ImportBlobID      uint64 // 0 if none
	WantExportable    bool
	HostVisible       bool
	HostCached        bool
	HostCoherent      bool
}

// AllocateMemory implements vkAllocateMemory's provenance branches
// (spec.md §4.5). The caller is responsible for having already
// translated the guest memory-type index via state.TranslateMemoryType
// and injected the right struct into CreateInfo's pNext chain for
// whichever provenance branch applies — this function records the
// outcome and, for the plain host-visible case with no external
// pathway, performs the single whole-range map.
func (h *Hub) AllocateMemory(deviceID core.DeviceID, req AllocationRequest) (core.DeviceMemoryID, vkabi.Result) {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return core.DeviceMemoryID{}, vkabi.ErrorInitializationFailed
	}
	device := devEntry.Handle
	ext, ok := h.DeviceExt(device)
	if !ok {
		return core.DeviceMemoryID{}, vkabi.ErrorInitializationFailed
	}

	var memory vkabi.DeviceMemory
	res := ext.Cmds.AllocateMemory(device, req.CreateInfo, &memory)
	if !res.IsSuccess() {
		return core.DeviceMemoryID{}, res
	}

	h.Tracker.CreateMemory(memory, device, req.Size, req.MemoryTypeIndex)
	id := h.Memories.Add(memory, nil)

	if rec, ok := h.Tracker.Memory(memory); ok {
		rec.ColorBuffer = req.ImportColorBuffer
		rec.BlobID = req.ImportBlobID
		rec.Exportable = req.WantExportable
	}

	// Plain host-visible allocation with no external pathway owning the
	// mapping: map the whole range once and cache the pointer (spec.md
	// §4.5's final bullet).
	if req.HostVisible && req.ImportColorBuffer == 0 && req.ImportBlobID == 0 {
		var ptr unsafe.Pointer
		if res := ext.Cmds.MapMemory(device, memory, 0, req.Size, &ptr); res.IsSuccess() {
			_ = h.Tracker.RecordMap(memory, ptr, 0, req.Size)
		}
	}

	return id, vkabi.Success
}

// MapMemory implements vkMapMemory. Per spec.md §4.5, map_memory
// returns mapping.ptr + offset without calling the driver when a
// mapping is already cached (the allocation path already mapped
// host-visible memory with no external owner); otherwise it calls the
// driver and caches the result for the first time (e.g. a mapping that
// was deferred because a direct-GPA path owns it until now).
func (h *Hub) MapMemory(memoryID core.DeviceMemoryID, offset, size uint64) (unsafe.Pointer, error) {
	entry, err := h.Memories.Get(memoryID)
	if err != nil {
		return nil, err
	}
	memory := entry.Handle

	rec, ok := h.Tracker.Memory(memory)
	if !ok {
		return nil, state.ErrUnknownHandle
	}
	if rec.Mapped != nil {
		return unsafe.Add(rec.Mapped, offset), nil
	}

	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return nil, ErrUnknownDevice
	}
	var ptr unsafe.Pointer
	if res := ext.Cmds.MapMemory(rec.Device, memory, 0, rec.Size, &ptr); !res.IsSuccess() {
		return nil, mapResultError(res)
	}
	_ = h.Tracker.RecordMap(memory, ptr, 0, rec.Size)
	return unsafe.Add(ptr, offset), nil
}

// UnmapMemory implements vkUnmapMemory.
func (h *Hub) UnmapMemory(memoryID core.DeviceMemoryID) error {
	entry, err := h.Memories.Get(memoryID)
	if err != nil {
		return err
	}
	memory := entry.Handle
	rec, ok := h.Tracker.Memory(memory)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return ErrUnknownDevice
	}
	ext.Cmds.UnmapMemory(rec.Device, memory)
	return h.Tracker.RecordUnmap(memory)
}

// FreeMemory implements vkFreeMemory: reverse any direct guest-physical
// mapping, call the native driver, and drop both the boxed token and
// the registry record.
func (h *Hub) FreeMemory(memoryID core.DeviceMemoryID) error {
	entry, err := h.Memories.Get(memoryID)
	if err != nil {
		return err
	}
	memory := entry.Handle
	rec, ok := h.Tracker.Memory(memory)
	if !ok {
		return state.ErrUnknownHandle
	}
	if rec.DirectMappedGPA != 0 {
		_ = h.AddrSpace.UnmapUserBackedRAM(rec.DirectMappedGPA, rec.Size)
	}

	ext, ok := h.DeviceExt(rec.Device)
	if ok {
		ext.Cmds.FreeMemory(rec.Device, memory)
	}
	h.Tracker.DestroyMemory(memory)
	_, _ = h.Memories.Remove(memoryID)
	return nil
}

// GetBlob implements get_blob (spec.md §4.5): exports an allocation as
// a reusable OS-native blob, registering it with the external-object
// manager along with cache mode and Vulkan provenance so a later
// re-import can pick a compatible memory type, and registers a guest-
// physical-address mapping for it.
func (h *Hub) GetBlob(memoryID core.DeviceMemoryID, ctx uint64, hostBlobID uint64, handle uintptr, handleType extres.HandleType, deviceUUID [16]byte, gpa uint64) error {
	entry, err := h.Memories.Get(memoryID)
	if err != nil {
		return err
	}
	memory := entry.Handle
	rec, ok := h.Tracker.Memory(memory)
	if !ok {
		return state.ErrUnknownHandle
	}

	cache := extres.InferCacheMode(true, false, true)
	vulkan := &extres.VulkanInfo{MemoryTypeIndex: rec.MemoryTypeIndex, DeviceUUID: deviceUUID}
	h.ExternalObjects.AddBlobDescriptor(ctx, hostBlobID, handle, handleType, cache, vulkan)
	h.ExternalObjects.AddMapping(ctx, hostBlobID, uintptr(rec.Mapped), cache)

	if revoked, had := h.Tracker.RecordDirectMap(memory, gpa); had {
		h.Log.Warn("dispatch: revoked prior direct mapping on GetBlob", "handle", revoked)
	}
	return h.AddrSpace.MapUserBackedRAM(gpa, uint64(uintptr(rec.Mapped)), rec.Size)
}

func mapResultError(res vkabi.Result) error {
	return &mappingError{res: res}
}

type mappingError struct{ res vkabi.Result }

func (e *mappingError) Error() string { return "dispatch: vkMapMemory failed" }
func (e *mappingError) Result() vkabi.Result { return e.res }
