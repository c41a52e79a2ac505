// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dispatch

import (
	"unsafe"

	"github.com/virtgpu/vkhost/core"
	"github.com/virtgpu/vkhost/state"
	"github.com/virtgpu/vkhost/teximage"
	"github.com/virtgpu/vkhost/vkabi"
)

// PendingAllocSlot is one entry of queue_commit_descriptor_set_updates'
// pending-allocation array (spec.md §4.7): the guest's boxed set token
// for this slot, which pool and layout to (re)allocate from, and whether
// a fresh allocation was requested even if the token already resolves.
type PendingAllocSlot struct {
	Set        core.DescriptorSetID // zero if this slot has never been allocated
	Pool       core.DescriptorPoolID
	Layout     core.DescriptorSetLayoutID
	Reallocate bool
	// AllocInfo is the native VkDescriptorSetAllocateInfo for this slot,
	// built by the caller, used only when a fresh allocation is needed.
	AllocInfo unsafe.Pointer
}

// WriteDescriptorSet is the decoded Go-native shape of one flattened
// write-descriptor-set entry (spec.md §4.7's "flat write-descriptor-set
// array"). SlotIndex selects which PendingAllocSlot this write's dst_set
// resolves to.
type WriteDescriptorSet struct {
	SlotIndex       int
	Binding         uint32
	ArrayElement    uint32
	DescriptorCount uint32
	DescriptorType  uint32

	Buffer          vkabi.Buffer
	ImageView       vkabi.ImageView
	Sampler         vkabi.Sampler
	TexelBufferView vkabi.BufferView
}

// descriptorTypeCombinedImageSampler mirrors
// VK_DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER.
const descriptorTypeCombinedImageSampler = 1

// AlternateSamplerInfoBuilder builds the native VkSamplerCreateInfo for
// an opaque-alpha-emulated variant of an existing sampler (spec.md §4.7:
// "lazily creates an alternate sampler with TRANSPARENT_BLACK replaced by
// OPAQUE_BLACK"). Native struct layout stays the caller's responsibility,
// matching CreateImage's compressed-format detour (dispatch/resource.go).
type AlternateSamplerInfoBuilder func(original vkabi.Sampler) unsafe.Pointer

// CommitResult reports what CommitDescriptorSetUpdates resolved, so the
// caller can patch dst_set (and, where substituted, sampler) fields into
// the native VkWriteDescriptorSet array before calling UpdateDescriptorSets.
type CommitResult struct {
	ResolvedSets      []vkabi.DescriptorSet          // parallel to the slots argument
	SubstituteSampler map[int]vkabi.Sampler           // write index -> alternate sampler, only when emulation applied
}

// CommitDescriptorSetUpdates implements queue_commit_descriptor_set_updates
// (spec.md §4.7): resolves pending-allocation slots, applies the
// descriptor-write wrap-around rule while recording weak references for
// snapshot liveness, and detects the opaque-alpha sampler-substitution
// case. It does not itself call vkUpdateDescriptorSets — the caller
// patches the resolved fields into its native array and then calls
// Hub.UpdateDescriptorSets.
func (h *Hub) CommitDescriptorSetUpdates(deviceID core.DeviceID, slots []PendingAllocSlot, writes []WriteDescriptorSet, buildAlternate AlternateSamplerInfoBuilder) (CommitResult, vkabi.Result) {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return CommitResult{}, vkabi.ErrorInitializationFailed
	}
	device := devEntry.Handle
	ext, ok := h.DeviceExt(device)
	if !ok {
		return CommitResult{}, vkabi.ErrorInitializationFailed
	}

	result := CommitResult{
		ResolvedSets:      make([]vkabi.DescriptorSet, len(slots)),
		SubstituteSampler: make(map[int]vkabi.Sampler),
	}

	// Step 1: resolve every pending-allocation slot.
	for i, slot := range slots {
		handle, needsAlloc := h.resolveExistingSet(slot)
		if !needsAlloc {
			result.ResolvedSets[i] = handle
			continue
		}

		if !slot.Set.IsZero() {
			if entry, err := h.DescSets.Get(slot.Set); err == nil {
				poolEntry, err := h.DescPools.Get(slot.Pool)
				if err == nil {
					ext.Cmds.FreeDescriptorSets(device, poolEntry.Handle, 1, &entry.Handle)
				}
				h.Tracker.FreeDescriptorSet(entry.Handle)
				_, _ = h.DescSets.Remove(slot.Set)
			}
		}

		var newSet vkabi.DescriptorSet
		res := ext.Cmds.AllocateDescriptorSets(device, slot.AllocInfo, &newSet)
		if !res.IsSuccess() {
			return CommitResult{}, res
		}
		poolEntry, err := h.DescPools.Get(slot.Pool)
		if err != nil {
			return CommitResult{}, vkabi.ErrorInitializationFailed
		}
		layoutEntry, err := h.DescSetLayouts.Get(slot.Layout)
		if err != nil {
			return CommitResult{}, vkabi.ErrorInitializationFailed
		}
		h.Tracker.CreateDescriptorSet(newSet, poolEntry.Handle, layoutEntry.Handle)
		result.ResolvedSets[i] = newSet
	}

	// Step 2/3: resolve dst_set per write, apply the wrap-around rule,
	// record weak references, and detect opaque-alpha substitution.
	for wi, w := range writes {
		if w.SlotIndex < 0 || w.SlotIndex >= len(result.ResolvedSets) {
			continue
		}
		setHandle := result.ResolvedSets[w.SlotIndex]
		layoutHandle, ok := h.layoutForSet(setHandle)
		if !ok {
			continue
		}
		layoutRec, ok := h.Tracker.DescriptorSetLayout(layoutHandle)
		if !ok {
			continue
		}

		segments := wrapAroundSegments(layoutRec.Bindings, w.Binding, w.ArrayElement, w.DescriptorCount)
		for _, seg := range segments {
			for elem := uint32(0); elem < seg.count; elem++ {
				h.Tracker.RecordDescriptorWrite(setHandle, state.DescriptorWrite{
					Binding:         seg.binding,
					ArrayElement:    seg.start + elem,
					DescriptorType:  w.DescriptorType,
					Buffer:          w.Buffer,
					ImageView:       w.ImageView,
					Sampler:         w.Sampler,
					TexelBufferView: w.TexelBufferView,
				})
			}
		}

		if w.DescriptorType == descriptorTypeCombinedImageSampler && w.ImageView != 0 && w.Sampler != 0 {
			if alt, ok := h.alternateSamplerIfNeeded(device, ext.Cmds, w.ImageView, w.Sampler, buildAlternate); ok {
				result.SubstituteSampler[wi] = alt
			}
		}
	}

	return result, vkabi.Success
}

// UpdateDescriptorSets calls the shared update_descriptor_sets path
// (spec.md §4.7 step 3) once the caller has patched dst_set and any
// substituted sampler fields into the native arrays using the result of
// CommitDescriptorSetUpdates.
func (h *Hub) UpdateDescriptorSets(deviceID core.DeviceID, writeCount uint32, writes unsafe.Pointer, copyCount uint32, copies unsafe.Pointer) error {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return err
	}
	ext, ok := h.DeviceExt(devEntry.Handle)
	if !ok {
		return ErrUnknownDevice
	}
	ext.Cmds.UpdateDescriptorSets(devEntry.Handle, writeCount, writes, copyCount, copies)
	return nil
}

// resolveExistingSet reports whether slot already resolves to a live set
// (no reallocation needed) and, if so, its native handle.
func (h *Hub) resolveExistingSet(slot PendingAllocSlot) (vkabi.DescriptorSet, bool) {
	if slot.Reallocate || slot.Set.IsZero() {
		return 0, false
	}
	entry, err := h.DescSets.Get(slot.Set)
	if err != nil {
		return 0, false
	}
	return entry.Handle, true
}

func (h *Hub) layoutForSet(set vkabi.DescriptorSet) (vkabi.DescriptorSetLayout, bool) {
	rec, ok := h.Tracker.DescriptorSet(set)
	if !ok {
		return 0, false
	}
	return rec.Layout, true
}

type writeSegment struct {
	binding uint32
	start   uint32
	count   uint32
}

// wrapAroundSegments implements spec.md §4.7's wrap-around rule: "when an
// element count exceeds the remaining descriptors in a binding, the write
// continues at element zero of the next binding." bindings must be sorted
// by Binding ascending, matching how CreateDescriptorSetLayout records
// them from the guest's layout create-info.
func wrapAroundSegments(bindings []state.DescriptorBinding, startBinding, startElement, count uint32) []writeSegment {
	var segments []writeSegment
	bi := 0
	for ; bi < len(bindings); bi++ {
		if bindings[bi].Binding == startBinding {
			break
		}
	}
	elem := startElement
	remaining := count
	for remaining > 0 && bi < len(bindings) {
		capacity := bindings[bi].DescriptorCount
		if elem >= capacity {
			bi++
			elem = 0
			continue
		}
		avail := capacity - elem
		take := remaining
		if take > avail {
			take = avail
		}
		segments = append(segments, writeSegment{binding: bindings[bi].Binding, start: elem, count: take})
		remaining -= take
		elem += take
		if elem >= capacity {
			bi++
			elem = 0
		}
	}
	return segments
}

// alternateSamplerIfNeeded implements spec.md §4.7's opaque-alpha
// substitution: when both the image view's image and the sampler require
// emulated opaque-alpha border colour, lazily create (and cache) an
// alternate sampler to substitute in the driver-facing write.
func (h *Hub) alternateSamplerIfNeeded(device vkabi.Device, cmds *vkabi.Commands, view vkabi.ImageView, sampler vkabi.Sampler, build AlternateSamplerInfoBuilder) (vkabi.Sampler, bool) {
	samplerRec, ok := h.Tracker.Sampler(sampler)
	if !ok || !samplerRec.EmulatedOpaqueAlpha {
		return 0, false
	}
	viewRec, ok := h.Tracker.ImageView(view)
	if !ok {
		return 0, false
	}
	imgRec, ok := h.Tracker.Image(viewRec.Image)
	if !ok {
		return 0, false
	}
	if !imageNeedsEmulatedAlpha(imgRec) {
		return 0, false
	}

	h.mu.Lock()
	if alt, ok := h.altSampler[sampler]; ok {
		h.mu.Unlock()
		return alt, true
	}
	h.mu.Unlock()

	if build == nil {
		return 0, false
	}
	createInfo := build(sampler)
	var alt vkabi.Sampler
	if res := cmds.CreateSampler(device, createInfo, &alt); !res.IsSuccess() {
		return 0, false
	}
	h.Tracker.CreateSampler(alt, device, true)

	h.mu.Lock()
	h.altSampler[sampler] = alt
	h.mu.Unlock()
	return alt, true
}

// imageNeedsEmulatedAlpha reports whether img's original (pre-detour)
// format is an emulated-compressed format lacking a real alpha channel
// (e.g. ETC2 RGB8), per spec.md §4.7/§4.9 and SPEC_FULL.md supplemented
// feature 5.
func imageNeedsEmulatedAlpha(img *state.Image) bool {
	fmtInfo, ok := teximage.Lookup(img.Info.Format)
	return ok && fmtInfo.NeedsEmulatedAlpha
}
