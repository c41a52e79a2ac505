// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dispatch

import (
	"unsafe"

	"github.com/virtgpu/vkhost/core"
	"github.com/virtgpu/vkhost/state"
	"github.com/virtgpu/vkhost/vkabi"
)

// CreateImageView implements vkCreateImageView, registering the view
// against its parent image. No emulated-alpha flag is taken or recorded
// for the view; CommitDescriptorSetUpdates derives emulated alpha from
// the parent image's format when it needs it.
func (h *Hub) CreateImageView(deviceID core.DeviceID, imageID core.ImageID, createInfo unsafe.Pointer) (core.ImageViewID, vkabi.Result) {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return core.ImageViewID{}, vkabi.ErrorInitializationFailed
	}
	imgEntry, err := h.Images.Get(imageID)
	if err != nil {
		return core.ImageViewID{}, vkabi.ErrorInitializationFailed
	}
	device := devEntry.Handle
	ext, ok := h.DeviceExt(device)
	if !ok {
		return core.ImageViewID{}, vkabi.ErrorInitializationFailed
	}

	var view vkabi.ImageView
	res := ext.Cmds.CreateImageView(device, createInfo, &view)
	if !res.IsSuccess() {
		return core.ImageViewID{}, res
	}

	h.Tracker.CreateImageView(view, imgEntry.Handle, device)
	return h.ImageViews.Add(view, nil), vkabi.Success
}

// DestroyImageView implements vkDestroyImageView.
func (h *Hub) DestroyImageView(viewID core.ImageViewID) error {
	entry, err := h.ImageViews.Get(viewID)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.ImageView(entry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if ok {
		ext.Cmds.DestroyImageView(rec.Device, entry.Handle)
	}
	h.Tracker.DestroyImageView(entry.Handle)
	_, _ = h.ImageViews.Remove(viewID)
	return nil
}

// CreateSampler implements vkCreateSampler. emulatedOpaqueAlpha records
// whether this sampler's create-info used a TRANSPARENT_BLACK border
// colour that the device's texture emulation must later substitute for
// OPAQUE_BLACK when paired with a format lacking a real alpha channel
// (spec.md §4.7) — the dispatch caller determines this from the native
// create-info before calling here since border colour enums are not
// part of vkabi's handle-only surface.
func (h *Hub) CreateSampler(deviceID core.DeviceID, createInfo unsafe.Pointer, emulatedOpaqueAlpha bool) (core.SamplerID, vkabi.Result) {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return core.SamplerID{}, vkabi.ErrorInitializationFailed
	}
	device := devEntry.Handle
	ext, ok := h.DeviceExt(device)
	if !ok {
		return core.SamplerID{}, vkabi.ErrorInitializationFailed
	}

	var sampler vkabi.Sampler
	res := ext.Cmds.CreateSampler(device, createInfo, &sampler)
	if !res.IsSuccess() {
		return core.SamplerID{}, res
	}

	h.Tracker.CreateSampler(sampler, device, emulatedOpaqueAlpha)
	return h.Samplers.Add(sampler, nil), vkabi.Success
}

// DestroySampler implements vkDestroySampler. It also evicts any
// opaque-alpha alternate sampler CommitDescriptorSetUpdates cached for
// this sampler (dispatch/descriptor.go's altSampler cache), since the
// alternate's lifetime is tied to its original.
func (h *Hub) DestroySampler(samplerID core.SamplerID) error {
	entry, err := h.Samplers.Get(samplerID)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.Sampler(entry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if ok {
		ext.Cmds.DestroySampler(rec.Device, entry.Handle)
		h.mu.Lock()
		if alt, hasAlt := h.altSampler[entry.Handle]; hasAlt {
			ext.Cmds.DestroySampler(rec.Device, alt)
			delete(h.altSampler, entry.Handle)
		}
		h.mu.Unlock()
	}
	h.Tracker.DestroySampler(entry.Handle)
	_, _ = h.Samplers.Remove(samplerID)
	return nil
}
