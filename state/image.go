// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package state

import "github.com/virtgpu/vkhost/vkabi"

// Image is the record for a live VkImage.
type Image struct {
	Handle vkabi.Image
	Device vkabi.Device
	Info   vkabi.ImageCreateInfo

	BoundMemory       vkabi.DeviceMemory
	BoundMemoryOffset uint64
	Bound             bool

	// ShadowFormat/ShadowImage are set when Info.Format is an
	// emulated-compressed format and teximage has created a
	// size-compatible shadow image to back it (spec.md §4.9).
	ShadowFormat vkabi.Format
	ShadowImage  vkabi.Image
}

// ImageView is the record for a live VkImageView.
type ImageView struct {
	Handle vkabi.ImageView
	Image  vkabi.Image
	Device vkabi.Device
}

// Sampler is the record for a live VkSampler.
type Sampler struct {
	Handle           vkabi.Sampler
	Device           vkabi.Device
	EmulatedOpaqueAlpha bool // spec.md §4.7's emulated opaque-alpha border color
}

// CreateImage registers a newly created image, before memory binding.
func (t *Tracker) CreateImage(handle vkabi.Image, device vkabi.Device, info vkabi.ImageCreateInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.images[handle] = &Image{Handle: handle, Device: device, Info: info}
}

// BindImageMemory records the memory binding established by
// vkBindImageMemory (or the single-bind-info case of
// vkBindImageMemory2 — see spec.md §9 Open Question (a) for the
// bindInfoCount > 1 case, which this module never reaches here).
func (t *Tracker) BindImageMemory(handle vkabi.Image, memory vkabi.DeviceMemory, offset uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.images[handle]
	if !ok {
		return ErrUnknownHandle
	}
	if rec.Bound {
		return ErrAlreadyBound
	}
	rec.BoundMemory, rec.BoundMemoryOffset, rec.Bound = memory, offset, true
	return nil
}

// SetShadowImage records the size-compatible shadow image teximage
// created for an emulated-compressed image.
func (t *Tracker) SetShadowImage(handle vkabi.Image, shadowFormat vkabi.Format, shadow vkabi.Image) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.images[handle]
	if !ok {
		return ErrUnknownHandle
	}
	rec.ShadowFormat, rec.ShadowImage = shadowFormat, shadow
	return nil
}

// Image looks up an image record.
func (t *Tracker) Image(handle vkabi.Image) (*Image, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.images[handle]
	return rec, ok
}

// DestroyImage removes the image record.
func (t *Tracker) DestroyImage(handle vkabi.Image) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.images, handle)
}

// CreateImageView registers a newly created image view.
func (t *Tracker) CreateImageView(handle vkabi.ImageView, image vkabi.Image, device vkabi.Device) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.imageViews[handle] = &ImageView{Handle: handle, Image: image, Device: device}
}

// ImageView looks up an image view record.
func (t *Tracker) ImageView(handle vkabi.ImageView) (*ImageView, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.imageViews[handle]
	return rec, ok
}

// DestroyImageView removes the image view record.
func (t *Tracker) DestroyImageView(handle vkabi.ImageView) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.imageViews, handle)
}

// CreateSampler registers a newly created sampler.
func (t *Tracker) CreateSampler(handle vkabi.Sampler, device vkabi.Device, emulatedOpaqueAlpha bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samplers[handle] = &Sampler{Handle: handle, Device: device, EmulatedOpaqueAlpha: emulatedOpaqueAlpha}
}

// Sampler looks up a sampler record.
func (t *Tracker) Sampler(handle vkabi.Sampler) (*Sampler, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.samplers[handle]
	return rec, ok
}

// DestroySampler removes the sampler record.
func (t *Tracker) DestroySampler(handle vkabi.Sampler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.samplers, handle)
}
