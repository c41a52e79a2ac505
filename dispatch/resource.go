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

// CreateBuffer implements vkCreateBuffer, including the snapshotability
// fixup spec.md §4.4 names: "forcing TRANSFER_SRC on device-local
// buffers for snapshotability" is the caller's responsibility to bake
// into createInfo before calling this (dispatch only records what usage
// ends up being created with).
func (h *Hub) CreateBuffer(deviceID core.DeviceID, createInfo unsafe.Pointer, size uint64, usage vkabi.BufferUsageFlags) (core.BufferID, vkabi.Result) {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return core.BufferID{}, vkabi.ErrorInitializationFailed
	}
	device := devEntry.Handle
	ext, ok := h.DeviceExt(device)
	if !ok {
		return core.BufferID{}, vkabi.ErrorInitializationFailed
	}

	var buffer vkabi.Buffer
	res := ext.Cmds.CreateBuffer(device, createInfo, &buffer)
	if !res.IsSuccess() {
		return core.BufferID{}, res
	}

	h.Tracker.CreateBuffer(buffer, device, size, usage)
	return h.Buffers.Add(buffer, nil), vkabi.Success
}

// BindBufferMemory implements vkBindBufferMemory.
func (h *Hub) BindBufferMemory(bufferID core.BufferID, memoryID core.DeviceMemoryID, offset uint64) error {
	bufEntry, err := h.Buffers.Get(bufferID)
	if err != nil {
		return err
	}
	memEntry, err := h.Memories.Get(memoryID)
	if err != nil {
		return err
	}
	bufRec, ok := h.Tracker.Buffer(bufEntry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(bufRec.Device)
	if !ok {
		return ErrUnknownDevice
	}
	if res := ext.Cmds.BindBufferMemory(bufRec.Device, bufEntry.Handle, memEntry.Handle, offset); !res.IsSuccess() {
		return mapResultError(res)
	}
	return h.Tracker.BindBufferMemory(bufEntry.Handle, memEntry.Handle, offset)
}

// DestroyBuffer implements vkDestroyBuffer. The native buffer is
// destroyed immediately: buffers are not routed through the device-op
// tracker, whose pending-garbage queue holds only fences and semaphores.
func (h *Hub) DestroyBuffer(bufferID core.BufferID) error {
	entry, err := h.Buffers.Get(bufferID)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.Buffer(entry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if ok {
		ext.Cmds.DestroyBuffer(rec.Device, entry.Handle)
	}
	h.Tracker.DestroyBuffer(entry.Handle)
	_, _ = h.Buffers.Remove(bufferID)
	return nil
}

// CreateImageResult reports whether a compressed-texture detour created
// a size-compatible shadow image set alongside the real image.
type CreateImageResult struct {
	Image  core.ImageID
	Shadow *teximage.CompressedImageInfo
}

// CreateImage implements vkCreateImage including the compressed-format
// detour (spec.md §4.6, §4.9, §8 scenario 3): when info.Format is an
// emulated ETC2/ASTC format and this device emulates it, validate the
// usage/type combination, rewrite the create-info to the real image's
// decompressed-and-storage-capable form (left to the caller, which owns
// native struct layout), and compute the shadow mip geometry that a
// subsequent BindImageMemory / teximage pipeline will use.
func (h *Hub) CreateImage(deviceID core.DeviceID, createInfo unsafe.Pointer, info vkabi.ImageCreateInfo) (CreateImageResult, vkabi.Result) {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return CreateImageResult{}, vkabi.ErrorInitializationFailed
	}
	device := devEntry.Handle
	ext, ok := h.DeviceExt(device)
	if !ok {
		return CreateImageResult{}, vkabi.ErrorInitializationFailed
	}

	var shadow *teximage.CompressedImageInfo
	fmtInfo, emulated := teximage.Lookup(info.Format)
	emulateThis := emulated && ((fmtInfo.IsASTC && ext.Cfg.EmulateASTC) || (!fmtInfo.IsASTC && ext.Cfg.EmulateETC2))
	if emulateThis {
		if err := teximage.ValidateUsage(info.Usage, info.ImageType); err != nil {
			return CreateImageResult{}, vkabi.ErrorFormatNotSupported
		}
		shadow = teximage.NewCompressedImageInfo(fmtInfo, info)
	}

	var image vkabi.Image
	res := ext.Cmds.CreateImage(device, createInfo, &image)
	if !res.IsSuccess() {
		return CreateImageResult{}, res
	}

	h.Tracker.CreateImage(image, device, info)
	id := h.Images.Add(image, nil)

	if shadow != nil {
		for i := range shadow.Mips {
			mipCreateInfo := vkabi.ImageCreateInfo{
				ImageType: info.ImageType, Format: fmtInfo.SizeCompat,
				Width: shadow.Mips[i].Width, Height: shadow.Mips[i].Height, Depth: 1,
				MipLevels: 1, ArrayLayers: shadow.Mips[i].Depth,
				Usage: vkabi.ImageUsageStorage | vkabi.ImageUsageTransferDst | vkabi.ImageUsageTransferSrc,
			}
			var mipImage vkabi.Image
			if res := ext.Cmds.CreateImage(device, unsafe.Pointer(&mipCreateInfo), &mipImage); res.IsSuccess() {
				shadow.Mips[i].Image = mipImage
			}
		}
		_ = h.Tracker.SetShadowImage(image, fmtInfo.SizeCompat, shadowPrimaryImage(shadow))
	}

	return CreateImageResult{Image: id, Shadow: shadow}, vkabi.Success
}

func shadowPrimaryImage(s *teximage.CompressedImageInfo) vkabi.Image {
	if len(s.Mips) == 0 {
		return 0
	}
	return s.Mips[0].Image
}

// BindImageMemory implements vkBindImageMemory (the single-bind-info
// path only; vkBindImageMemory2 with bindInfoCount > 1 is the Open
// Question spec.md §9 leaves unsupported for snapshot, resolved in
// DESIGN.md).
func (h *Hub) BindImageMemory(imageID core.ImageID, memoryID core.DeviceMemoryID, offset uint64) error {
	imgEntry, err := h.Images.Get(imageID)
	if err != nil {
		return err
	}
	memEntry, err := h.Memories.Get(memoryID)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.Image(imgEntry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return ErrUnknownDevice
	}
	if res := ext.Cmds.BindImageMemory(rec.Device, imgEntry.Handle, memEntry.Handle, offset); !res.IsSuccess() {
		return mapResultError(res)
	}
	return h.Tracker.BindImageMemory(imgEntry.Handle, memEntry.Handle, offset)
}

// DestroyImage implements vkDestroyImage, also destroying any shadow
// images teximage created for it.
func (h *Hub) DestroyImage(imageID core.ImageID, shadow *teximage.CompressedImageInfo) error {
	entry, err := h.Images.Get(imageID)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.Image(entry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if ok {
		if shadow != nil {
			for _, mip := range shadow.Mips {
				if mip.Image != 0 {
					ext.Cmds.DestroyImage(rec.Device, mip.Image)
				}
			}
		}
		ext.Cmds.DestroyImage(rec.Device, entry.Handle)
	}
	h.Tracker.DestroyImage(entry.Handle)
	_, _ = h.Images.Remove(imageID)
	return nil
}

// RewriteCopyRegions rewrites every region of a buffer-to-image or
// image-to-image copy targeting an emulated-compressed image into the
// shadow domain (spec.md §4.6 "Compressed-format detour", §8 scenario
// 3), looping per spec.md §4.9's region-rewrite rule.
func RewriteCopyRegions(shadow *teximage.CompressedImageInfo, regions []teximage.BufferImageCopy) ([]teximage.BufferImageCopy, []vkabi.Image) {
	out := make([]teximage.BufferImageCopy, len(regions))
	targets := make([]vkabi.Image, len(regions))
	for i, r := range regions {
		out[i] = shadow.RewriteToShadow(r)
		if img, ok := shadow.ShadowImageFor(r.MipLevel); ok {
			targets[i] = img
		}
	}
	return out, targets
}
