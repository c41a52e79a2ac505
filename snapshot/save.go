// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package snapshot

import (
	"unsafe"

	"github.com/virtgpu/vkhost/core"
	"github.com/virtgpu/vkhost/dispatch"
	"github.com/virtgpu/vkhost/state"
	"github.com/virtgpu/vkhost/vkabi"
)

// Save implements spec.md §4.10's save sequence against h's current
// state: the entity registries, mapped-memory blobs, image and buffer
// pixel contents (via ct), live descriptor writes, and unsignalled
// fences. It takes no lock of its own — the caller is responsible for
// quiescing guest traffic first (spec.md §5's suspension points), the
// same way the teacher's surface-level capture points document their own
// external synchronization requirement.
func Save(h *dispatch.Hub, w *Writer, ct ContentTransfer) error {
	saveDevices(h, w)
	saveQueues(h, w)
	saveMemories(h, w)
	saveBuffers(h, w)
	saveImages(h, w)
	saveImageViews(h, w)
	saveSamplers(h, w)
	saveSemaphores(h, w)
	saveDescriptorSetLayouts(h, w)
	saveDescriptorPools(h, w)
	saveFenceRegistry(h, w)
	if err := w.Err(); err != nil {
		return err
	}

	if err := saveMemoryBlobs(h, w); err != nil {
		return err
	}
	if err := saveImageContents(h, w, ct); err != nil {
		return err
	}
	if err := saveBufferContents(h, w, ct); err != nil {
		return err
	}
	if err := saveDescriptorWrites(h, w); err != nil {
		return err
	}
	if err := saveUnsignalledFences(h, w); err != nil {
		return err
	}
	return w.Err()
}

func saveDevices(h *dispatch.Hub, w *Writer) {
	var count uint32
	h.Devices.Each(func(id core.DeviceID, handle vkabi.Device, _ any) bool { count++; return true })
	w.U32(count)
	h.Devices.Each(func(id core.DeviceID, handle vkabi.Device, _ any) bool {
		rec, ok := h.Tracker.Device(handle)
		if !ok {
			return true
		}
		idx, epoch := id.Unzip()
		w.Token(idx, epoch)
		pdToken, _ := h.PhysicalDevices.GetBoxedFromUnboxed(rec.PhysicalDevice)
		pdIdx, pdEpoch := pdToken.Unzip()
		w.Token(pdIdx, pdEpoch)
		w.Strings(rec.EnabledExtensions)
		w.U32(uint32(len(rec.QueueFamilyMap)))
		for guestFamily, hostFamily := range rec.QueueFamilyMap {
			w.U32(guestFamily)
			w.U32(hostFamily)
		}
		return true
	})
}

func saveQueues(h *dispatch.Hub, w *Writer) {
	var count uint32
	h.Queues.Each(func(id core.QueueID, handle vkabi.Queue, _ any) bool { count++; return true })
	w.U32(count)
	h.Queues.Each(func(id core.QueueID, handle vkabi.Queue, _ any) bool {
		rec, ok := h.Tracker.Queue(handle)
		if !ok {
			return true
		}
		idx, epoch := id.Unzip()
		w.Token(idx, epoch)
		writeDeviceToken(h, w, rec.Device)
		w.U32(rec.FamilyIndex)
		w.U32(rec.Index)
		return true
	})
}

func saveMemories(h *dispatch.Hub, w *Writer) {
	var count uint32
	h.Memories.Each(func(id core.DeviceMemoryID, handle vkabi.DeviceMemory, _ any) bool { count++; return true })
	w.U32(count)
	h.Memories.Each(func(id core.DeviceMemoryID, handle vkabi.DeviceMemory, _ any) bool {
		rec, ok := h.Tracker.Memory(handle)
		if !ok {
			return true
		}
		idx, epoch := id.Unzip()
		w.Token(idx, epoch)
		writeDeviceToken(h, w, rec.Device)
		w.U64(rec.Size)
		w.U32(rec.MemoryTypeIndex)
		return true
	})
}

func saveBuffers(h *dispatch.Hub, w *Writer) {
	var count uint32
	h.Buffers.Each(func(id core.BufferID, handle vkabi.Buffer, _ any) bool { count++; return true })
	w.U32(count)
	h.Buffers.Each(func(id core.BufferID, handle vkabi.Buffer, _ any) bool {
		rec, ok := h.Tracker.Buffer(handle)
		if !ok {
			return true
		}
		idx, epoch := id.Unzip()
		w.Token(idx, epoch)
		writeDeviceToken(h, w, rec.Device)
		w.U64(rec.Size)
		w.U32(uint32(rec.Usage))
		w.Bool(rec.Bound)
		if rec.Bound {
			writeMemoryToken(h, w, rec.BoundMemory)
			w.U64(rec.BoundMemoryOffset)
		}
		return true
	})
}

func saveImages(h *dispatch.Hub, w *Writer) {
	var count uint32
	h.Images.Each(func(id core.ImageID, handle vkabi.Image, _ any) bool { count++; return true })
	w.U32(count)
	h.Images.Each(func(id core.ImageID, handle vkabi.Image, _ any) bool {
		rec, ok := h.Tracker.Image(handle)
		if !ok {
			return true
		}
		idx, epoch := id.Unzip()
		w.Token(idx, epoch)
		writeDeviceToken(h, w, rec.Device)
		writeImageCreateInfo(w, rec.Info)
		w.Bool(rec.Bound)
		if rec.Bound {
			writeMemoryToken(h, w, rec.BoundMemory)
			w.U64(rec.BoundMemoryOffset)
		}
		return true
	})
}

func saveImageViews(h *dispatch.Hub, w *Writer) {
	var count uint32
	h.ImageViews.Each(func(id core.ImageViewID, handle vkabi.ImageView, _ any) bool { count++; return true })
	w.U32(count)
	h.ImageViews.Each(func(id core.ImageViewID, handle vkabi.ImageView, _ any) bool {
		rec, ok := h.Tracker.ImageView(handle)
		if !ok {
			return true
		}
		idx, epoch := id.Unzip()
		w.Token(idx, epoch)
		writeDeviceToken(h, w, rec.Device)
		writeImageToken(h, w, rec.Image)
		return true
	})
}

func saveSamplers(h *dispatch.Hub, w *Writer) {
	var count uint32
	h.Samplers.Each(func(id core.SamplerID, handle vkabi.Sampler, _ any) bool { count++; return true })
	w.U32(count)
	h.Samplers.Each(func(id core.SamplerID, handle vkabi.Sampler, _ any) bool {
		rec, ok := h.Tracker.Sampler(handle)
		if !ok {
			return true
		}
		idx, epoch := id.Unzip()
		w.Token(idx, epoch)
		writeDeviceToken(h, w, rec.Device)
		w.Bool(rec.EmulatedOpaqueAlpha)
		return true
	})
}

func saveSemaphores(h *dispatch.Hub, w *Writer) {
	var count uint32
	h.Semaphores.Each(func(id core.SemaphoreID, handle vkabi.Semaphore, _ any) bool { count++; return true })
	w.U32(count)
	h.Semaphores.Each(func(id core.SemaphoreID, handle vkabi.Semaphore, _ any) bool {
		rec, ok := h.Tracker.Semaphore(handle)
		if !ok {
			return true
		}
		idx, epoch := id.Unzip()
		w.Token(idx, epoch)
		writeDeviceToken(h, w, rec.Device)
		return true
	})
}

func saveDescriptorSetLayouts(h *dispatch.Hub, w *Writer) {
	var count uint32
	h.DescSetLayouts.Each(func(id core.DescriptorSetLayoutID, handle vkabi.DescriptorSetLayout, _ any) bool {
		count++
		return true
	})
	w.U32(count)
	h.DescSetLayouts.Each(func(id core.DescriptorSetLayoutID, handle vkabi.DescriptorSetLayout, _ any) bool {
		rec, ok := h.Tracker.DescriptorSetLayout(handle)
		if !ok {
			return true
		}
		idx, epoch := id.Unzip()
		w.Token(idx, epoch)
		writeDeviceToken(h, w, rec.Device)
		w.U32(uint32(len(rec.Bindings)))
		for _, b := range rec.Bindings {
			w.U32(b.Binding)
			w.U32(b.DescriptorType)
			w.U32(b.DescriptorCount)
		}
		return true
	})
}

func saveDescriptorPools(h *dispatch.Hub, w *Writer) {
	var count uint32
	h.DescPools.Each(func(id core.DescriptorPoolID, handle vkabi.DescriptorPool, _ any) bool { count++; return true })
	w.U32(count)
	h.DescPools.Each(func(id core.DescriptorPoolID, handle vkabi.DescriptorPool, _ any) bool {
		rec, ok := h.Tracker.DescriptorPool(handle)
		if !ok {
			return true
		}
		idx, epoch := id.Unzip()
		w.Token(idx, epoch)
		writeDeviceToken(h, w, rec.Device)
		return true
	})
}

// saveFenceRegistry persists every live fence's bare existence (spec.md
// §4.10 step 1); step 6 separately marks which of these are currently
// VK_NOT_READY. A fence's ExternalFencePool membership is a host-side
// performance detail, not guest-visible state, so it is not persisted —
// Load always recreates fences as ordinary (non-pooled) signaled fences.
func saveFenceRegistry(h *dispatch.Hub, w *Writer) {
	var count uint32
	h.Fences.Each(func(id core.FenceID, handle vkabi.Fence, _ any) bool { count++; return true })
	w.U32(count)
	h.Fences.Each(func(id core.FenceID, handle vkabi.Fence, _ any) bool {
		rec, ok := h.Tracker.Fence(handle)
		if !ok {
			return true
		}
		idx, epoch := id.Unzip()
		w.Token(idx, epoch)
		writeDeviceToken(h, w, rec.Device)
		return true
	})
}

// saveMemoryBlobs implements step 2: every currently host-mapped
// allocation's bytes, copied directly from the cached host pointer
// RecordMap stashed (state.Memory.Mapped) rather than re-mapping.
func saveMemoryBlobs(h *dispatch.Hub, w *Writer) error {
	var mapped []*state.Memory
	h.Memories.Each(func(id core.DeviceMemoryID, handle vkabi.DeviceMemory, _ any) bool {
		if rec, ok := h.Tracker.Memory(handle); ok && rec.Mapped != nil {
			mapped = append(mapped, rec)
		}
		return true
	})
	w.U32(uint32(len(mapped)))
	for _, rec := range mapped {
		token, _ := h.Memories.GetBoxedFromUnboxed(rec.Handle)
		idx, epoch := token.Unzip()
		w.Token(idx, epoch)
		w.U64(rec.MappedSize)
		w.Bytes(unsafe.Slice((*byte)(rec.Mapped), rec.MappedSize))
	}
	return w.Err()
}

// saveImageContents implements step 3: every bound image's current
// layout and pixel contents, in boxed-handle-sorted order.
func saveImageContents(h *dispatch.Hub, w *Writer, ct ContentTransfer) error {
	type bound struct {
		token  core.ImageID
		handle vkabi.Image
		device vkabi.Device
		info   vkabi.ImageCreateInfo
	}
	var images []bound
	h.Images.Each(func(id core.ImageID, handle vkabi.Image, _ any) bool {
		if rec, ok := h.Tracker.Image(handle); ok && rec.Bound {
			images = append(images, bound{id, handle, rec.Device, rec.Info})
		}
		return true
	})
	w.U32(uint32(len(images)))
	for _, img := range images {
		idx, epoch := img.token.Unzip()
		w.Token(idx, epoch)
		layout, data, err := ct.ReadImage(img.device, img.handle, img.info)
		if err != nil {
			return err
		}
		w.U32(layout)
		w.Bytes(data)
	}
	return w.Err()
}

// saveBufferContents implements step 4.
func saveBufferContents(h *dispatch.Hub, w *Writer, ct ContentTransfer) error {
	type bound struct {
		token  core.BufferID
		handle vkabi.Buffer
		device vkabi.Device
		size   uint64
	}
	var buffers []bound
	h.Buffers.Each(func(id core.BufferID, handle vkabi.Buffer, _ any) bool {
		if rec, ok := h.Tracker.Buffer(handle); ok && rec.Bound {
			buffers = append(buffers, bound{id, handle, rec.Device, rec.Size})
		}
		return true
	})
	w.U32(uint32(len(buffers)))
	for _, buf := range buffers {
		idx, epoch := buf.token.Unzip()
		w.Token(idx, epoch)
		data, err := ct.ReadBuffer(buf.device, buf.handle, buf.size)
		if err != nil {
			return err
		}
		w.Bytes(data)
	}
	return w.Err()
}

// saveDescriptorWrites implements step 5: for every descriptor pool, for
// every set allocated from it, a byte indicating allocated-or-not
// followed by its live write entries. A write whose dependency (image
// view, sampler, buffer) was destroyed since the write is skipped
// (spec.md §8 testable property 7); a write referencing a texel buffer
// view is spec.md §9's unresolved corner and fails save outright
// (DESIGN.md Open Question decision 3).
func saveDescriptorWrites(h *dispatch.Hub, w *Writer) error {
	var pools []struct {
		token core.DescriptorPoolID
	}
	h.DescPools.Each(func(id core.DescriptorPoolID, handle vkabi.DescriptorPool, _ any) bool {
		pools = append(pools, struct{ token core.DescriptorPoolID }{id})
		return true
	})

	for _, p := range pools {
		entry, err := h.DescPools.Get(p.token)
		if err != nil {
			continue
		}
		var sets []struct {
			token  core.DescriptorSetID
			handle vkabi.DescriptorSet
		}
		h.DescSets.Each(func(id core.DescriptorSetID, handle vkabi.DescriptorSet, _ any) bool {
			if rec, ok := h.Tracker.DescriptorSet(handle); ok && rec.Pool == entry.Handle {
				sets = append(sets, struct {
					token  core.DescriptorSetID
					handle vkabi.DescriptorSet
				}{id, handle})
			}
			return true
		})

		w.U32(uint32(len(sets)))
		for _, s := range sets {
			rec, ok := h.Tracker.DescriptorSet(s.handle)
			if !ok {
				w.Bool(false)
				continue
			}
			w.Bool(true)
			idx, epoch := s.token.Unzip()
			w.Token(idx, epoch)
			layoutToken, _ := h.DescSetLayouts.GetBoxedFromUnboxed(rec.Layout)
			lIdx, lEpoch := layoutToken.Unzip()
			w.Token(lIdx, lEpoch)

			var live []state.DescriptorWrite
			for _, write := range rec.Writes {
				if write.TexelBufferView != 0 {
					return ErrUnsupportedSnapshot
				}
				if !writeDependenciesLive(h, write) {
					continue
				}
				live = append(live, write)
			}
			w.U32(uint32(len(live)))
			for _, write := range live {
				w.U32(write.Binding)
				w.U32(write.ArrayElement)
				w.U32(write.DescriptorType)
				writeOptionalBufferToken(h, w, write.Buffer)
				writeOptionalImageViewToken(h, w, write.ImageView)
				writeOptionalSamplerToken(h, w, write.Sampler)
			}
		}
		if err := w.Err(); err != nil {
			return err
		}
	}
	return nil
}

// writeDependenciesLive reports whether every non-zero handle a
// descriptor write references still resolves to a live record — the
// weak-reference liveness check spec.md §8 testable property 7
// describes.
func writeDependenciesLive(h *dispatch.Hub, write state.DescriptorWrite) bool {
	if write.Buffer != 0 {
		if _, ok := h.Tracker.Buffer(write.Buffer); !ok {
			return false
		}
	}
	if write.ImageView != 0 {
		if _, ok := h.Tracker.ImageView(write.ImageView); !ok {
			return false
		}
	}
	if write.Sampler != 0 {
		if _, ok := h.Tracker.Sampler(write.Sampler); !ok {
			return false
		}
	}
	return true
}

// saveUnsignalledFences implements step 6.
func saveUnsignalledFences(h *dispatch.Hub, w *Writer) error {
	var notReady []core.FenceID
	h.Fences.Each(func(id core.FenceID, handle vkabi.Fence, _ any) bool {
		rec, ok := h.Tracker.Fence(handle)
		if !ok {
			return true
		}
		ext, ok := h.DeviceExt(rec.Device)
		if !ok {
			return true
		}
		if ext.Cmds.GetFenceStatus(rec.Device, handle) == vkabi.NotReady {
			notReady = append(notReady, id)
		}
		return true
	})
	w.U32(uint32(len(notReady)))
	for _, id := range notReady {
		idx, epoch := id.Unzip()
		w.Token(idx, epoch)
	}
	return w.Err()
}

func writeDeviceToken(h *dispatch.Hub, w *Writer, device vkabi.Device) {
	token, _ := h.Devices.GetBoxedFromUnboxed(device)
	idx, epoch := token.Unzip()
	w.Token(idx, epoch)
}

func writeMemoryToken(h *dispatch.Hub, w *Writer, memory vkabi.DeviceMemory) {
	token, _ := h.Memories.GetBoxedFromUnboxed(memory)
	idx, epoch := token.Unzip()
	w.Token(idx, epoch)
}

func writeImageToken(h *dispatch.Hub, w *Writer, image vkabi.Image) {
	token, _ := h.Images.GetBoxedFromUnboxed(image)
	idx, epoch := token.Unzip()
	w.Token(idx, epoch)
}

// writeOptionalBufferToken writes a present flag followed by the token
// only when buffer is non-zero, mirroring how WriteDescriptorSet's
// native-facing siblings treat an absent field (spec.md §4.10 load step
// 6's "zero ... means that field was absent from the original write").
func writeOptionalBufferToken(h *dispatch.Hub, w *Writer, buffer vkabi.Buffer) {
	if buffer == 0 {
		w.Bool(false)
		return
	}
	w.Bool(true)
	writeBufferToken(h, w, buffer)
}

func writeBufferToken(h *dispatch.Hub, w *Writer, buffer vkabi.Buffer) {
	token, _ := h.Buffers.GetBoxedFromUnboxed(buffer)
	idx, epoch := token.Unzip()
	w.Token(idx, epoch)
}

func writeOptionalImageViewToken(h *dispatch.Hub, w *Writer, view vkabi.ImageView) {
	if view == 0 {
		w.Bool(false)
		return
	}
	w.Bool(true)
	token, _ := h.ImageViews.GetBoxedFromUnboxed(view)
	idx, epoch := token.Unzip()
	w.Token(idx, epoch)
}

func writeOptionalSamplerToken(h *dispatch.Hub, w *Writer, sampler vkabi.Sampler) {
	if sampler == 0 {
		w.Bool(false)
		return
	}
	w.Bool(true)
	token, _ := h.Samplers.GetBoxedFromUnboxed(sampler)
	idx, epoch := token.Unzip()
	w.Token(idx, epoch)
}

func writeImageCreateInfo(w *Writer, info vkabi.ImageCreateInfo) {
	w.U32(uint32(info.ImageType))
	w.U32(uint32(info.Format))
	w.U32(info.Width)
	w.U32(info.Height)
	w.U32(info.Depth)
	w.U32(info.MipLevels)
	w.U32(info.ArrayLayers)
	w.U32(uint32(info.Usage))
	w.U32(info.Flags)
}
