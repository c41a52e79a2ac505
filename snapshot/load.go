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

// Load implements spec.md §4.10's load sequence: clear every registry,
// replay creations through rec in the same order Save wrote them (so
// each stage can resolve the tokens an earlier stage already re-boxed
// via AddFixed), restore memory/image/buffer contents via ct, rebuild
// descriptor writes, and leave captured-unsignalled fences not-ready.
func Load(h *dispatch.Hub, r *Reader, rec Recorder, ct ContentTransfer) error {
	h.ResetForSnapshotLoad()

	if err := loadDevices(h, r, rec); err != nil {
		return err
	}
	if err := loadQueues(h, r, rec); err != nil {
		return err
	}
	if err := loadMemories(h, r, rec); err != nil {
		return err
	}
	if err := loadBuffers(h, r, rec); err != nil {
		return err
	}
	if err := loadImages(h, r, rec); err != nil {
		return err
	}
	if err := loadImageViews(h, r, rec); err != nil {
		return err
	}
	if err := loadSamplers(h, r, rec); err != nil {
		return err
	}
	if err := loadSemaphores(h, r, rec); err != nil {
		return err
	}
	if err := loadDescriptorSetLayouts(h, r, rec); err != nil {
		return err
	}
	pools, err := loadDescriptorPoolRegistry(h, r)
	if err != nil {
		return err
	}
	if err := loadFenceRegistry(h, r, rec); err != nil {
		return err
	}
	if err := r.Err(); err != nil {
		return err
	}

	if err := loadMemoryBlobs(h, r); err != nil {
		return err
	}
	if err := loadImageContents(h, r, ct); err != nil {
		return err
	}
	if err := loadBufferContents(h, r, ct); err != nil {
		return err
	}
	if err := loadDescriptorSets(h, r, rec, pools); err != nil {
		return err
	}
	if err := loadUnsignalledFences(h, r); err != nil {
		return err
	}
	return r.Err()
}

func readToken[M core.Marker](r *Reader) core.ID[M] {
	idx, epoch := r.Token()
	return core.NewID[M](idx, epoch)
}

func loadDevices(h *dispatch.Hub, r *Reader, rec Recorder) error {
	count := r.U32()
	for i := uint32(0); i < count; i++ {
		token := readToken[core.DeviceMarker](r)
		pdToken := readToken[core.PhysicalDeviceMarker](r)
		extensions := r.Strings()
		qfmCount := r.U32()
		qfm := make(map[uint32]uint32, qfmCount)
		for j := uint32(0); j < qfmCount; j++ {
			guestFamily := r.U32()
			hostFamily := r.U32()
			qfm[guestFamily] = hostFamily
		}
		if err := r.Err(); err != nil {
			return err
		}

		pdEntry, err := h.PhysicalDevices.Get(pdToken)
		if err != nil {
			return err
		}
		device, res := rec.CreateDevice(pdEntry.Handle, extensions, qfm)
		if !res.IsSuccess() {
			return resultError(res)
		}
		h.Tracker.CreateDevice(device, pdEntry.Handle, extensions, qfm)
		h.Devices.AddFixed(token, device, nil)
	}
	return nil
}

func loadQueues(h *dispatch.Hub, r *Reader, rec Recorder) error {
	count := r.U32()
	for i := uint32(0); i < count; i++ {
		token := readToken[core.QueueMarker](r)
		deviceToken := readToken[core.DeviceMarker](r)
		family := r.U32()
		index := r.U32()
		if err := r.Err(); err != nil {
			return err
		}

		devEntry, err := h.Devices.Get(deviceToken)
		if err != nil {
			return err
		}
		queue, err := rec.GetDeviceQueue(devEntry.Handle, family, index)
		if err != nil {
			return err
		}
		h.Tracker.CreateQueue(queue, devEntry.Handle, family, index)
		h.Queues.AddFixed(token, queue, nil)
	}
	return nil
}

func loadMemories(h *dispatch.Hub, r *Reader, rec Recorder) error {
	count := r.U32()
	for i := uint32(0); i < count; i++ {
		token := readToken[core.DeviceMemoryMarker](r)
		deviceToken := readToken[core.DeviceMarker](r)
		size := r.U64()
		typeIndex := r.U32()
		if err := r.Err(); err != nil {
			return err
		}

		devEntry, err := h.Devices.Get(deviceToken)
		if err != nil {
			return err
		}
		memory, res := rec.AllocateMemory(devEntry.Handle, size, typeIndex)
		if !res.IsSuccess() {
			return resultError(res)
		}
		h.Tracker.CreateMemory(memory, devEntry.Handle, size, typeIndex)
		h.Memories.AddFixed(token, memory, nil)
	}
	return nil
}

func loadBuffers(h *dispatch.Hub, r *Reader, rec Recorder) error {
	count := r.U32()
	for i := uint32(0); i < count; i++ {
		token := readToken[core.BufferMarker](r)
		deviceToken := readToken[core.DeviceMarker](r)
		size := r.U64()
		usage := vkabi.BufferUsageFlags(r.U32())
		bound := r.Bool()
		var memToken core.DeviceMemoryID
		var memOffset uint64
		if bound {
			memToken = readToken[core.DeviceMemoryMarker](r)
			memOffset = r.U64()
		}
		if err := r.Err(); err != nil {
			return err
		}

		devEntry, err := h.Devices.Get(deviceToken)
		if err != nil {
			return err
		}
		buffer, res := rec.CreateBuffer(devEntry.Handle, vkabi.BufferCreateInfo{Size: size, Usage: usage})
		if !res.IsSuccess() {
			return resultError(res)
		}
		h.Tracker.CreateBuffer(buffer, devEntry.Handle, size, usage)
		h.Buffers.AddFixed(token, buffer, nil)

		if bound {
			memEntry, err := h.Memories.Get(memToken)
			if err != nil {
				return err
			}
			if res := rec.BindBufferMemory(devEntry.Handle, buffer, memEntry.Handle, memOffset); !res.IsSuccess() {
				return resultError(res)
			}
			_ = h.Tracker.BindBufferMemory(buffer, memEntry.Handle, memOffset)
		}
	}
	return nil
}

func loadImages(h *dispatch.Hub, r *Reader, rec Recorder) error {
	count := r.U32()
	for i := uint32(0); i < count; i++ {
		token := readToken[core.ImageMarker](r)
		deviceToken := readToken[core.DeviceMarker](r)
		info := readImageCreateInfo(r)
		bound := r.Bool()
		var memToken core.DeviceMemoryID
		var memOffset uint64
		if bound {
			memToken = readToken[core.DeviceMemoryMarker](r)
			memOffset = r.U64()
		}
		if err := r.Err(); err != nil {
			return err
		}

		devEntry, err := h.Devices.Get(deviceToken)
		if err != nil {
			return err
		}
		image, res := rec.CreateImage(devEntry.Handle, info)
		if !res.IsSuccess() {
			return resultError(res)
		}
		h.Tracker.CreateImage(image, devEntry.Handle, info)
		h.Images.AddFixed(token, image, nil)

		if bound {
			memEntry, err := h.Memories.Get(memToken)
			if err != nil {
				return err
			}
			if res := rec.BindImageMemory(devEntry.Handle, image, memEntry.Handle, memOffset); !res.IsSuccess() {
				return resultError(res)
			}
			_ = h.Tracker.BindImageMemory(image, memEntry.Handle, memOffset)
		}
	}
	return nil
}

func loadImageViews(h *dispatch.Hub, r *Reader, rec Recorder) error {
	count := r.U32()
	for i := uint32(0); i < count; i++ {
		token := readToken[core.ImageViewMarker](r)
		deviceToken := readToken[core.DeviceMarker](r)
		imageToken := readToken[core.ImageMarker](r)
		if err := r.Err(); err != nil {
			return err
		}

		devEntry, err := h.Devices.Get(deviceToken)
		if err != nil {
			return err
		}
		imgEntry, err := h.Images.Get(imageToken)
		if err != nil {
			return err
		}
		view, res := rec.CreateImageView(devEntry.Handle, imgEntry.Handle)
		if !res.IsSuccess() {
			return resultError(res)
		}
		h.Tracker.CreateImageView(view, imgEntry.Handle, devEntry.Handle)
		h.ImageViews.AddFixed(token, view, nil)
	}
	return nil
}

func loadSamplers(h *dispatch.Hub, r *Reader, rec Recorder) error {
	count := r.U32()
	for i := uint32(0); i < count; i++ {
		token := readToken[core.SamplerMarker](r)
		deviceToken := readToken[core.DeviceMarker](r)
		emulated := r.Bool()
		if err := r.Err(); err != nil {
			return err
		}

		devEntry, err := h.Devices.Get(deviceToken)
		if err != nil {
			return err
		}
		sampler, res := rec.CreateSampler(devEntry.Handle, emulated)
		if !res.IsSuccess() {
			return resultError(res)
		}
		h.Tracker.CreateSampler(sampler, devEntry.Handle, emulated)
		h.Samplers.AddFixed(token, sampler, nil)
	}
	return nil
}

func loadSemaphores(h *dispatch.Hub, r *Reader, rec Recorder) error {
	count := r.U32()
	for i := uint32(0); i < count; i++ {
		token := readToken[core.SemaphoreMarker](r)
		deviceToken := readToken[core.DeviceMarker](r)
		if err := r.Err(); err != nil {
			return err
		}

		devEntry, err := h.Devices.Get(deviceToken)
		if err != nil {
			return err
		}
		sem, res := rec.CreateSemaphore(devEntry.Handle)
		if !res.IsSuccess() {
			return resultError(res)
		}
		h.Tracker.CreateSemaphore(sem, devEntry.Handle)
		h.Semaphores.AddFixed(token, sem, nil)
	}
	return nil
}

func loadDescriptorSetLayouts(h *dispatch.Hub, r *Reader, rec Recorder) error {
	count := r.U32()
	for i := uint32(0); i < count; i++ {
		token := readToken[core.DescriptorSetLayoutMarker](r)
		deviceToken := readToken[core.DeviceMarker](r)
		bindingCount := r.U32()
		bindings := make([]state.DescriptorBinding, bindingCount)
		for j := range bindings {
			bindings[j] = state.DescriptorBinding{
				Binding:         r.U32(),
				DescriptorType:  r.U32(),
				DescriptorCount: r.U32(),
			}
		}
		if err := r.Err(); err != nil {
			return err
		}

		devEntry, err := h.Devices.Get(deviceToken)
		if err != nil {
			return err
		}
		layout, res := rec.CreateDescriptorSetLayout(devEntry.Handle, bindings)
		if !res.IsSuccess() {
			return resultError(res)
		}
		h.Tracker.CreateDescriptorSetLayout(layout, devEntry.Handle, bindings)
		h.DescSetLayouts.AddFixed(token, layout, nil)
	}
	return nil
}

// poolStub is the bare pool/device pair read by loadDescriptorPoolRegistry,
// carried into loadDescriptorSets, which defers the native pool's
// creation until it knows the pool's set count and layouts from the
// descriptor-writes section.
type poolStub struct {
	token  core.DescriptorPoolID
	device vkabi.Device
}

// loadDescriptorPoolRegistry reads the bare pool tokens (spec.md §4.10
// step 1) without creating them yet: a pool's native VkDescriptorPool
// must be sized by setCount/layouts, which only the descriptor-writes
// section carries, so creation is deferred to loadDescriptorSets.
func loadDescriptorPoolRegistry(h *dispatch.Hub, r *Reader) ([]poolStub, error) {
	count := r.U32()
	pools := make([]poolStub, 0, count)
	for i := uint32(0); i < count; i++ {
		token := readToken[core.DescriptorPoolMarker](r)
		deviceToken := readToken[core.DeviceMarker](r)
		if err := r.Err(); err != nil {
			return nil, err
		}
		devEntry, err := h.Devices.Get(deviceToken)
		if err != nil {
			return nil, err
		}
		pools = append(pools, poolStub{token: token, device: devEntry.Handle})
	}
	return pools, nil
}

func loadFenceRegistry(h *dispatch.Hub, r *Reader, rec Recorder) error {
	count := r.U32()
	for i := uint32(0); i < count; i++ {
		token := readToken[core.FenceMarker](r)
		deviceToken := readToken[core.DeviceMarker](r)
		if err := r.Err(); err != nil {
			return err
		}

		devEntry, err := h.Devices.Get(deviceToken)
		if err != nil {
			return err
		}
		fence, res := rec.CreateFenceSignaled(devEntry.Handle)
		if !res.IsSuccess() {
			return resultError(res)
		}
		h.Tracker.CreateFence(fence, devEntry.Handle, false)
		h.Fences.AddFixed(token, fence, nil)
	}
	return nil
}

// loadMemoryBlobs implements step 2: restore mapped-allocation bytes by
// mapping the freshly allocated memory and copying in, then leaving it
// mapped — mirroring the "still mapped" state saveMemoryBlobs captured
// from state.Memory.Mapped.
func loadMemoryBlobs(h *dispatch.Hub, r *Reader) error {
	count := r.U32()
	for i := uint32(0); i < count; i++ {
		memToken := readToken[core.DeviceMemoryMarker](r)
		size := r.U64()
		data := r.Bytes()
		if err := r.Err(); err != nil {
			return err
		}

		memEntry, err := h.Memories.Get(memToken)
		if err != nil {
			return err
		}
		memRec, ok := h.Tracker.Memory(memEntry.Handle)
		if !ok {
			return state.ErrUnknownHandle
		}
		ext, ok := h.DeviceExt(memRec.Device)
		if !ok {
			return dispatch.ErrUnknownDevice
		}
		var ptr unsafe.Pointer
		if res := ext.Cmds.MapMemory(memRec.Device, memEntry.Handle, 0, size, &ptr); !res.IsSuccess() {
			return resultError(res)
		}
		copy(unsafe.Slice((*byte)(ptr), size), data)
		_ = h.Tracker.RecordMap(memEntry.Handle, ptr, 0, size)
	}
	return nil
}

// loadImageContents implements step 3.
func loadImageContents(h *dispatch.Hub, r *Reader, ct ContentTransfer) error {
	count := r.U32()
	for i := uint32(0); i < count; i++ {
		imageToken := readToken[core.ImageMarker](r)
		layout := r.U32()
		data := r.Bytes()
		if err := r.Err(); err != nil {
			return err
		}

		imgEntry, err := h.Images.Get(imageToken)
		if err != nil {
			return err
		}
		imgRec, ok := h.Tracker.Image(imgEntry.Handle)
		if !ok {
			return state.ErrUnknownHandle
		}
		if err := ct.WriteImage(imgRec.Device, imgEntry.Handle, imgRec.Info, layout, data); err != nil {
			return err
		}
	}
	return nil
}

// loadBufferContents implements step 4.
func loadBufferContents(h *dispatch.Hub, r *Reader, ct ContentTransfer) error {
	count := r.U32()
	for i := uint32(0); i < count; i++ {
		bufferToken := readToken[core.BufferMarker](r)
		data := r.Bytes()
		if err := r.Err(); err != nil {
			return err
		}

		bufEntry, err := h.Buffers.Get(bufferToken)
		if err != nil {
			return err
		}
		bufRec, ok := h.Tracker.Buffer(bufEntry.Handle)
		if !ok {
			return state.ErrUnknownHandle
		}
		if err := ct.WriteBuffer(bufRec.Device, bufEntry.Handle, data); err != nil {
			return err
		}
	}
	return nil
}

type descWrite struct {
	binding, arrayElement, descriptorType uint32
	buffer                                core.BufferID
	hasBuffer                             bool
	imageView                             core.ImageViewID
	hasImageView                          bool
	sampler                               core.SamplerID
	hasSampler                            bool
}

type pendingSet struct {
	allocated bool
	token     core.DescriptorSetID
	layout    core.DescriptorSetLayoutID
	writes    []descWrite
}

// loadDescriptorSets implements step 5: for each pool loadDescriptorPoolRegistry
// recorded, in the same order, read its set count and per-set
// layout/writes, create the pool sized to fit, allocate each set, and
// replay its writes through Recorder.WriteDescriptorSet — the same
// queue_commit_descriptor_set_updates path runtime writes use (spec.md
// §4.10 load step 6).
func loadDescriptorSets(h *dispatch.Hub, r *Reader, rec Recorder, pools []poolStub) error {
	for _, pool := range pools {
		setCount := r.U32()
		sets := make([]pendingSet, 0, setCount)
		for i := uint32(0); i < setCount; i++ {
			allocated := r.Bool()
			if !allocated {
				sets = append(sets, pendingSet{allocated: false})
				continue
			}
			token := readToken[core.DescriptorSetMarker](r)
			layoutToken := readToken[core.DescriptorSetLayoutMarker](r)
			writeCount := r.U32()
			writes := make([]descWrite, writeCount)
			for j := range writes {
				writes[j].binding = r.U32()
				writes[j].arrayElement = r.U32()
				writes[j].descriptorType = r.U32()
				if r.Bool() {
					writes[j].buffer = readToken[core.BufferMarker](r)
					writes[j].hasBuffer = true
				}
				if r.Bool() {
					writes[j].imageView = readToken[core.ImageViewMarker](r)
					writes[j].hasImageView = true
				}
				if r.Bool() {
					writes[j].sampler = readToken[core.SamplerMarker](r)
					writes[j].hasSampler = true
				}
			}
			sets = append(sets, pendingSet{allocated: true, token: token, layout: layoutToken, writes: writes})
		}
		if err := r.Err(); err != nil {
			return err
		}

		layouts := make([]vkabi.DescriptorSetLayout, 0, len(sets))
		for _, s := range sets {
			if !s.allocated {
				continue
			}
			layoutEntry, err := h.DescSetLayouts.Get(s.layout)
			if err != nil {
				return err
			}
			layouts = append(layouts, layoutEntry.Handle)
		}

		nativePool, res := rec.CreateDescriptorPool(pool.device, uint32(len(layouts)), layouts)
		if !res.IsSuccess() {
			return resultError(res)
		}
		h.Tracker.CreateDescriptorPool(nativePool, pool.device)
		h.DescPools.AddFixed(pool.token, nativePool, nil)

		if err := allocateDescriptorSets(h, rec, pool.device, nativePool, sets); err != nil {
			return err
		}
	}
	return nil
}

func allocateDescriptorSets(h *dispatch.Hub, rec Recorder, device vkabi.Device, nativePool vkabi.DescriptorPool, sets []pendingSet) error {
	for _, s := range sets {
		if !s.allocated {
			continue
		}
		layoutEntry, err := h.DescSetLayouts.Get(s.layout)
		if err != nil {
			return err
		}
		set, res := rec.AllocateDescriptorSet(device, nativePool, layoutEntry.Handle)
		if !res.IsSuccess() {
			return resultError(res)
		}
		h.Tracker.CreateDescriptorSet(set, nativePool, layoutEntry.Handle)
		h.DescSets.AddFixed(s.token, set, nil)

		for _, w := range s.writes {
			var buffer vkabi.Buffer
			var view vkabi.ImageView
			var sampler vkabi.Sampler
			if w.hasBuffer {
				entry, err := h.Buffers.Get(w.buffer)
				if err != nil {
					return err
				}
				buffer = entry.Handle
			}
			if w.hasImageView {
				entry, err := h.ImageViews.Get(w.imageView)
				if err != nil {
					return err
				}
				view = entry.Handle
			}
			if w.hasSampler {
				entry, err := h.Samplers.Get(w.sampler)
				if err != nil {
					return err
				}
				sampler = entry.Handle
			}
			if err := rec.WriteDescriptorSet(device, set, w.binding, w.arrayElement, w.descriptorType, buffer, view, sampler, 0); err != nil {
				return err
			}
			_ = h.Tracker.RecordDescriptorWrite(set, state.DescriptorWrite{
				Binding: w.binding, ArrayElement: w.arrayElement, DescriptorType: w.descriptorType,
				Buffer: buffer, ImageView: view, Sampler: sampler,
			})
		}
	}
	return nil
}

// loadUnsignalledFences implements step 6: every fence captured as
// VK_NOT_READY was replayed signaled by loadFenceRegistry, so it now
// needs vkResetFences to match the captured state.
func loadUnsignalledFences(h *dispatch.Hub, r *Reader) error {
	count := r.U32()
	fenceIDs := make([]core.FenceID, count)
	for i := range fenceIDs {
		fenceIDs[i] = readToken[core.FenceMarker](r)
	}
	if err := r.Err(); err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	if res := h.ResetFences(fenceIDs); !res.IsSuccess() {
		return resultError(res)
	}
	return nil
}

func readImageCreateInfo(r *Reader) vkabi.ImageCreateInfo {
	return vkabi.ImageCreateInfo{
		ImageType:   vkabi.ImageType(r.U32()),
		Format:      vkabi.Format(r.U32()),
		Width:       r.U32(),
		Height:      r.U32(),
		Depth:       r.U32(),
		MipLevels:   r.U32(),
		ArrayLayers: r.U32(),
		Usage:       vkabi.ImageUsageFlags(r.U32()),
		Flags:       r.U32(),
	}
}

// resultErr wraps a failing native VkResult so Load can propagate it as
// a plain error without dispatch's boxed-token error mapping, which
// does not apply mid-replay.
type resultErr struct{ res vkabi.Result }

func (e *resultErr) Error() string        { return "snapshot: native call failed during load" }
func resultError(res vkabi.Result) error { return &resultErr{res} }
