// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dispatch

import (
	"unsafe"

	"github.com/virtgpu/vkhost/core"
	"github.com/virtgpu/vkhost/devop"
	"github.com/virtgpu/vkhost/state"
	"github.com/virtgpu/vkhost/vkabi"
)

// CreateSemaphore implements vkCreateSemaphore.
func (h *Hub) CreateSemaphore(deviceID core.DeviceID, createInfo unsafe.Pointer) (core.SemaphoreID, vkabi.Result) {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return core.SemaphoreID{}, vkabi.ErrorInitializationFailed
	}
	device := devEntry.Handle
	ext, ok := h.DeviceExt(device)
	if !ok {
		return core.SemaphoreID{}, vkabi.ErrorInitializationFailed
	}

	var sem vkabi.Semaphore
	res := ext.Cmds.CreateSemaphore(device, createInfo, &sem)
	if !res.IsSuccess() {
		return core.SemaphoreID{}, res
	}

	h.Tracker.CreateSemaphore(sem, device)
	return h.Semaphores.Add(sem, nil), vkabi.Success
}

// DestroySemaphore implements vkDestroySemaphore, routing through the
// device-op tracker's pending-garbage queue if a submission's
// latest_use waitable referencing this semaphore has not settled
// (spec.md §4.4 destruction path, §8 testable property 5's analog for
// semaphores).
func (h *Hub) DestroySemaphore(semID core.SemaphoreID, latestUse *devop.Waitable) error {
	entry, err := h.Semaphores.Get(semID)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.Semaphore(entry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		h.Tracker.DestroySemaphore(entry.Handle)
		_, _ = h.Semaphores.Remove(semID)
		return nil
	}

	if latestUse != nil && !latestUse.IsDone() {
		ext.Ops.AddPendingGarbageSemaphore(latestUse, entry.Handle)
	} else {
		ext.Cmds.DestroySemaphore(rec.Device, entry.Handle)
	}
	h.Tracker.DestroySemaphore(entry.Handle)
	_, _ = h.Semaphores.Remove(semID)
	return nil
}

// CreateFence implements vkCreateFence. When external is set, the fence
// is acquired from the device's ExternalFencePool (reused if one is
// idle) rather than created fresh every time (spec.md §3's external-
// fence pool).
func (h *Hub) CreateFence(deviceID core.DeviceID, createInfo unsafe.Pointer, external bool) (core.FenceID, vkabi.Result) {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return core.FenceID{}, vkabi.ErrorInitializationFailed
	}
	device := devEntry.Handle
	ext, ok := h.DeviceExt(device)
	if !ok {
		return core.FenceID{}, vkabi.ErrorInitializationFailed
	}

	var fence vkabi.Fence
	if external && ext.ExtFences != nil {
		f, err := ext.ExtFences.Acquire(createInfo)
		if err != nil {
			return core.FenceID{}, vkabi.ErrorInitializationFailed
		}
		fence = f
	} else {
		res := ext.Cmds.CreateFence(device, createInfo, &fence)
		if !res.IsSuccess() {
			return core.FenceID{}, res
		}
	}

	h.Tracker.CreateFence(fence, device, external)
	return h.Fences.Add(fence, nil), vkabi.Success
}

// DestroyFence implements vkDestroyFence (spec.md testable property 5:
// "No vkDestroyFence is issued to the native driver while any
// latest_use waitable referencing that fence is not-done"). An external
// fence is released back to the pool instead of destroyed; forgetting
// its FenceGate happens either way since a pooled fence's next Acquire
// starts a fresh gate lifecycle.
func (h *Hub) DestroyFence(fenceID core.FenceID, latestUse *devop.Waitable) error {
	entry, err := h.Fences.Get(fenceID)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.Fence(entry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	if latestUse != nil && !latestUse.IsDone() {
		ext, ok := h.DeviceExt(rec.Device)
		if ok {
			ext.Ops.AddPendingGarbageFence(latestUse, entry.Handle)
		}
		h.Tracker.DestroyFence(entry.Handle)
		_, _ = h.Fences.Remove(fenceID)
		h.forgetFenceGate(entry.Handle)
		return nil
	}

	ext, ok := h.DeviceExt(rec.Device)
	if ok {
		if rec.External && ext.ExtFences != nil {
			ext.ExtFences.Release(entry.Handle)
		} else {
			ext.Cmds.DestroyFence(rec.Device, entry.Handle)
		}
	}
	h.Tracker.DestroyFence(entry.Handle)
	_, _ = h.Fences.Remove(fenceID)
	h.forgetFenceGate(entry.Handle)
	return nil
}

// GetFenceStatus implements vkGetFenceStatus.
func (h *Hub) GetFenceStatus(fenceID core.FenceID) vkabi.Result {
	entry, err := h.Fences.Get(fenceID)
	if err != nil {
		return vkabi.ErrorInitializationFailed
	}
	rec, ok := h.Tracker.Fence(entry.Handle)
	if !ok {
		return vkabi.ErrorInitializationFailed
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return vkabi.ErrorInitializationFailed
	}
	return ext.Cmds.GetFenceStatus(rec.Device, entry.Handle)
}

// ResetFences implements vkResetFences, also resetting the FenceGate so
// a subsequent submission referencing this fence starts clean (spec.md
// §4.10 round-trip law: "fence state returns to not-waitable").
func (h *Hub) ResetFences(fenceIDs []core.FenceID) vkabi.Result {
	if len(fenceIDs) == 0 {
		return vkabi.Success
	}
	handles := make([]vkabi.Fence, 0, len(fenceIDs))
	var device vkabi.Device
	var ext *DeviceExt
	for _, id := range fenceIDs {
		entry, err := h.Fences.Get(id)
		if err != nil {
			continue
		}
		if ext == nil {
			if rec, ok := h.Tracker.Fence(entry.Handle); ok {
				device = rec.Device
				ext, _ = h.DeviceExt(device)
			}
		}
		handles = append(handles, entry.Handle)
	}
	if ext == nil || len(handles) == 0 {
		return vkabi.ErrorInitializationFailed
	}
	res := ext.Cmds.ResetFences(device, uint32(len(handles)), &handles[0])
	if res.IsSuccess() {
		for _, fence := range handles {
			h.fenceGateFor(fence).Reset()
		}
	}
	return res
}
