// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dispatch

import (
	"unsafe"

	"github.com/virtgpu/vkhost/core"
	"github.com/virtgpu/vkhost/state"
	"github.com/virtgpu/vkhost/vkabi"
)

// CreateDescriptorSetLayout implements vkCreateDescriptorSetLayout.
// bindings is the decoded binding array from the native create-info,
// sorted by Binding ascending (CommitDescriptorSetUpdates' wrap-around
// rule in dispatch/descriptor.go relies on that order being preserved
// here, see spec.md §4.7).
func (h *Hub) CreateDescriptorSetLayout(deviceID core.DeviceID, createInfo unsafe.Pointer, bindings []state.DescriptorBinding) (core.DescriptorSetLayoutID, vkabi.Result) {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return core.DescriptorSetLayoutID{}, vkabi.ErrorInitializationFailed
	}
	device := devEntry.Handle
	ext, ok := h.DeviceExt(device)
	if !ok {
		return core.DescriptorSetLayoutID{}, vkabi.ErrorInitializationFailed
	}

	var layout vkabi.DescriptorSetLayout
	res := ext.Cmds.CreateDescriptorSetLayout(device, createInfo, &layout)
	if !res.IsSuccess() {
		return core.DescriptorSetLayoutID{}, res
	}

	h.Tracker.CreateDescriptorSetLayout(layout, device, bindings)
	return h.DescSetLayouts.Add(layout, nil), vkabi.Success
}

// DestroyDescriptorSetLayout implements vkDestroyDescriptorSetLayout.
func (h *Hub) DestroyDescriptorSetLayout(id core.DescriptorSetLayoutID) error {
	entry, err := h.DescSetLayouts.Get(id)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.DescriptorSetLayout(entry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if ok {
		ext.Cmds.DestroyDescriptorSetLayout(rec.Device, entry.Handle)
	}
	h.Tracker.DestroyDescriptorSetLayout(entry.Handle)
	_, _ = h.DescSetLayouts.Remove(id)
	return nil
}

// CreateDescriptorPool implements vkCreateDescriptorPool. The pool
// record holds only the pool handle and its device: no list of
// pre-allocated pool-id slots is taken or recorded.
func (h *Hub) CreateDescriptorPool(deviceID core.DeviceID, createInfo unsafe.Pointer) (core.DescriptorPoolID, vkabi.Result) {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return core.DescriptorPoolID{}, vkabi.ErrorInitializationFailed
	}
	device := devEntry.Handle
	ext, ok := h.DeviceExt(device)
	if !ok {
		return core.DescriptorPoolID{}, vkabi.ErrorInitializationFailed
	}

	var pool vkabi.DescriptorPool
	res := ext.Cmds.CreateDescriptorPool(device, createInfo, &pool)
	if !res.IsSuccess() {
		return core.DescriptorPoolID{}, res
	}

	h.Tracker.CreateDescriptorPool(pool, device)
	return h.DescPools.Add(pool, nil), vkabi.Success
}

// ResetDescriptorPool implements vkResetDescriptorPool: returns every
// set allocated from the pool to the driver and drops their records,
// since a pool reset implicitly frees all sets without an individual
// vkFreeDescriptorSets call per set.
func (h *Hub) ResetDescriptorPool(poolID core.DescriptorPoolID, flags uint32) error {
	entry, err := h.DescPools.Get(poolID)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.DescriptorPool(entry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if !ok {
		return ErrUnknownDevice
	}
	if res := ext.Cmds.ResetDescriptorPool(rec.Device, entry.Handle, flags); !res.IsSuccess() {
		return mapResultError(res)
	}
	h.Tracker.DestroyDescriptorPool(entry.Handle)
	h.Tracker.CreateDescriptorPool(entry.Handle, rec.Device)
	return nil
}

// DestroyDescriptorPool implements vkDestroyDescriptorPool, which
// implicitly frees every set allocated from the pool.
func (h *Hub) DestroyDescriptorPool(poolID core.DescriptorPoolID) error {
	entry, err := h.DescPools.Get(poolID)
	if err != nil {
		return err
	}
	rec, ok := h.Tracker.DescriptorPool(entry.Handle)
	if !ok {
		return state.ErrUnknownHandle
	}
	ext, ok := h.DeviceExt(rec.Device)
	if ok {
		ext.Cmds.DestroyDescriptorPool(rec.Device, entry.Handle)
	}
	h.Tracker.DestroyDescriptorPool(entry.Handle)
	_, _ = h.DescPools.Remove(poolID)
	return nil
}
