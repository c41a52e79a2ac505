// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dispatch

import (
	"unsafe"

	"github.com/virtgpu/vkhost/core"
	"github.com/virtgpu/vkhost/vkabi"
)

// CreateInstance implements vkCreateInstance (spec.md §8 scenario 1):
// filter the extension list, call the native driver, register the
// instance record, box the handle, and notify the process-cleanup
// registry of the new instance.
func (h *Hub) CreateInstance(createInfo unsafe.Pointer, requestedExtensions []string, apiVersion uint32) (core.InstanceID, vkabi.Result) {
	filtered := FilterExtensions(requestedExtensions)
	h.Log.Debug("dispatch: CreateInstance", "requested", requestedExtensions, "filtered", filtered)

	var instance vkabi.Instance
	res := h.Global.CreateInstance(createInfo, &instance)
	if !res.IsSuccess() {
		return core.InstanceID{}, res
	}

	h.Tracker.CreateInstance(instance, filtered, apiVersion)
	id := h.Instances.Add(instance, nil)
	h.ProcClean.Register(id.Raw().Index(), func() {})
	return id, vkabi.Success
}

// DestroyInstance implements vkDestroyInstance: call the native driver,
// deregister the record, remove the boxed token, and deregister the
// process-cleanup callback. Child devices and their resources are
// neither torn down nor checked here; they go through the ordinary
// per-device destroy paths.
func (h *Hub) DestroyInstance(id core.InstanceID) error {
	entry, err := h.Instances.Get(id)
	if err != nil {
		return err
	}
	instance := entry.Handle

	h.Global.DestroyInstance(instance)
	h.Tracker.DestroyInstance(instance)
	_, _ = h.Instances.Remove(id)
	h.ProcClean.Unregister(id.Raw().Index())
	return nil
}

// EnumeratePhysicalDevices implements vkEnumeratePhysicalDevices,
// registering a PhysicalDevice record (with its memory-properties
// helper data and queue-family list, spec.md §3) and a boxed token for
// every native handle returned. The record holds no apiVersion, and
// EnumeratePhysicalDevices does not call ClampAPIVersion, which caps a
// reported apiVersion at maxSafeAPIVersion.
const maxSafeAPIVersion = uint32(1<<22 | 3<<12) // Vulkan 1.3, VK_API_VERSION_1_3 encoding

func ClampAPIVersion(reported uint32) uint32 {
	if reported > maxSafeAPIVersion {
		return maxSafeAPIVersion
	}
	return reported
}

func (h *Hub) EnumeratePhysicalDevices(instanceID core.InstanceID) ([]core.PhysicalDeviceID, vkabi.Result) {
	entry, err := h.Instances.Get(instanceID)
	if err != nil {
		return nil, vkabi.ErrorInitializationFailed
	}
	instance := entry.Handle

	var count uint32
	if res := h.Global.EnumeratePhysicalDevices(instance, &count, nil); !res.IsSuccess() {
		return nil, res
	}
	raw := make([]vkabi.PhysicalDevice, count)
	var firstPtr *vkabi.PhysicalDevice
	if count > 0 {
		firstPtr = &raw[0]
	}
	if res := h.Global.EnumeratePhysicalDevices(instance, &count, firstPtr); !res.IsSuccess() {
		return nil, res
	}

	ids := make([]core.PhysicalDeviceID, 0, count)
	for _, pd := range raw {
		var memProps vkabi.PhysicalDeviceMemoryProperties
		h.Global.GetPhysicalDeviceMemoryProperties(pd, &memProps)

		var qCount uint32
		h.Global.GetPhysicalDeviceQueueFamilyProperties(pd, &qCount, nil)
		qProps := make([]vkabi.QueueFamilyProperties, qCount)
		var qPtr *vkabi.QueueFamilyProperties
		if qCount > 0 {
			qPtr = &qProps[0]
		}
		h.Global.GetPhysicalDeviceQueueFamilyProperties(pd, &qCount, qPtr)

		h.Tracker.CreatePhysicalDevice(pd, instance, memProps, qProps)
		ids = append(ids, h.PhysicalDevices.Add(pd, nil))
	}
	return ids, vkabi.Success
}
