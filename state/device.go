// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package state

import "github.com/virtgpu/vkhost/vkabi"

// Device is the record for a live VkDevice.
type Device struct {
	Handle           vkabi.Device
	PhysicalDevice   vkabi.PhysicalDevice
	EnabledExtensions []string
	QueueFamilyMap   map[uint32]uint32 // guest queue family index -> host index, spec.md §4.6
}

// CreateDevice registers a newly created device.
func (t *Tracker) CreateDevice(handle vkabi.Device, pd vkabi.PhysicalDevice, enabledExtensions []string, queueFamilyMap map[uint32]uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.devices[handle] = &Device{
		Handle: handle, PhysicalDevice: pd, EnabledExtensions: enabledExtensions, QueueFamilyMap: queueFamilyMap,
	}
}

// Device looks up a device record.
func (t *Tracker) Device(handle vkabi.Device) (*Device, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.devices[handle]
	return rec, ok
}

// DestroyDevice removes the device record.
func (t *Tracker) DestroyDevice(handle vkabi.Device) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.devices, handle)
}
