// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package state

import "github.com/virtgpu/vkhost/vkabi"

// Instance is the record for a live VkInstance: the extensions the guest
// asked for (after dispatch's extension filtering, spec.md §4.6) and the
// physical devices enumerated under it.
type Instance struct {
	Handle           vkabi.Instance
	EnabledExtensions []string
	ApiVersion        uint32
}

// PhysicalDevice is the record for a VkPhysicalDevice enumerated under
// an Instance.
type PhysicalDevice struct {
	Handle           vkabi.PhysicalDevice
	Instance         vkabi.Instance
	MemoryProperties vkabi.PhysicalDeviceMemoryProperties
	QueueFamilies    []vkabi.QueueFamilyProperties
}

// CreateInstance registers a newly created instance. The five-step
// creation path (spec.md §4.4) is: (1) dispatch transforms already ran
// before the native call, (2) the native vkCreateInstance already
// succeeded (callers only reach here on success), (3) register the
// record, (4) box the handle (boxed package, done by the caller since
// state does not depend on boxed), (5) return the boxed token to the
// guest. This method is step 3.
func (t *Tracker) CreateInstance(handle vkabi.Instance, enabledExtensions []string, apiVersion uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.instances[handle] = &Instance{Handle: handle, EnabledExtensions: enabledExtensions, ApiVersion: apiVersion}
}

// Instance looks up an instance record.
func (t *Tracker) Instance(handle vkabi.Instance) (*Instance, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.instances[handle]
	return rec, ok
}

// DestroyInstance removes the instance record. The three-step
// destruction path (spec.md §4.4) is: (1) the native vkDestroyInstance
// call, (2) remove_delayed on the boxed token (caller's responsibility),
// (3) drop the registry record — this method is step 3, called after
// (1) has already succeeded.
func (t *Tracker) DestroyInstance(handle vkabi.Instance) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.instances, handle)
}

// CreatePhysicalDevice registers a physical device enumerated under an
// instance.
func (t *Tracker) CreatePhysicalDevice(handle vkabi.PhysicalDevice, instance vkabi.Instance, memProps vkabi.PhysicalDeviceMemoryProperties, queueFamilies []vkabi.QueueFamilyProperties) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.physicalDevices[handle] = &PhysicalDevice{
		Handle: handle, Instance: instance, MemoryProperties: memProps, QueueFamilies: queueFamilies,
	}
}

// PhysicalDevice looks up a physical device record.
func (t *Tracker) PhysicalDevice(handle vkabi.PhysicalDevice) (*PhysicalDevice, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.physicalDevices[handle]
	return rec, ok
}
