// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dispatch

import (
	"unsafe"

	"github.com/virtgpu/vkhost/core"
	"github.com/virtgpu/vkhost/devop"
	"github.com/virtgpu/vkhost/ordering"
	"github.com/virtgpu/vkhost/teximage"
	"github.com/virtgpu/vkhost/vkabi"
)

// CreateDevice implements vkCreateDevice: filter the requested
// extensions, apply the forced feature fixups (spec.md §4.6), call the
// native driver, build the device's dispatch table (LoadDevice) and
// device-op tracker, and register both the state record and the boxed
// token.
func (h *Hub) CreateDevice(pdID core.PhysicalDeviceID, createInfo unsafe.Pointer, requestedExtensions []string, queueFamilyMap map[uint32]uint32, cfg Config) (core.DeviceID, vkabi.Result) {
	pdEntry, err := h.PhysicalDevices.Get(pdID)
	if err != nil {
		return core.DeviceID{}, vkabi.ErrorInitializationFailed
	}
	pd := pdEntry.Handle

	filtered := FilterExtensions(requestedExtensions)
	fixups := ApplyFeatureFixups(cfg.EmulateASTC || cfg.EmulateETC2)
	h.Log.Debug("dispatch: CreateDevice", "filtered", filtered, "fixups", fixups)

	var device vkabi.Device
	res := h.Global.CreateDevice(pd, createInfo, &device)
	if !res.IsSuccess() {
		return core.DeviceID{}, res
	}

	cmds := h.Global.LoadDevice(device)
	grace := cfg.GraceWindow
	ops := devop.NewTracker(grace, cmds, device, h.Log)

	var texMgr *teximage.Manager
	if (cfg.EmulateETC2 || cfg.EmulateASTC) && cfg.Shader != nil {
		texMgr = teximage.NewManager(cmds, device, cfg.Shader)
	}

	h.registerDevice(device, &DeviceExt{
		Cmds: cmds, Ops: ops, TexMgr: texMgr, ExtFences: devop.NewExternalFencePool(cmds, device), Cfg: cfg,
		QueueTokens: make(map[vkabi.Queue]*ordering.Token),
	})

	h.Tracker.CreateDevice(device, pd, filtered, queueFamilyMap)
	id := h.Devices.Add(device, nil)
	return id, vkabi.Success
}

// GetDeviceQueue implements vkGetDeviceQueue: fetch the native queue
// handle, register its Queue record and ordering token (every
// dispatchable handle owns one, spec.md §4.2), and box it.
func (h *Hub) GetDeviceQueue(deviceID core.DeviceID, familyIndex, queueIndex uint32) (core.QueueID, error) {
	devEntry, err := h.Devices.Get(deviceID)
	if err != nil {
		return core.QueueID{}, err
	}
	device := devEntry.Handle
	ext, ok := h.DeviceExt(device)
	if !ok {
		return core.QueueID{}, ErrUnknownDevice
	}

	var queue vkabi.Queue
	ext.Cmds.GetDeviceQueue(device, familyIndex, queueIndex, &queue)

	h.Tracker.CreateQueue(queue, device, familyIndex, queueIndex)
	id := h.Queues.Add(queue, nil)

	h.mu.Lock()
	ext.QueueTokens[queue] = ordering.NewToken()
	h.mu.Unlock()

	return id, nil
}

// DestroyDevice implements vkDestroyDevice: wait for the device to go
// idle (spec.md §5's teardown rule "teardown waits for device idle
// before destroying per-device resources"), release the compressed-
// texture pipeline manager, call the native driver, and drop every
// piece of per-device bookkeeping.
func (h *Hub) DestroyDevice(deviceID core.DeviceID) error {
	entry, err := h.Devices.Get(deviceID)
	if err != nil {
		return err
	}
	device := entry.Handle
	ext, ok := h.DeviceExt(device)
	if ok {
		ext.Cmds.DeviceWaitIdle(device)
		if ext.TexMgr != nil {
			ext.TexMgr.Destroy()
		}
		ext.Ops.OnDestroyDevice()
		if ext.ExtFences != nil {
			ext.ExtFences.Drain()
		}
		ext.Cmds.DestroyDevice(device)
	}

	h.Tracker.DestroyDevice(device)
	_, _ = h.Devices.Remove(deviceID)
	h.forgetDevice(device)
	return nil
}
