// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dispatch

import (
	"testing"

	"github.com/virtgpu/vkhost/vkabi"
)

func TestFenceGateForIsStablePerFence(t *testing.T) {
	h := NewHub(nil)
	g1 := h.fenceGateFor(vkabi.Fence(1))
	g2 := h.fenceGateFor(vkabi.Fence(1))
	if g1 != g2 {
		t.Fatal("fenceGateFor returned distinct gates for the same fence")
	}

	g3 := h.fenceGateFor(vkabi.Fence(2))
	if g3 == g1 {
		t.Fatal("fenceGateFor returned the same gate for two distinct fences")
	}
}

func TestForgetFenceGateRemovesEntry(t *testing.T) {
	h := NewHub(nil)
	g1 := h.fenceGateFor(vkabi.Fence(1))
	g1.MarkWaitable()

	h.forgetFenceGate(vkabi.Fence(1))

	g2 := h.fenceGateFor(vkabi.Fence(1))
	if g2 == g1 {
		t.Fatal("fenceGateFor after forgetFenceGate returned the stale gate instead of a fresh one")
	}
	if g2.state != FenceNotWaitable {
		t.Fatalf("fresh gate state = %v, want FenceNotWaitable", g2.state)
	}
}

func TestDeviceExtLookupMiss(t *testing.T) {
	h := NewHub(nil)
	if _, ok := h.DeviceExt(vkabi.Device(404)); ok {
		t.Fatal("DeviceExt for never-registered device reported ok=true")
	}
}

func TestQueueLockForIsStablePerQueue(t *testing.T) {
	h := NewHub(nil)
	l1 := h.queueLockFor(vkabi.Queue(1))
	l2 := h.queueLockFor(vkabi.Queue(1))
	if l1 != l2 {
		t.Fatal("queueLockFor returned distinct locks for the same queue")
	}
	l3 := h.queueLockFor(vkabi.Queue(2))
	if l3 == l1 {
		t.Fatal("queueLockFor returned the same lock for two distinct queues")
	}
}

func TestForgetDeviceRemovesExtState(t *testing.T) {
	h := NewHub(nil)
	h.registerDevice(vkabi.Device(1), &DeviceExt{})

	if _, ok := h.DeviceExt(vkabi.Device(1)); !ok {
		t.Fatal("registerDevice did not make DeviceExt findable")
	}

	h.forgetDevice(vkabi.Device(1))
	if _, ok := h.DeviceExt(vkabi.Device(1)); ok {
		t.Fatal("DeviceExt still present after forgetDevice")
	}
}

func TestResetForSnapshotLoadClearsDeviceAndFenceState(t *testing.T) {
	h := NewHub(nil)
	h.registerDevice(vkabi.Device(1), &DeviceExt{})
	h.fenceGateFor(vkabi.Fence(1))
	h.queueLockFor(vkabi.Queue(1))
	h.Tracker.CreateDevice(vkabi.Device(1), vkabi.PhysicalDevice(1), nil, nil)

	h.ResetForSnapshotLoad()

	if _, ok := h.DeviceExt(vkabi.Device(1)); ok {
		t.Error("DeviceExt survived ResetForSnapshotLoad")
	}
	if _, ok := h.Tracker.Device(vkabi.Device(1)); ok {
		t.Error("Tracker device record survived ResetForSnapshotLoad")
	}
}
