// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package state

import "github.com/virtgpu/vkhost/vkabi"

// Queue is the record for a live VkQueue.
type Queue struct {
	Handle      vkabi.Queue
	Device      vkabi.Device
	FamilyIndex uint32
	Index       uint32
}

// CreateQueue registers a queue fetched via vkGetDeviceQueue.
func (t *Tracker) CreateQueue(handle vkabi.Queue, device vkabi.Device, familyIndex, index uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queues[handle] = &Queue{Handle: handle, Device: device, FamilyIndex: familyIndex, Index: index}
}

// Queue looks up a queue record.
func (t *Tracker) Queue(handle vkabi.Queue) (*Queue, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.queues[handle]
	return rec, ok
}
