// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package state

import "github.com/virtgpu/vkhost/vkabi"

// Buffer is the record for a live VkBuffer.
type Buffer struct {
	Handle vkabi.Buffer
	Device vkabi.Device
	Size   uint64
	Usage  vkabi.BufferUsageFlags

	BoundMemory       vkabi.DeviceMemory
	BoundMemoryOffset uint64
	Bound             bool
}

// CreateBuffer registers a newly created buffer, before memory binding.
func (t *Tracker) CreateBuffer(handle vkabi.Buffer, device vkabi.Device, size uint64, usage vkabi.BufferUsageFlags) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buffers[handle] = &Buffer{Handle: handle, Device: device, Size: size, Usage: usage}
}

// BindBufferMemory records the memory binding established by
// vkBindBufferMemory. spec.md §8's memory/image binding invariant
// requires each buffer bind exactly once; a second call returns an
// error rather than silently rebinding.
func (t *Tracker) BindBufferMemory(handle vkabi.Buffer, memory vkabi.DeviceMemory, offset uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.buffers[handle]
	if !ok {
		return ErrUnknownHandle
	}
	if rec.Bound {
		return ErrAlreadyBound
	}
	rec.BoundMemory, rec.BoundMemoryOffset, rec.Bound = memory, offset, true
	return nil
}

// Buffer looks up a buffer record.
func (t *Tracker) Buffer(handle vkabi.Buffer) (*Buffer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.buffers[handle]
	return rec, ok
}

// DestroyBuffer removes the buffer record.
func (t *Tracker) DestroyBuffer(handle vkabi.Buffer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.buffers, handle)
}
