// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package state

import "github.com/virtgpu/vkhost/vkabi"

// DescriptorSetLayout is the record for a live VkDescriptorSetLayout.
type DescriptorSetLayout struct {
	Handle  vkabi.DescriptorSetLayout
	Device  vkabi.Device
	Bindings []DescriptorBinding
}

// DescriptorBinding is one binding slot of a descriptor set layout.
type DescriptorBinding struct {
	Binding         uint32
	DescriptorType  uint32
	DescriptorCount uint32
}

// DescriptorPool is the record for a live VkDescriptorPool.
type DescriptorPool struct {
	Handle vkabi.DescriptorPool
	Device vkabi.Device
}

// DescriptorWrite is a weak reference to whatever a descriptor binding
// currently points at — a buffer, image view, sampler, or texel buffer
// view — tracked so snapshot save can tell whether every written
// resource is still alive (spec.md §4.7, §8's descriptor snapshot
// liveness invariant). The referenced handle may have been destroyed
// since the write; state does not keep it alive, only remembers what it
// was.
type DescriptorWrite struct {
	Binding        uint32
	ArrayElement   uint32
	DescriptorType uint32
	Buffer         vkabi.Buffer
	ImageView      vkabi.ImageView
	Sampler        vkabi.Sampler
	TexelBufferView vkabi.BufferView
}

// DescriptorSet is the record for a live VkDescriptorSet.
type DescriptorSet struct {
	Handle vkabi.DescriptorSet
	Pool   vkabi.DescriptorPool
	Layout vkabi.DescriptorSetLayout
	Writes []DescriptorWrite
}

// CreateDescriptorSetLayout registers a newly created layout.
func (t *Tracker) CreateDescriptorSetLayout(handle vkabi.DescriptorSetLayout, device vkabi.Device, bindings []DescriptorBinding) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.descSetLayouts[handle] = &DescriptorSetLayout{Handle: handle, Device: device, Bindings: bindings}
}

// DescriptorSetLayout looks up a layout record.
func (t *Tracker) DescriptorSetLayout(handle vkabi.DescriptorSetLayout) (*DescriptorSetLayout, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.descSetLayouts[handle]
	return rec, ok
}

// DestroyDescriptorSetLayout removes the layout record.
func (t *Tracker) DestroyDescriptorSetLayout(handle vkabi.DescriptorSetLayout) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.descSetLayouts, handle)
}

// CreateDescriptorPool registers a newly created pool.
func (t *Tracker) CreateDescriptorPool(handle vkabi.DescriptorPool, device vkabi.Device) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.descPools[handle] = &DescriptorPool{Handle: handle, Device: device}
}

// DescriptorPool looks up a descriptor pool record.
func (t *Tracker) DescriptorPool(handle vkabi.DescriptorPool) (*DescriptorPool, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.descPools[handle]
	return rec, ok
}

// DestroyDescriptorPool removes the pool record and every set it owned —
// vkDestroyDescriptorPool implicitly frees all sets allocated from it.
func (t *Tracker) DestroyDescriptorPool(handle vkabi.DescriptorPool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.descPools, handle)
	for setHandle, rec := range t.descSets {
		if rec.Pool == handle {
			delete(t.descSets, setHandle)
		}
	}
}

// CreateDescriptorSet registers a newly allocated set.
func (t *Tracker) CreateDescriptorSet(handle vkabi.DescriptorSet, pool vkabi.DescriptorPool, layout vkabi.DescriptorSetLayout) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.descSets[handle] = &DescriptorSet{Handle: handle, Pool: pool, Layout: layout}
}

// DescriptorSet looks up a descriptor set record.
func (t *Tracker) DescriptorSet(handle vkabi.DescriptorSet) (*DescriptorSet, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.descSets[handle]
	return rec, ok
}

// RecordDescriptorWrite replaces the tracked reference for one binding's
// array element, implementing the weak-reference bookkeeping
// queue_commit_descriptor_set_updates needs for snapshot liveness
// (spec.md §4.7).
func (t *Tracker) RecordDescriptorWrite(handle vkabi.DescriptorSet, write DescriptorWrite) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.descSets[handle]
	if !ok {
		return ErrUnknownHandle
	}
	for i := range rec.Writes {
		if rec.Writes[i].Binding == write.Binding && rec.Writes[i].ArrayElement == write.ArrayElement {
			rec.Writes[i] = write
			return nil
		}
	}
	rec.Writes = append(rec.Writes, write)
	return nil
}

// FreeDescriptorSet removes a descriptor set record (vkFreeDescriptorSets,
// only valid when the owning pool has FREE_DESCRIPTOR_SET set).
func (t *Tracker) FreeDescriptorSet(handle vkabi.DescriptorSet) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.descSets, handle)
}
