// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package extres is the external-memory / external-sync bridge (spec.md
// §4.5, §6): it converts between native OS handles, guest blob IDs, and
// the Vulkan import/export structures the driver expects, and it defines
// the narrow collaborator interfaces the core requires from the
// out-of-scope ColorBuffer manager and external-object manager (spec.md
// §6's two "Collaborator contracts exposed to the core").
package extres

import (
	"errors"
	"fmt"
	"sync"
)

// HandleType mirrors the subset of VkExternalMemoryHandleTypeFlagBits /
// VkExternalSemaphoreHandleTypeFlagBits this module imports and exports.
type HandleType uint32

const (
	HandleTypeOpaqueFd HandleType = 1 << iota
	HandleTypeOpaqueWin32
	HandleTypeDmaBuf
	HandleTypeMachPort
	HandleTypeHostAllocation
	HandleTypeAndroidHardwareBuffer
)

// CacheMode mirrors the host-visible memory's cache behaviour, inferred
// from VkMemoryPropertyFlagBits at allocation time (spec.md §4.5).
type CacheMode int

const (
	CacheModeUncached CacheMode = iota
	CacheModeCached
	CacheModeWriteCombine
)

// VulkanInfo is attached to a blob descriptor when the blob backs a
// VkDeviceMemory allocation, so a later re-import on the same or a
// different device can pick a compatible memory type (spec.md §4.5
// "get_blob ... registers it ... along with cache mode and vulkan-info
// (memory-type index and device UUIDs)").
type VulkanInfo struct {
	MemoryTypeIndex uint32
	DeviceUUID      [16]byte
}

// BlobDescriptor is the registry entry for one exported memory blob
// (spec.md glossary: "Blob. A piece of memory addressable by a 64-bit
// id, exportable to the guest as an OS handle").
type BlobDescriptor struct {
	Blob       uint64
	Handle     uintptr
	HandleType HandleType
	Cache      CacheMode
	Vulkan     *VulkanInfo // nil for non-Vulkan-backed blobs
}

// ErrBlobNotFound is returned when a blob ID has no registered
// descriptor — either it was never registered or was already removed.
var ErrBlobNotFound = errors.New("extres: blob not found")

// ExternalObjectManager is the collaborator contract spec.md §6 names
// for blob and sync-object bookkeeping shared with the address-space
// device and the rest of the virtualization stack. This module never
// owns the real implementation — it is injected by the embedding host —
// but ships an in-memory implementation (Registry, below) adequate for
// tests and for hosts that have no separate external-object service.
type ExternalObjectManager interface {
	AddBlobDescriptor(ctx uint64, blob uint64, handle uintptr, handleType HandleType, cache CacheMode, vulkan *VulkanInfo)
	RemoveBlobDescriptor(ctx uint64, blob uint64) (*BlobDescriptor, bool)
	AddSyncDescriptor(ctx uint64, sync uint64, handle uintptr, handleType HandleType)
	AddMapping(ctx uint64, blob uint64, ptr uintptr, cache CacheMode)
}

// SyncDescriptor is the registry entry for one exported fence/semaphore
// OS handle.
type SyncDescriptor struct {
	Sync       uint64
	Handle     uintptr
	HandleType HandleType
}

// Registry is an in-memory ExternalObjectManager, scoped by an opaque
// per-guest-process context id exactly as the real collaborator is
// (spec.md §6's contract takes a ctx on every call). Safe for concurrent
// use from multiple render threads.
type Registry struct {
	mu    sync.Mutex
	blobs map[uint64]map[uint64]*BlobDescriptor
	syncs map[uint64]map[uint64]*SyncDescriptor
	maps  map[uint64]map[uint64]mapping
}

type mapping struct {
	ptr   uintptr
	cache CacheMode
}

// NewRegistry creates an empty in-memory external-object registry.
func NewRegistry() *Registry {
	return &Registry{
		blobs: make(map[uint64]map[uint64]*BlobDescriptor),
		syncs: make(map[uint64]map[uint64]*SyncDescriptor),
		maps:  make(map[uint64]map[uint64]mapping),
	}
}

func (r *Registry) AddBlobDescriptor(ctx, blob uint64, handle uintptr, handleType HandleType, cache CacheMode, vulkan *VulkanInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.blobs[ctx] == nil {
		r.blobs[ctx] = make(map[uint64]*BlobDescriptor)
	}
	r.blobs[ctx][blob] = &BlobDescriptor{Blob: blob, Handle: handle, HandleType: handleType, Cache: cache, Vulkan: vulkan}
}

func (r *Registry) RemoveBlobDescriptor(ctx, blob uint64) (*BlobDescriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.blobs[ctx]
	if !ok {
		return nil, false
	}
	d, ok := m[blob]
	if ok {
		delete(m, blob)
	}
	return d, ok
}

func (r *Registry) AddSyncDescriptor(ctx, sync uint64, handle uintptr, handleType HandleType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.syncs[ctx] == nil {
		r.syncs[ctx] = make(map[uint64]*SyncDescriptor)
	}
	r.syncs[ctx][sync] = &SyncDescriptor{Sync: sync, Handle: handle, HandleType: handleType}
}

func (r *Registry) AddMapping(ctx, blob uint64, ptr uintptr, cache CacheMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maps[ctx] == nil {
		r.maps[ctx] = make(map[uint64]mapping)
	}
	r.maps[ctx][blob] = mapping{ptr: ptr, cache: cache}
}

// Blob looks up a previously registered blob descriptor, used when a
// guest re-imports a blob ID it already owns (spec.md §4.5's "import a
// guest-provided buffer by blob ID" path).
func (r *Registry) Blob(ctx, blob uint64) (*BlobDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.blobs[ctx]
	if !ok {
		return nil, ErrBlobNotFound
	}
	d, ok := m[blob]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return d, nil
}

// InferCacheMode derives CacheMode from the host memory-property flags
// the way spec.md §4.5 describes ("cache mode (cached / uncached /
// write-combine inferred from memory property bits)"). hostVisible and
// hostCoherent/hostCached are the relevant VkMemoryPropertyFlagBits.
func InferCacheMode(hostVisible, hostCached, hostCoherent bool) CacheMode {
	switch {
	case !hostVisible:
		return CacheModeUncached
	case hostCached:
		return CacheModeCached
	case hostCoherent:
		return CacheModeWriteCombine
	default:
		return CacheModeUncached
	}
}

// NextHandleType picks the first OS-native external memory handle type
// advertised as supported, preferring dma-buf on platforms that offer
// it since it needs no extra duplication step on export.
func NextHandleType(supported HandleType) (HandleType, error) {
	for _, t := range []HandleType{HandleTypeDmaBuf, HandleTypeOpaqueFd, HandleTypeOpaqueWin32, HandleTypeMachPort, HandleTypeHostAllocation} {
		if supported&t != 0 {
			return t, nil
		}
	}
	return 0, fmt.Errorf("extres: no supported external memory handle type in mask %#x", supported)
}
