// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package extres

import "github.com/virtgpu/vkhost/vkabi"

// ColorBufferAllocationInfo is the collaborator's answer to "what host
// memory backs this ColorBuffer" (spec.md §6).
type ColorBufferAllocationInfo struct {
	Size                uint64
	HostMemoryTypeIndex uint32
	UsesDedicated       bool
	Ptr                 uintptr // non-zero only for host-pointer-backed color buffers
}

// ColorBufferManager is the narrow interface this module requires from
// the compositor-owned presentable-surface manager (spec.md §6, §1 "Out
// of scope (external collaborators)"). Every method is namespaced by a
// 32-bit ColorBuffer id (spec.md glossary).
type ColorBufferManager interface {
	GetAllocationInfo(id uint32) (ColorBufferAllocationInfo, bool)
	GetExternalMemoryHandle(id uint32) (uintptr, HandleType, bool)
	GetImage(id uint32) (vkabi.Image, bool)
	Invalidate(id uint32)
	Flush(id uint32)
	SetCurrentLayout(id uint32, layout uint32)
	SetLatestUse(id uint32, waitable Waitable)
}

// Waitable is the narrow subset of devop.Waitable this package needs,
// expressed as an interface so extres does not import devop (that
// dependency runs the other way: dispatch wires devop's concrete
// *Waitable into this interface).
type Waitable interface {
	IsDone() bool
}

// NoopColorBufferManager satisfies ColorBufferManager by reporting every
// ColorBuffer as absent. It is the collaborator-not-wired fallback,
// mirroring the teacher's hal/noop backend: "a backend that satisfies
// the interface but does nothing," reused here for a collaborator this
// module does not own (SPEC_FULL.md's ambient-stack note on
// collaborator interfaces).
type NoopColorBufferManager struct{}

func (NoopColorBufferManager) GetAllocationInfo(uint32) (ColorBufferAllocationInfo, bool) {
	return ColorBufferAllocationInfo{}, false
}
func (NoopColorBufferManager) GetExternalMemoryHandle(uint32) (uintptr, HandleType, bool) {
	return 0, 0, false
}
func (NoopColorBufferManager) GetImage(uint32) (vkabi.Image, bool) { return 0, false }
func (NoopColorBufferManager) Invalidate(uint32)                  {}
func (NoopColorBufferManager) Flush(uint32)                       {}
func (NoopColorBufferManager) SetCurrentLayout(uint32, uint32)    {}
func (NoopColorBufferManager) SetLatestUse(uint32, Waitable)      {}
