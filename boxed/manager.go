// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package boxed is the boxed-handle manager (spec.md §4.1): it maps
// guest-visible 64-bit tokens to native vkabi handles plus whatever
// per-kind metadata dispatch needs to reach through the token (dispatch
// table, ordering token, read stream for dispatchable kinds).
//
// Tokens are never recycled, even though the index half of a token is:
// core.IdentityManager reissues a freed index at a strictly higher
// epoch (core/identity.go), and a token's identity is the (index, epoch)
// pair, so no two tokens for the same kind ever compare equal across the
// life of the process.
package boxed

import (
	"errors"
	"sync"

	"github.com/virtgpu/vkhost/core"
)

// ErrUnknownToken is returned by Get when a boxed token does not resolve
// to a live entry. Dispatchers map this to the closest driver error
// (spec.md §7); fence lookups treat it specially (spec.md §4.1's sentinel
// rule differs for fences).
var ErrUnknownToken = errors.New("boxed: unknown token")

// entry is the internal record behind a token: the boxed Entry plus a
// tombstone flag used by RemoveDelayed/Sweep.
type entry[T comparable] struct {
	data    Entry[T]
	removed bool
}

// Entry is the per-boxed-handle record returned by Get.
type Entry[T comparable] struct {
	Handle T
	Meta   any
}

// Manager is the boxed-handle manager for one handle kind.
type Manager[T comparable, M core.Marker] struct {
	mu      sync.Mutex
	reg     *core.Registry[entry[T], M]
	reverse map[T]core.ID[M]
	pending []core.ID[M]
}

// NewManager creates an empty manager for handle kind M.
func NewManager[T comparable, M core.Marker]() *Manager[T, M] {
	return &Manager[T, M]{
		reg:     core.NewRegistry[entry[T], M](),
		reverse: make(map[T]core.ID[M]),
	}
}

// Add boxes a freshly created native handle under a newly allocated
// token.
func (m *Manager[T, M]) Add(handle T, meta any) core.ID[M] {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.reg.Register(entry[T]{data: Entry[T]{Handle: handle, Meta: meta}})
	m.reverse[handle] = id
	return id
}

// AddFixed boxes a native handle under a caller-chosen token instead of
// one the identity manager allocates. Used by snapshot load to reproduce
// the exact boxed tokens a prior run handed the guest (spec.md §6).
func (m *Manager[T, M]) AddFixed(id core.ID[M], handle T, meta any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reg.RegisterFixed(id, entry[T]{data: Entry[T]{Handle: handle, Meta: meta}})
	m.reverse[handle] = id
}

// Update replaces the handle and/or metadata stored under an existing
// token without changing the token itself.
func (m *Manager[T, M]) Update(id core.ID[M], handle T, meta any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var oldHandle T
	found := false
	err := m.reg.GetMut(id, func(e *entry[T]) {
		oldHandle = e.data.Handle
		found = true
		e.data.Handle = handle
		e.data.Meta = meta
	})
	if err != nil {
		return ErrUnknownToken
	}
	if found && oldHandle != handle {
		delete(m.reverse, oldHandle)
		m.reverse[handle] = id
	}
	return nil
}

// Get resolves a token to its boxed entry. A tombstoned (RemoveDelayed'd)
// entry still resolves until Sweep runs, so in-flight references created
// just before removal keep working.
func (m *Manager[T, M]) Get(id core.ID[M]) (Entry[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.reg.Get(id)
	if err != nil {
		return Entry[T]{}, ErrUnknownToken
	}
	return e.data, nil
}

// GetBoxedFromUnboxed performs the reverse lookup: native handle to
// boxed token. The reverse map is injective by construction (Add/Update
// only ever point one live handle at one token), per spec.md §8's
// reverse-map injectivity invariant.
func (m *Manager[T, M]) GetBoxedFromUnboxed(handle T) (core.ID[M], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.reverse[handle]
	return id, ok
}

// Remove immediately releases a token: it stops resolving and its index
// becomes eligible for reuse (at a higher epoch, so the token value
// itself is never reissued).
func (m *Manager[T, M]) Remove(id core.ID[M]) (Entry[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.reg.Unregister(id)
	if err != nil {
		return Entry[T]{}, ErrUnknownToken
	}
	delete(m.reverse, e.data.Handle)
	return e.data, nil
}

// RemoveDelayed queues a token for removal without releasing it yet: the
// token keeps resolving through Get until Sweep runs. Used when a
// dispatcher destroys the guest-visible object but an in-flight
// device-op (spec.md §4.3) or ordering token (spec.md §4.2) may still
// reference it.
func (m *Manager[T, M]) RemoveDelayed(id core.ID[M]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.reg.GetMut(id, func(e *entry[T]) { e.removed = true })
	if err != nil {
		return ErrUnknownToken
	}
	m.pending = append(m.pending, id)
	return nil
}

// Sweep performs the deferred removal for every token queued by
// RemoveDelayed since the last Sweep. Callers typically run this from
// the same polling cycle that drains the device-op tracker's pending
// garbage, since that is what RemoveDelayed defers against.
func (m *Manager[T, M]) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.pending {
		e, err := m.reg.Unregister(id)
		if err != nil {
			continue
		}
		delete(m.reverse, e.data.Handle)
	}
	m.pending = m.pending[:0]
}

// Reset discards every boxed token, leaving the manager ready to box a
// fresh set from index zero. Used by snapshot load's "clear all
// registries" step (spec.md §4.10) ahead of re-boxing at the saved
// tokens via AddFixed.
func (m *Manager[T, M]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reg = core.NewRegistry[entry[T], M]()
	m.reverse = make(map[T]core.ID[M])
	m.pending = nil
}

// Count returns the number of live (non-swept) tokens.
func (m *Manager[T, M]) Count() uint64 {
	return m.reg.Count()
}

// Each iterates every live token in index order — the "boxed-handle-sorted
// order" spec.md §4.10 requires so snapshot save/load stay positional. A
// tombstoned (RemoveDelayed'd, not yet Swept) entry is skipped. Return false
// from fn to stop early.
func (m *Manager[T, M]) Each(fn func(id core.ID[M], handle T, meta any) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reg.ForEach(func(id core.ID[M], e entry[T]) bool {
		if e.removed {
			return true
		}
		return fn(id, e.data.Handle, e.data.Meta)
	})
}
