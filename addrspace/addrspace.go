// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package addrspace is the narrow collaborator interface onto the
// address-space device (spec.md §6, §1's out-of-scope "address-space
// device that maps host memory into guest physical addresses"), plus
// an in-memory mapping table usable when no separate address-space
// service is wired in.
package addrspace

import (
	"log/slog"
	"sync"
)

// Device is the contract spec.md §6 names: "map_user_backed_ram(gpa,
// hva, size)", "unmap_user_backed_ram(gpa, size)",
// "register_deallocation_callback(key, gpa, fn)".
type Device interface {
	MapUserBackedRAM(gpa, hva uint64, size uint64) error
	UnmapUserBackedRAM(gpa uint64, size uint64) error
	RegisterDeallocationCallback(key uint64, gpa uint64, fn func())
}

// Table is an in-memory Device. Its own mutex guards every method
// (spec.md §5: "the address-space-mapping table has its own mutex").
type Table struct {
	mu       sync.Mutex
	log      *slog.Logger
	mappings map[uint64]mapping // gpa -> mapping
	dealloc  map[uint64]dealloc // key -> callback
}

type mapping struct {
	hva  uint64
	size uint64
}

type dealloc struct {
	gpa uint64
	fn  func()
}

// NewTable creates an empty address-space mapping table. A nil logger
// discards duplicate-mapping warnings.
func NewTable(log *slog.Logger) *Table {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Table{log: log, mappings: make(map[uint64]mapping), dealloc: make(map[uint64]dealloc)}
}

// MapUserBackedRAM maps a host virtual-address range into the guest at
// gpa. A prior mapping at the same gpa is logged and revoked first
// (spec.md §4.5 "Duplicate mappings of the same GPA are logged and the
// previous mapping is revoked", ported from
// goldfish_address_space.cpp).
func (t *Table) MapUserBackedRAM(gpa, hva uint64, size uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prior, ok := t.mappings[gpa]; ok {
		t.log.Warn("addrspace: revoking duplicate mapping", "gpa", gpa, "priorHva", prior.hva, "priorSize", prior.size)
	}
	t.mappings[gpa] = mapping{hva: hva, size: size}
	return nil
}

// UnmapUserBackedRAM removes the mapping at gpa, if any, running any
// deallocation callback registered against it.
func (t *Table) UnmapUserBackedRAM(gpa uint64, size uint64) error {
	t.mu.Lock()
	delete(t.mappings, gpa)
	var fns []func()
	for key, d := range t.dealloc {
		if d.gpa == gpa {
			fns = append(fns, d.fn)
			delete(t.dealloc, key)
		}
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

// RegisterDeallocationCallback arranges for fn to run when the mapping
// at gpa is torn down, keyed by a caller-chosen identifier so repeated
// registrations against the same gpa do not collide.
func (t *Table) RegisterDeallocationCallback(key uint64, gpa uint64, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dealloc[key] = dealloc{gpa: gpa, fn: fn}
}

// Lookup reports the mapping currently registered at gpa, for tests and
// for snapshot bookkeeping.
func (t *Table) Lookup(gpa uint64) (hva uint64, size uint64, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.mappings[gpa]
	return m.hva, m.size, ok
}
