// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package procclean is the process-cleanup registry collaborator
// (spec.md §6): a place to hang a callback that runs if the guest
// process that owns an instance disappears without an orderly
// vkDestroyInstance, so the host can still tear the instance down.
package procclean

import "sync"

// Registry is the contract spec.md §6 names:
// "register_process_cleanup_callback(instance, fn)",
// "unregister_process_cleanup_callback(instance)". instance is opaque
// to this package — dispatch passes the index half of its boxed
// instance token.
type Registry interface {
	Register(instance uint64, fn func())
	Unregister(instance uint64)
}

// Table is an in-memory Registry, sufficient for a host process that
// does not otherwise track guest-process lifetime separately from
// instance lifetime.
type Table struct {
	mu        sync.Mutex
	callbacks map[uint64]func()
}

// NewTable creates an empty process-cleanup registry.
func NewTable() *Table {
	return &Table{callbacks: make(map[uint64]func())}
}

func (t *Table) Register(instance uint64, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callbacks[instance] = fn
}

func (t *Table) Unregister(instance uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.callbacks, instance)
}

// RunAndForget invokes and removes the callback for instance, if one is
// registered. Used by a guest-process-died notification path; ordinary
// vkDestroyInstance instead calls Unregister directly without running
// the callback, since the teardown already happened through the normal
// path.
func (t *Table) RunAndForget(instance uint64) {
	t.mu.Lock()
	fn, ok := t.callbacks[instance]
	delete(t.callbacks, instance)
	t.mu.Unlock()
	if ok {
		fn()
	}
}
