// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package vkhost is the top-level facade (spec.md §2, §6): it exposes the
// process-wide decoder-state singleton the wire decoder calls into, built
// with init-on-first-use and torn down once at process exit.
package vkhost

import (
	"fmt"
	"sync"

	"github.com/virtgpu/vkhost/dispatch"
	"github.com/virtgpu/vkhost/vkabi"
)

var (
	globalOnce  sync.Once
	globalHub   *dispatch.Hub
	globalErr   error
	globalMu    sync.Mutex
	snapshotBias map[uint64]bool // created-handles-for-snapshot-load, see ResetSnapshotBias
)

// Get returns the process-wide Hub, creating it on first call by loading
// the native Vulkan loader and resolving vkCreateInstance through
// vkGetInstanceProcAddr(NULL, ...). Subsequent calls return the same
// instance.
//
// spec.md §6: "A singleton decoder-state value exists with init-on-first-
// use and teardown at process exit."
func Get() (*dispatch.Hub, error) {
	globalOnce.Do(func() {
		global, err := vkabi.LoadGlobal()
		if err != nil {
			globalErr = fmt.Errorf("vkhost: load native Vulkan loader: %w", err)
			return
		}
		globalHub = dispatch.NewHub(global)
	})
	return globalHub, globalErr
}

// Teardown releases the singleton so a subsequent Get call rebuilds it
// from scratch. Intended for process-exit cleanup and for tests that
// need a fresh Hub; ordinary guest traffic never calls it. It is not
// meaningful to call Teardown while dispatchers may still be running
// against the current Hub — the caller must have already quiesced all
// render threads (spec.md §5's suspension points).
func Teardown() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalOnce = sync.Once{}
	globalHub = nil
	globalErr = nil
}

// MarkSnapshotBias records token in the snapshot-bias table. Neither
// Manager.AddFixed nor the snapshot package calls it, and the boxed
// managers' allocators do not consult the table.
//
// spec.md §6: "A single in-memory table of created-handles-for-snapshot-
// load biases the handle manager's allocation so loads re-hydrate
// previously assigned tokens."
func MarkSnapshotBias(token uint64) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if snapshotBias == nil {
		snapshotBias = make(map[uint64]bool)
	}
	snapshotBias[token] = true
}

// IsSnapshotBiased reports whether MarkSnapshotBias has recorded token.
// The boxed managers' allocators do not consult it.
func IsSnapshotBiased(token uint64) bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return snapshotBias[token]
}

// ResetSnapshotBias clears the snapshot-bias table, called once a
// snapshot load has fully completed and its tokens are ordinary live
// state rather than reload hints.
func ResetSnapshotBias() {
	globalMu.Lock()
	defer globalMu.Unlock()
	snapshotBias = nil
}
