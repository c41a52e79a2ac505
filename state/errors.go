// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package state

import "errors"

// ErrUnknownHandle is returned by registry lookups and mutations when
// the native handle has no record — either it was never created, or it
// has already been destroyed.
var ErrUnknownHandle = errors.New("state: unknown handle")

// ErrAlreadyBound is returned when a buffer or image that already has
// memory bound is bound a second time (spec.md §8's binding invariant:
// each resource binds exactly once).
var ErrAlreadyBound = errors.New("state: resource already bound")
