// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package ordering implements the concurrency/ordering coordinator
// (spec.md §4.2): a per-dispatchable-handle reference-counted sequence
// counter that lets one goroutine block until another has observed a
// given point in the command stream (host_sync), with a bounded wait so
// a stalled or destroyed peer can never hang the caller forever.
package ordering

import (
	"sync"
	"sync/atomic"
	"time"
)

// Token is the ordering coordinator's unit of state, one per
// dispatchable handle (Device, Queue, CommandBuffer) that other
// dispatch paths need to order against. The zero value is not usable;
// construct with NewToken.
type Token struct {
	mu       sync.Mutex
	cond     *sync.Cond
	seq      uint64
	refcount int32
}

// NewToken creates a Token with sequence number zero and one reference.
func NewToken() *Token {
	t := &Token{refcount: 1}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// Retain adds a reference, keeping the token alive through boxed's
// remove_delayed path while a device op still needs to wait on it.
func (t *Token) Retain() {
	atomic.AddInt32(&t.refcount, 1)
}

// Release drops a reference and returns the count remaining. Callers
// free the token once this reaches zero.
func (t *Token) Release() int32 {
	return atomic.AddInt32(&t.refcount, -1)
}

// Sequence returns the current sequence number.
func (t *Token) Sequence() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seq
}

// Advance bumps the sequence number by one and wakes every waiter
// blocked in HostSync, as the thread producing host-visible progress on
// this handle calls after each unit of work completes.
func (t *Token) Advance() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	t.cond.Broadcast()
	return t.seq
}

// HostSync blocks until the token's sequence number reaches at least
// target, or until grace elapses — whichever comes first. On timeout the
// token is advanced unilaterally to target so the waiter (and any other
// waiter blocked on the same or an earlier target) is released rather
// than left stuck behind a peer that has stalled or died (spec.md §4.2,
// §5's 5-second deadline-then-advance rule). Returns the sequence number
// observed when it returned, and whether it returned via the deadline
// rather than a real Advance.
func (t *Token) HostSync(target uint64, grace time.Duration) (seq uint64, timedOut bool) {
	deadline := time.Now().Add(grace)

	t.mu.Lock()
	defer t.mu.Unlock()

	for t.seq < target {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			t.seq = target
			timedOut = true
			t.cond.Broadcast()
			break
		}
		timer := time.AfterFunc(remaining, t.cond.Broadcast)
		t.cond.Wait()
		timer.Stop()
	}
	return t.seq, timedOut
}

// Coordinator owns one Token per dispatchable handle of a given kind,
// keyed by the caller's own handle type (a boxed token or a native
// vkabi handle — ordering does not care which, as long as it is
// comparable).
type Coordinator[K comparable] struct {
	mu     sync.Mutex
	tokens map[K]*Token
}

// NewCoordinator creates an empty coordinator.
func NewCoordinator[K comparable]() *Coordinator[K] {
	return &Coordinator[K]{tokens: make(map[K]*Token)}
}

// TokenFor returns the Token for key, creating one on first use.
func (c *Coordinator[K]) TokenFor(key K) *Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.tokens[key]; ok {
		return t
	}
	t := NewToken()
	c.tokens[key] = t
	return t
}

// Forget drops the coordinator's reference to key's token once the
// owning handle has been destroyed and the token's refcount (tracked by
// callers via Retain/Release) has reached zero.
func (c *Coordinator[K]) Forget(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, key)
}

// HostSyncQueue is host_sync_queue (spec.md §4.2): it waits for the
// queue's token to reach target using the shared grace window, then
// returns. Unlike HostSync, callers never need the raw timed-out bit —
// a queue-level host sync always unblocks one way or another.
func (c *Coordinator[K]) HostSyncQueue(key K, target uint64, grace time.Duration) uint64 {
	seq, _ := c.TokenFor(key).HostSync(target, grace)
	return seq
}
