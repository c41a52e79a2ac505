// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package devop

import (
	"testing"
	"time"

	"github.com/virtgpu/vkhost/vkabi"
)

func TestTrackerPollShortCircuitsOnFirstPending(t *testing.T) {
	tr := NewTracker(time.Second, nil, 0, nil)

	var ran []int
	tr.addPoll(func() Status { ran = append(ran, 0); return StatusDone })
	tr.addPoll(func() Status { ran = append(ran, 1); return StatusPending })
	tr.addPoll(func() Status { ran = append(ran, 2); return StatusDone })

	tr.Poll()

	if len(ran) != 2 {
		t.Fatalf("Poll ran %d functions, want 2 (stop at first pending)", len(ran))
	}
	if ran[0] != 0 || ran[1] != 1 {
		t.Fatalf("Poll order = %v, want [0 1]", ran)
	}

	// A second Poll should retry the still-pending entry (now it
	// completes) plus whatever was queued behind it, which was never
	// reached the first time.
	var secondRan []int
	tr.pollFns[0] = func() Status { secondRan = append(secondRan, 1); return StatusDone }
	tr.Poll()
	if len(tr.pollFns) != 0 {
		t.Fatalf("pollFns after second Poll = %d entries, want 0", len(tr.pollFns))
	}
}

func TestTrackerPollEmptyQueueIsNoop(t *testing.T) {
	tr := NewTracker(time.Second, nil, 0, nil)
	tr.Poll() // must not panic
}

func TestTrackerPollAndProcessGarbageRemovesSettled(t *testing.T) {
	tr := NewTracker(time.Hour, nil, 0, nil)

	w := newWaitable()
	tr.AddPendingGarbageFence(w, vkabi.Fence(1))
	if len(tr.garbage) != 1 {
		t.Fatalf("garbage queue len = %d, want 1", len(tr.garbage))
	}

	w.settle(nil)
	tr.PollAndProcessGarbage()

	if len(tr.garbage) != 0 {
		t.Fatalf("garbage queue len after settle+poll = %d, want 0", len(tr.garbage))
	}
}

func TestTrackerPollAndProcessGarbageKeepsUnsettled(t *testing.T) {
	tr := NewTracker(time.Hour, nil, 0, nil)

	w := newWaitable()
	tr.AddPendingGarbageSemaphore(w, vkabi.Semaphore(1))
	tr.PollAndProcessGarbage()

	if len(tr.garbage) != 1 {
		t.Fatalf("garbage queue len = %d, want 1 (not yet settled, within grace)", len(tr.garbage))
	}
}

func TestTrackerPollAndProcessGarbageForceLeaksStaleEntries(t *testing.T) {
	tr := NewTracker(10*time.Millisecond, nil, 0, nil)

	w := newWaitable()
	tr.AddPendingGarbageFence(w, vkabi.Fence(9))

	time.Sleep(30 * time.Millisecond)
	tr.PollAndProcessGarbage()

	if len(tr.garbage) != 0 {
		t.Fatalf("garbage queue len after grace window elapsed = %d, want 0 (force-leaked)", len(tr.garbage))
	}
}

func TestTrackerOnDestroyDeviceClearsQueues(t *testing.T) {
	tr := NewTracker(time.Second, nil, 0, nil)
	tr.addPoll(func() Status { return StatusPending })
	tr.AddPendingGarbageFence(newWaitable(), vkabi.Fence(1))

	tr.OnDestroyDevice()

	if len(tr.pollFns) != 0 {
		t.Fatalf("pollFns after OnDestroyDevice = %d, want 0", len(tr.pollFns))
	}
	if len(tr.garbage) != 0 {
		t.Fatalf("garbage after OnDestroyDevice = %d, want 0", len(tr.garbage))
	}
}
