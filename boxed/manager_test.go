// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package boxed

import (
	"errors"
	"testing"

	"github.com/virtgpu/vkhost/core"
)

type fakeMarker = core.BufferMarker

func TestManagerAddGetRoundTrip(t *testing.T) {
	m := NewManager[uint64, fakeMarker]()
	id := m.Add(100, "meta-a")

	got, err := m.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Handle != 100 || got.Meta != "meta-a" {
		t.Fatalf("Get() = %+v, want handle 100 meta-a", got)
	}
}

func TestManagerGetUnknownToken(t *testing.T) {
	m := NewManager[uint64, fakeMarker]()
	_, err := m.Get(core.ID[fakeMarker]{})
	if !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("Get() on zero ID error = %v, want ErrUnknownToken", err)
	}
}

func TestManagerReverseLookupIsInjective(t *testing.T) {
	m := NewManager[uint64, fakeMarker]()
	id1 := m.Add(5, nil)
	id2 := m.Add(6, nil)

	got1, ok := m.GetBoxedFromUnboxed(5)
	if !ok || got1 != id1 {
		t.Fatalf("GetBoxedFromUnboxed(5) = %v, %v; want %v, true", got1, ok, id1)
	}
	got2, ok := m.GetBoxedFromUnboxed(6)
	if !ok || got2 != id2 {
		t.Fatalf("GetBoxedFromUnboxed(6) = %v, %v; want %v, true", got2, ok, id2)
	}
}

func TestManagerTokenNeverRecycledAcrossRecreate(t *testing.T) {
	m := NewManager[uint64, fakeMarker]()
	id1 := m.Add(9, nil)
	if _, err := m.Remove(id1); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	// Same underlying handle value reused for a new object.
	id2 := m.Add(9, nil)
	if id1 == id2 {
		t.Fatal("a recreated object must get a distinct boxed token even when the underlying handle value repeats")
	}

	// The old token must no longer resolve.
	if _, err := m.Get(id1); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("Get() on destroyed token error = %v, want ErrUnknownToken", err)
	}
	got, err := m.Get(id2)
	if err != nil || got.Handle != 9 {
		t.Fatalf("Get() on recreated token = %+v, %v", got, err)
	}
}

func TestManagerRemoveDelayedAndSweep(t *testing.T) {
	m := NewManager[uint64, fakeMarker]()
	id := m.Add(1, nil)

	if err := m.RemoveDelayed(id); err != nil {
		t.Fatalf("RemoveDelayed() error = %v", err)
	}

	// Still resolves until Sweep runs.
	if _, err := m.Get(id); err != nil {
		t.Fatalf("Get() before Sweep error = %v, want nil", err)
	}

	m.Sweep()

	if _, err := m.Get(id); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("Get() after Sweep error = %v, want ErrUnknownToken", err)
	}
}

func TestManagerUpdateChangesReverseMap(t *testing.T) {
	m := NewManager[uint64, fakeMarker]()
	id := m.Add(1, "a")

	if err := m.Update(id, 2, "b"); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if _, ok := m.GetBoxedFromUnboxed(1); ok {
		t.Fatal("old handle should no longer reverse-resolve after Update")
	}
	got, ok := m.GetBoxedFromUnboxed(2)
	if !ok || got != id {
		t.Fatalf("GetBoxedFromUnboxed(2) = %v, %v; want %v, true", got, ok, id)
	}
	entry, err := m.Get(id)
	if err != nil || entry.Handle != 2 || entry.Meta != "b" {
		t.Fatalf("Get() after Update = %+v, %v", entry, err)
	}
}

func TestManagerEachSkipsTombstoned(t *testing.T) {
	m := NewManager[uint64, fakeMarker]()
	m.Add(1, nil)
	id2 := m.Add(2, nil)
	m.Add(3, nil)

	if err := m.RemoveDelayed(id2); err != nil {
		t.Fatalf("RemoveDelayed() error = %v", err)
	}

	var seen []uint64
	m.Each(func(_ core.ID[fakeMarker], handle uint64, _ any) bool {
		seen = append(seen, handle)
		return true
	})

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 3 {
		t.Fatalf("Each() visited %v, want [1 3]", seen)
	}
}

func TestManagerResetClearsEverything(t *testing.T) {
	m := NewManager[uint64, fakeMarker]()
	m.Add(1, nil)
	m.Add(2, nil)

	m.Reset()

	if got := m.Count(); got != 0 {
		t.Fatalf("Count() after Reset = %d, want 0", got)
	}
	if _, ok := m.GetBoxedFromUnboxed(1); ok {
		t.Fatal("Reset should clear the reverse map")
	}
}

func TestManagerAddFixedHonorsCapturedToken(t *testing.T) {
	m := NewManager[uint64, fakeMarker]()
	fixed := core.NewID[fakeMarker](3, 1)

	m.AddFixed(fixed, 77, "snapshot")

	got, err := m.Get(fixed)
	if err != nil || got.Handle != 77 {
		t.Fatalf("Get(fixed) = %+v, %v; want handle 77", got, err)
	}

	// A subsequent ordinary Add must never reissue the reserved index.
	next := m.Add(78, nil)
	if next == fixed {
		t.Fatal("Add after AddFixed must not reissue the reserved token")
	}
}
