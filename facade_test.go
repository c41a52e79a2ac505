// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vkhost

import "testing"

func TestSnapshotBiasRoundTrip(t *testing.T) {
	ResetSnapshotBias()
	defer ResetSnapshotBias()

	if IsSnapshotBiased(42) {
		t.Fatal("token should not be biased before MarkSnapshotBias")
	}

	MarkSnapshotBias(42)
	if !IsSnapshotBiased(42) {
		t.Fatal("token should be biased after MarkSnapshotBias")
	}
	if IsSnapshotBiased(43) {
		t.Fatal("unrelated token should not be biased")
	}
}

func TestResetSnapshotBiasClears(t *testing.T) {
	MarkSnapshotBias(7)
	ResetSnapshotBias()
	if IsSnapshotBiased(7) {
		t.Fatal("ResetSnapshotBias should clear every entry")
	}
}

func TestTeardownAllowsRebuildAttempt(t *testing.T) {
	// Teardown must be safe to call even if Get was never called, and
	// safe to call twice in a row. Whether a later Get attempts a fresh
	// load is not exercised here, since Get loads the native loader.
	Teardown()
	Teardown()
}
