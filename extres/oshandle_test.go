// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux || darwin

package extres

import (
	"os"
	"testing"
)

func TestDupAndCloseFdHandle(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	dup, err := DupHandle(uintptr(r.Fd()), HandleTypeOpaqueFd)
	if err != nil {
		t.Fatalf("DupHandle: %v", err)
	}
	if dup == uintptr(r.Fd()) {
		t.Fatal("DupHandle returned the same fd instead of a duplicate")
	}

	if err := CloseHandle(dup, HandleTypeOpaqueFd); err != nil {
		t.Fatalf("CloseHandle: %v", err)
	}
}

func TestDupHandleUnknownTypePassesThrough(t *testing.T) {
	got, err := DupHandle(0x1234, HandleTypeMachPort)
	if err != nil {
		t.Fatalf("DupHandle with unhandled type: %v", err)
	}
	if got != 0x1234 {
		t.Fatalf("DupHandle passthrough = %x, want 0x1234", got)
	}
}

func TestCloseHandleUnknownTypeIsNoop(t *testing.T) {
	if err := CloseHandle(0x1234, HandleTypeMachPort); err != nil {
		t.Fatalf("CloseHandle with unhandled type: %v, want nil", err)
	}
}

func TestDupHandleWin32UnsupportedOnUnix(t *testing.T) {
	_, err := DupHandle(1, HandleTypeOpaqueWin32)
	if err == nil {
		t.Fatal("DupHandle(Win32) on a unix build = nil error, want unsupported-platform error")
	}
}
