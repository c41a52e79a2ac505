// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package snapshot

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestWriterReaderRoundTripPrimitives(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.U8(0x7f)
	w.Bool(true)
	w.Bool(false)
	w.U32(0xdeadbeef)
	w.U64(0x0123456789abcdef)
	w.I32(-1234)
	if err := w.Err(); err != nil {
		t.Fatalf("writer error: %v", err)
	}

	r := NewReader(&buf)
	if v := r.U8(); v != 0x7f {
		t.Errorf("U8 = %x, want 0x7f", v)
	}
	if v := r.Bool(); v != true {
		t.Errorf("Bool = %v, want true", v)
	}
	if v := r.Bool(); v != false {
		t.Errorf("Bool = %v, want false", v)
	}
	if v := r.U32(); v != 0xdeadbeef {
		t.Errorf("U32 = %x, want 0xdeadbeef", v)
	}
	if v := r.U64(); v != 0x0123456789abcdef {
		t.Errorf("U64 = %x, want 0x0123456789abcdef", v)
	}
	if v := r.I32(); v != -1234 {
		t.Errorf("I32 = %d, want -1234", v)
	}
	if err := r.Err(); err != nil {
		t.Fatalf("reader error: %v", err)
	}
}

func TestBytesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	payload := []byte{1, 2, 3, 4, 5}
	w.Bytes(payload)

	r := NewReader(&buf)
	got := r.Bytes()
	if !bytes.Equal(got, payload) {
		t.Fatalf("Bytes round trip = %v, want %v", got, payload)
	}
}

func TestBytesEmptyRoundTripsToNil(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Bytes(nil)

	r := NewReader(&buf)
	got := r.Bytes()
	if got != nil {
		t.Fatalf("Bytes() for empty write = %v, want nil", got)
	}
}

func TestStringRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.String("VK_KHR_swapchain")

	r := NewReader(&buf)
	if got := r.String(); got != "VK_KHR_swapchain" {
		t.Fatalf("String round trip = %q, want %q", got, "VK_KHR_swapchain")
	}
}

func TestStringsRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	want := []string{"VK_KHR_surface", "VK_KHR_swapchain", "VK_EXT_debug_utils"}
	w.Strings(want)

	r := NewReader(&buf)
	got := r.Strings()
	if len(got) != len(want) {
		t.Fatalf("Strings round trip len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Strings[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStringsEmptyRoundTripsToNil(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Strings(nil)

	r := NewReader(&buf)
	if got := r.Strings(); got != nil {
		t.Fatalf("Strings() for empty write = %v, want nil", got)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Token(42, 7)

	r := NewReader(&buf)
	index, epoch := r.Token()
	if index != 42 || epoch != 7 {
		t.Fatalf("Token round trip = (%d, %d), want (42, 7)", index, epoch)
	}
}

func TestReaderPropagatesEOFAndLatchesErr(t *testing.T) {
	r := NewReader(bytes.NewReader(nil))
	_ = r.U32()
	if r.Err() == nil {
		t.Fatal("Err() after reading past EOF = nil, want an error")
	}

	// Once latched, further reads must not panic and Err() stays set.
	_ = r.U64()
	if r.Err() == nil {
		t.Fatal("Err() should remain set after the first failure")
	}
}

type errWriter struct{}

func (errWriter) Write(p []byte) (int, error) { return 0, errors.New("boom") }

func TestWriterLatchesFirstError(t *testing.T) {
	w := NewWriter(errWriter{})
	w.U8(1)
	if w.Err() == nil {
		t.Fatal("Err() after failing write = nil, want an error")
	}
	w.U32(2) // must not panic
	if w.Err() == nil {
		t.Fatal("Err() should remain set")
	}
}

func TestMultipleRecordsSequentialRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.U8(1) // tag
	w.U64(100)
	w.U8(2) // tag
	w.String("hello")

	r := NewReader(&buf)
	if tag := r.U8(); tag != 1 {
		t.Fatalf("first tag = %d, want 1", tag)
	}
	if v := r.U64(); v != 100 {
		t.Fatalf("first payload = %d, want 100", v)
	}
	if tag := r.U8(); tag != 2 {
		t.Fatalf("second tag = %d, want 2", tag)
	}
	if s := r.String(); s != "hello" {
		t.Fatalf("second payload = %q, want %q", s, "hello")
	}
	if _, err := io.ReadAll(&buf); err != nil || buf.Len() != 0 {
		t.Fatalf("stream should be fully consumed")
	}
}
