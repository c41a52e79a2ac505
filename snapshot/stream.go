// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package snapshot implements the snapshot engine (spec.md §4.10):
// ordered save/load of the state registries, mapped-memory contents,
// image/buffer pixel contents, live descriptor writes, and unsignalled
// fences. The persisted format is "a positional stream of records; each
// record is prefixed by a one-byte tag for variant discrimination.
// Big-endian integers are used for all multi-byte fields" (spec.md §6) —
// the byte stream is only ever read back by the same build, so no
// versioning or schema evolution is attempted.
package snapshot

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrUnsupportedSnapshot is returned by Save when it encounters state
// spec.md §9's Open Questions resolve as out of scope for persistence:
// a vkBindImageMemory2 bind with more than one bind info, or a
// descriptor write referencing a texel buffer view (see DESIGN.md).
var ErrUnsupportedSnapshot = errors.New("snapshot: unsupported for save")

// ErrCorrupt is returned by Load when the stream's tag bytes don't match
// what Save would have produced — either a different build's stream or
// a genuinely truncated/corrupted one.
var ErrCorrupt = errors.New("snapshot: corrupt stream")

// Writer is the positional big-endian primitive writer every record
// type in this package builds on (spec.md §6's "Snapshot stream:
// primitive read/write of u8, u32, u64, byte arrays").
type Writer struct {
	w   io.Writer
	err error
	buf [8]byte
}

// NewWriter wraps w for positional snapshot writes.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// Err returns the first error encountered by any Write call, or nil.
func (w *Writer) Err() error { return w.err }

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(p)
}

// U8 writes one byte — used for record tags and booleans.
func (w *Writer) U8(v uint8) {
	w.buf[0] = v
	w.write(w.buf[:1])
}

// Bool writes a one-byte boolean.
func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
	} else {
		w.U8(0)
	}
}

// U32 writes a big-endian uint32.
func (w *Writer) U32(v uint32) {
	binary.BigEndian.PutUint32(w.buf[:4], v)
	w.write(w.buf[:4])
}

// U64 writes a big-endian uint64.
func (w *Writer) U64(v uint64) {
	binary.BigEndian.PutUint64(w.buf[:8], v)
	w.write(w.buf[:8])
}

// I32 writes a big-endian int32.
func (w *Writer) I32(v int32) { w.U32(uint32(v)) }

// Bytes writes a uint64 length prefix followed by the raw bytes.
func (w *Writer) Bytes(b []byte) {
	w.U64(uint64(len(b)))
	w.write(b)
}

// String writes a length-prefixed UTF-8 string.
func (w *Writer) String(s string) { w.Bytes([]byte(s)) }

// Strings writes a count followed by each length-prefixed string, for
// the enabled-extension lists instances/devices carry.
func (w *Writer) Strings(ss []string) {
	w.U32(uint32(len(ss)))
	for _, s := range ss {
		w.String(s)
	}
}

// Token writes a boxed token's (index, epoch) pair.
func (w *Writer) Token(index, epoch uint32) {
	w.U32(index)
	w.U32(epoch)
}

// Reader is Writer's mirror image.
type Reader struct {
	r   io.Reader
	err error
	buf [8]byte
}

// NewReader wraps r for positional snapshot reads.
func NewReader(r io.Reader) *Reader { return &Reader{r: r} }

// Err returns the first error encountered by any Read call, or nil.
func (r *Reader) Err() error { return r.err }

func (r *Reader) read(p []byte) {
	if r.err != nil {
		return
	}
	_, r.err = io.ReadFull(r.r, p)
}

// U8 reads one byte.
func (r *Reader) U8() uint8 {
	r.read(r.buf[:1])
	return r.buf[0]
}

// Bool reads a one-byte boolean.
func (r *Reader) Bool() bool { return r.U8() != 0 }

// U32 reads a big-endian uint32.
func (r *Reader) U32() uint32 {
	r.read(r.buf[:4])
	return binary.BigEndian.Uint32(r.buf[:4])
}

// U64 reads a big-endian uint64.
func (r *Reader) U64() uint64 {
	r.read(r.buf[:8])
	return binary.BigEndian.Uint64(r.buf[:8])
}

// I32 reads a big-endian int32.
func (r *Reader) I32() int32 { return int32(r.U32()) }

// Bytes reads a length-prefixed byte slice.
func (r *Reader) Bytes() []byte {
	n := r.U64()
	if r.err != nil || n == 0 {
		return nil
	}
	b := make([]byte, n)
	r.read(b)
	return b
}

// String reads a length-prefixed UTF-8 string.
func (r *Reader) String() string { return string(r.Bytes()) }

// Strings reads a count followed by each length-prefixed string.
func (r *Reader) Strings() []string {
	n := r.U32()
	if r.err != nil || n == 0 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = r.String()
	}
	return out
}

// Token reads a boxed token's (index, epoch) pair.
func (r *Reader) Token() (index, epoch uint32) {
	return r.U32(), r.U32()
}
