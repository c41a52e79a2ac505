// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package teximage

import (
	"testing"

	"github.com/virtgpu/vkhost/vkabi"
)

func TestBlockCountRoundsUp(t *testing.T) {
	cases := []struct{ dim, block, want uint32 }{
		{16, 4, 4},
		{15, 4, 4},
		{1, 4, 1},
		{0, 4, 0},
		{8, 0, 8}, // block 0: passthrough, never divide by zero
	}
	for _, c := range cases {
		if got := blockCount(c.dim, c.block); got != c.want {
			t.Errorf("blockCount(%d, %d) = %d, want %d", c.dim, c.block, got, c.want)
		}
	}
}

func TestNewCompressedImageInfoMipChain(t *testing.T) {
	info, _ := Lookup(vkabi.FormatEtc2R8g8b8UnormBlock)
	create := vkabi.ImageCreateInfo{
		ImageType: vkabi.ImageType2D, Format: vkabi.FormatEtc2R8g8b8UnormBlock,
		Width: 16, Height: 16, Depth: 1, MipLevels: 3, ArrayLayers: 1,
	}
	c := NewCompressedImageInfo(info, create)

	if len(c.Mips) != 3 {
		t.Fatalf("len(Mips) = %d, want 3", len(c.Mips))
	}
	want := []struct{ w, h uint32 }{{4, 4}, {2, 2}, {1, 1}}
	for i, m := range c.Mips {
		if m.Width != want[i].w || m.Height != want[i].h {
			t.Errorf("mip %d = (%d,%d) blocks, want (%d,%d)", i, m.Width, m.Height, want[i].w, want[i].h)
		}
		if m.Level != uint32(i) {
			t.Errorf("mip %d .Level = %d, want %d", i, m.Level, i)
		}
	}
}

func TestNewCompressedImageInfo3DUsesMipDepth(t *testing.T) {
	info, _ := Lookup(vkabi.FormatAstc4x4UnormBlock)
	create := vkabi.ImageCreateInfo{
		ImageType: vkabi.ImageType3D, Width: 8, Height: 8, Depth: 4, MipLevels: 3, ArrayLayers: 1,
	}
	c := NewCompressedImageInfo(info, create)

	wantDepth := []uint32{4, 2, 1}
	for i, m := range c.Mips {
		if m.Depth != wantDepth[i] {
			t.Errorf("mip %d .Depth = %d, want %d", i, m.Depth, wantDepth[i])
		}
	}
}

func TestNewCompressedImageInfo2DArrayUsesArrayLayers(t *testing.T) {
	info, _ := Lookup(vkabi.FormatAstc4x4UnormBlock)
	create := vkabi.ImageCreateInfo{
		ImageType: vkabi.ImageType2D, Width: 8, Height: 8, Depth: 1, MipLevels: 2, ArrayLayers: 6,
	}
	c := NewCompressedImageInfo(info, create)
	for i, m := range c.Mips {
		if m.Depth != 6 {
			t.Errorf("mip %d .Depth = %d, want 6 (array layers)", i, m.Depth)
		}
	}
}

func TestMipDimNeverZero(t *testing.T) {
	if got := mipDim(1, 5); got != 1 {
		t.Errorf("mipDim(1, 5) = %d, want 1 (floor at 1)", got)
	}
	if got := mipDim(32, 2); got != 8 {
		t.Errorf("mipDim(32, 2) = %d, want 8", got)
	}
}

func TestAssignOffsetsRespectsAlignment(t *testing.T) {
	c := &CompressedImageInfo{Mips: make([]MipShadow, 3)}
	sizes := []uint64{10, 20, 5}
	alignments := []uint64{16, 16, 16}

	total := c.AssignOffsets(sizes, alignments)

	if c.Mips[0].MemoryOffset != 0 {
		t.Errorf("mip0 offset = %d, want 0", c.Mips[0].MemoryOffset)
	}
	if c.Mips[1].MemoryOffset != 16 {
		t.Errorf("mip1 offset = %d, want 16 (aligned up from 10)", c.Mips[1].MemoryOffset)
	}
	if c.Mips[2].MemoryOffset != 48 {
		t.Errorf("mip2 offset = %d, want 48 (aligned up from 36)", c.Mips[2].MemoryOffset)
	}
	if total != 53 {
		t.Errorf("total = %d, want 53", total)
	}
}

func TestAssignOffsetsZeroAlignmentIsNoop(t *testing.T) {
	c := &CompressedImageInfo{Mips: make([]MipShadow, 2)}
	sizes := []uint64{7, 3}
	alignments := []uint64{0, 0}

	total := c.AssignOffsets(sizes, alignments)
	if c.Mips[0].MemoryOffset != 0 || c.Mips[1].MemoryOffset != 7 {
		t.Fatalf("offsets = %d, %d, want 0, 7", c.Mips[0].MemoryOffset, c.Mips[1].MemoryOffset)
	}
	if total != 10 {
		t.Errorf("total = %d, want 10", total)
	}
}

func TestRewriteToShadowDividesByBlockSize(t *testing.T) {
	info, _ := Lookup(vkabi.FormatEtc2R8g8b8UnormBlock)
	c := &CompressedImageInfo{Info: info}

	region := BufferImageCopy{
		MipLevel:    2,
		ImageOffset: Offset3D{X: 8, Y: 4, Z: 0},
		ImageExtent: Extent3D{Width: 16, Height: 12, Depth: 1},
	}
	out := c.RewriteToShadow(region)

	if out.MipLevel != 0 {
		t.Errorf("rewritten MipLevel = %d, want 0", out.MipLevel)
	}
	if out.ImageOffset != (Offset3D{X: 2, Y: 1, Z: 0}) {
		t.Errorf("rewritten ImageOffset = %+v, want {2 1 0}", out.ImageOffset)
	}
	if out.ImageExtent != (Extent3D{Width: 4, Height: 3, Depth: 1}) {
		t.Errorf("rewritten ImageExtent = %+v, want {4 3 1}", out.ImageExtent)
	}
}

func TestRewriteToShadowRoundsExtentUp(t *testing.T) {
	info, _ := Lookup(vkabi.FormatEtc2R8g8b8UnormBlock) // 4x4 blocks
	c := &CompressedImageInfo{Info: info}

	region := BufferImageCopy{ImageExtent: Extent3D{Width: 5, Height: 5, Depth: 1}}
	out := c.RewriteToShadow(region)

	if out.ImageExtent.Width != 2 || out.ImageExtent.Height != 2 {
		t.Errorf("rewritten extent = %+v, want blocks (2,2) for a 5x5 region", out.ImageExtent)
	}
}

func TestShadowImageForOutOfRange(t *testing.T) {
	c := &CompressedImageInfo{Mips: []MipShadow{{Image: vkabi.Image(42)}}}

	img, ok := c.ShadowImageFor(0)
	if !ok || img != vkabi.Image(42) {
		t.Fatalf("ShadowImageFor(0) = %v, %v, want 42, true", img, ok)
	}

	if _, ok := c.ShadowImageFor(1); ok {
		t.Error("ShadowImageFor(1) out of range should return ok=false")
	}
}
