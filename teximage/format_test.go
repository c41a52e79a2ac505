// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package teximage

import (
	"testing"

	"github.com/virtgpu/vkhost/vkabi"
)

func TestLookupKnownETC2Formats(t *testing.T) {
	cases := []struct {
		format             vkabi.Format
		wantSizeCompat     vkabi.Format
		wantNeedsAlpha     bool
		wantSRGB           bool
	}{
		{vkabi.FormatEtc2R8g8b8UnormBlock, vkabi.FormatR16g16b16a16Uint, true, false},
		{vkabi.FormatEtc2R8g8b8SrgbBlock, vkabi.FormatR16g16b16a16Uint, true, true},
		{vkabi.FormatEtc2R8g8b8a1UnormBlock, vkabi.FormatR16g16b16a16Uint, false, false},
		{vkabi.FormatEtc2R8g8b8a1SrgbBlock, vkabi.FormatR16g16b16a16Uint, false, true},
		{vkabi.FormatEtc2R8g8b8a8UnormBlock, vkabi.FormatR32g32b32a32Uint, false, false},
		{vkabi.FormatEtc2R8g8b8a8SrgbBlock, vkabi.FormatR32g32b32a32Uint, false, true},
	}
	for _, c := range cases {
		info, ok := Lookup(c.format)
		if !ok {
			t.Fatalf("Lookup(%v) not found", c.format)
		}
		if info.Block != (BlockExtent{4, 4}) {
			t.Errorf("Lookup(%v).Block = %+v, want {4 4}", c.format, info.Block)
		}
		if info.SizeCompat != c.wantSizeCompat {
			t.Errorf("Lookup(%v).SizeCompat = %v, want %v", c.format, info.SizeCompat, c.wantSizeCompat)
		}
		if info.NeedsEmulatedAlpha != c.wantNeedsAlpha {
			t.Errorf("Lookup(%v).NeedsEmulatedAlpha = %v, want %v", c.format, info.NeedsEmulatedAlpha, c.wantNeedsAlpha)
		}
		if info.IsSRGB != c.wantSRGB {
			t.Errorf("Lookup(%v).IsSRGB = %v, want %v", c.format, info.IsSRGB, c.wantSRGB)
		}
		if info.Decompressed != vkabi.FormatR8g8b8a8Unorm {
			t.Errorf("Lookup(%v).Decompressed = %v, want FormatR8g8b8a8Unorm", c.format, info.Decompressed)
		}
	}
}

func TestLookupAllASTCBlockSizesPresent(t *testing.T) {
	blocks := []BlockExtent{
		{4, 4}, {5, 4}, {5, 5}, {6, 5}, {6, 6}, {8, 5}, {8, 6}, {8, 8},
		{10, 5}, {10, 6}, {10, 8}, {10, 10}, {12, 10}, {12, 12},
	}
	base := uint32(vkabi.FormatAstc4x4UnormBlock)
	for i, block := range blocks {
		unorm := vkabi.Format(base + uint32(i)*2)
		srgb := vkabi.Format(base + uint32(i)*2 + 1)

		info, ok := Lookup(unorm)
		if !ok {
			t.Fatalf("Lookup(unorm block %d, %+v) not found", i, block)
		}
		if !info.IsASTC {
			t.Errorf("Lookup(unorm block %+v).IsASTC = false, want true", block)
		}
		if info.IsSRGB {
			t.Errorf("Lookup(unorm block %+v).IsSRGB = true, want false", block)
		}
		if info.Block != block {
			t.Errorf("Lookup(unorm block %+v).Block = %+v, want %+v", block, info.Block, block)
		}
		if info.SizeCompat != vkabi.FormatR32g32b32a32Uint {
			t.Errorf("Lookup(unorm block %+v).SizeCompat = %v, want FormatR32g32b32a32Uint", block, info.SizeCompat)
		}

		srgbInfo, ok := Lookup(srgb)
		if !ok {
			t.Fatalf("Lookup(srgb block %d, %+v) not found", i, block)
		}
		if !srgbInfo.IsSRGB {
			t.Errorf("Lookup(srgb block %+v).IsSRGB = false, want true", block)
		}
	}
}

func TestIsEmulatedRejectsOrdinaryFormat(t *testing.T) {
	if IsEmulated(vkabi.FormatR8g8b8a8Unorm) {
		t.Error("IsEmulated(FormatR8g8b8a8Unorm) = true, want false")
	}
	if !IsEmulated(vkabi.FormatEtc2R8g8b8UnormBlock) {
		t.Error("IsEmulated(FormatEtc2R8g8b8UnormBlock) = false, want true")
	}
}

func TestValidateUsageRejectsColorAttachment(t *testing.T) {
	err := ValidateUsage(vkabi.ImageUsageColorAttachment, vkabi.ImageType2D)
	if err == nil {
		t.Fatal("ValidateUsage with ColorAttachment usage = nil error, want error")
	}
}

func TestValidateUsageRejects1D(t *testing.T) {
	err := ValidateUsage(vkabi.ImageUsageSampled, vkabi.ImageType1D)
	if err == nil {
		t.Fatal("ValidateUsage with ImageType1D = nil error, want error")
	}
}

func TestValidateUsageAcceptsSampled2D(t *testing.T) {
	err := ValidateUsage(vkabi.ImageUsageSampled|vkabi.ImageUsageTransferDst, vkabi.ImageType2D)
	if err != nil {
		t.Fatalf("ValidateUsage(Sampled|TransferDst, 2D) = %v, want nil", err)
	}
}
