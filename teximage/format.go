// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package teximage is the compressed-texture emulation pipeline
// (spec.md §4.9): for devices that cannot sample ETC2/ASTC natively, it
// describes a "size-compatible" shadow image per mip level, builds the
// compute pipelines that decompress into it, and rewrites copy regions
// between the compressed and shadow domains. The format table and the
// region-rewrite arithmetic are ported from gfxstream's
// CompressedImageInfo.cpp/.h (see SPEC_FULL.md supplemented features 3
// and 4), not invented: spec.md §4.9 describes the mechanism but leaves
// the concrete format table and exact arithmetic to the implementer.
package teximage

import "github.com/virtgpu/vkhost/vkabi"

// BlockExtent is the compressed block footprint in texels, width x
// height (compressed formats this module emulates are always 2D
// blocks; depth is always 1).
type BlockExtent struct {
	Width, Height uint32
}

// FormatInfo is one row of the emulated-format table: how a compressed
// VkFormat decompresses, and what size-compatible format its shadow
// image uses at identical per-block byte size (spec.md glossary
// "Size-compatible image").
type FormatInfo struct {
	Compressed    vkabi.Format
	Decompressed  vkabi.Format // the real image's format after CPU/compute decompression
	SizeCompat    vkabi.Format // the shadow image's format; same bytes-per-block as Compressed
	Block         BlockExtent
	IsASTC        bool
	IsSRGB        bool
	NeedsEmulatedAlpha bool // ETC2 RGB8 (no alpha channel) needs one synthesized opaque, spec.md §4.7/§4.9
}

// table is keyed by the compressed VkFormat. Every ETC2 RGB8/RGBA8/sRGB
// variant and all 14 ASTC block sizes (LDR and sRGB) are present, per
// SPEC_FULL.md's supplemented-feature note: spec.md's scenario 3 only
// walks through one example format, but a complete implementation must
// make every emulated format reachable, not just that one.
// Both shadow formats are 2D, non-array, non-sRGB storage-capable
// formats whose per-texel byte size matches one compressed block
// exactly: R16G16B16A16_UINT for ETC2's 8-byte blocks (RGB8, RGB8A1),
// R32G32B32A32_UINT for every 16-byte block (ETC2 RGBA8, every ASTC
// footprint) — ported from gfxstream's getSizeCompFormat.
var table = map[vkabi.Format]FormatInfo{
	vkabi.FormatEtc2R8g8b8UnormBlock: {
		Compressed: vkabi.FormatEtc2R8g8b8UnormBlock, Decompressed: vkabi.FormatR8g8b8a8Unorm,
		SizeCompat: vkabi.FormatR16g16b16a16Uint, Block: BlockExtent{4, 4}, NeedsEmulatedAlpha: true,
	},
	vkabi.FormatEtc2R8g8b8SrgbBlock: {
		Compressed: vkabi.FormatEtc2R8g8b8SrgbBlock, Decompressed: vkabi.FormatR8g8b8a8Unorm,
		SizeCompat: vkabi.FormatR16g16b16a16Uint, Block: BlockExtent{4, 4}, IsSRGB: true, NeedsEmulatedAlpha: true,
	},
	vkabi.FormatEtc2R8g8b8a1UnormBlock: {
		Compressed: vkabi.FormatEtc2R8g8b8a1UnormBlock, Decompressed: vkabi.FormatR8g8b8a8Unorm,
		SizeCompat: vkabi.FormatR16g16b16a16Uint, Block: BlockExtent{4, 4},
	},
	vkabi.FormatEtc2R8g8b8a1SrgbBlock: {
		Compressed: vkabi.FormatEtc2R8g8b8a1SrgbBlock, Decompressed: vkabi.FormatR8g8b8a8Unorm,
		SizeCompat: vkabi.FormatR16g16b16a16Uint, Block: BlockExtent{4, 4}, IsSRGB: true,
	},
	vkabi.FormatEtc2R8g8b8a8UnormBlock: {
		Compressed: vkabi.FormatEtc2R8g8b8a8UnormBlock, Decompressed: vkabi.FormatR8g8b8a8Unorm,
		SizeCompat: vkabi.FormatR32g32b32a32Uint, Block: BlockExtent{4, 4},
	},
	vkabi.FormatEtc2R8g8b8a8SrgbBlock: {
		Compressed: vkabi.FormatEtc2R8g8b8a8SrgbBlock, Decompressed: vkabi.FormatR8g8b8a8Unorm,
		SizeCompat: vkabi.FormatR32g32b32a32Uint, Block: BlockExtent{4, 4}, IsSRGB: true,
	},
}

// astcBlocks lists every ASTC block footprint the Vulkan core spec
// defines, in the fixed order the VK_FORMAT enum lays them out.
var astcBlocks = []BlockExtent{
	{4, 4}, {5, 4}, {5, 5}, {6, 5}, {6, 6}, {8, 5}, {8, 6}, {8, 8},
	{10, 5}, {10, 6}, {10, 8}, {10, 10}, {12, 10}, {12, 12},
}

func init() {
	// ASTC LDR + sRGB block formats: VK_FORMAT_ASTC_{block}_{UNORM,SRGB}_BLOCK
	// are laid out as consecutive (unorm, srgb) pairs per block size
	// starting at FormatAstc4x4UnormBlock.
	base := uint32(vkabi.FormatAstc4x4UnormBlock)
	for i, block := range astcBlocks {
		unorm := vkabi.Format(base + uint32(i)*2)
		srgb := vkabi.Format(base + uint32(i)*2 + 1)
		// Every ASTC block uses one RGBA32 (16-byte) size-compatible
		// shadow texel regardless of block footprint: ASTC is always
		// 128 bits per block, matching R32G32B32A32_UINT exactly.
		table[unorm] = FormatInfo{
			Compressed: unorm, Decompressed: vkabi.FormatR8g8b8a8Unorm,
			SizeCompat: vkabi.FormatR32g32b32a32Uint, Block: block, IsASTC: true,
		}
		table[srgb] = FormatInfo{
			Compressed: srgb, Decompressed: vkabi.FormatR8g8b8a8Unorm,
			SizeCompat: vkabi.FormatR32g32b32a32Uint, Block: block, IsASTC: true, IsSRGB: true,
		}
	}
}

// Lookup reports whether format is one this module emulates, and its
// FormatInfo if so.
func Lookup(format vkabi.Format) (FormatInfo, bool) {
	info, ok := table[format]
	return info, ok
}

// IsEmulated reports whether format requires compressed-texture
// emulation on a device that lacks native support for it.
func IsEmulated(format vkabi.Format) bool {
	_, ok := table[format]
	return ok
}

// unsupportedUsageError is the error ValidateUsage returns when an
// emulated-compressed image requests a usage/type combination the
// emulation cannot support (COLOR_ATTACHMENT usage or a 1D image);
// dispatch's CreateImage detour answers it with
// VK_ERROR_FORMAT_NOT_SUPPORTED.
type unsupportedUsageError struct {
	reason string
}

func (e *unsupportedUsageError) Error() string { return "teximage: " + e.reason }

// ValidateUsage enforces spec.md §8's boundary rule before any shadow
// image is created.
func ValidateUsage(usage vkabi.ImageUsageFlags, imageType vkabi.ImageType) error {
	if usage&vkabi.ImageUsageColorAttachment != 0 {
		return &unsupportedUsageError{reason: "emulated compressed format cannot be a color attachment"}
	}
	if imageType == vkabi.ImageType1D {
		return &unsupportedUsageError{reason: "emulated compressed format cannot be a 1D image"}
	}
	return nil
}
