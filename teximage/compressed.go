// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package teximage

import "github.com/virtgpu/vkhost/vkabi"

// MipShadow is one size-compatible shadow image, one per mip level of
// the real compressed image (spec.md §3 CompressedImageInfo: "ownership
// of shadow size-compatible images (one per mip) and their views").
type MipShadow struct {
	Level      uint32
	Image      vkabi.Image
	View       vkabi.ImageView
	Width      uint32 // block-count width of this mip
	Height     uint32 // block-count height of this mip
	Depth      uint32 // layer count (2D array) or volume depth (3D)
	MemoryOffset uint64 // offset into the shared allocation this mip is bound at
}

// CompressedImageInfo is the per-image record the compressed-texture
// emulation pipeline attaches to a real Image record when its format is
// emulated (spec.md §3, §4.9).
type CompressedImageInfo struct {
	Info FormatInfo

	RealWidth, RealHeight, RealDepth uint32
	MipLevels, ArrayLayers           uint32
	ImageType                        vkabi.ImageType

	Mips []MipShadow

	// Pipeline/layout/descriptor-pool/sets used to decompress, keyed by
	// (format, image type) and shared across every image of that kind
	// via Manager, not owned per-image; kept here only as the handles
	// this image's descriptor sets were allocated against.
	DescriptorSets []vkabi.DescriptorSet

	// CPUDecode is set when ASTC-on-CPU mode is enabled for the owning
	// device and the source of a copy is a host-visible buffer (spec.md
	// §4.9 "Optional ASTC-on-CPU mode").
	CPUDecode bool
}

// blockCount returns ceil(dim / block), the size-compatible shadow
// mip's extent in that dimension.
func blockCount(dim, block uint32) uint32 {
	if block == 0 {
		return dim
	}
	return (dim + block - 1) / block
}

// NewCompressedImageInfo computes the block-count extents of every mip
// level for a freshly created emulated-compressed image. Mip mX's
// extent is max(1, realExtent >> x), then converted to block-count units
// — the same halving-then-rounding-up Vulkan itself uses for mip chains.
func NewCompressedImageInfo(info FormatInfo, create vkabi.ImageCreateInfo) *CompressedImageInfo {
	c := &CompressedImageInfo{
		Info: info, RealWidth: create.Width, RealHeight: create.Height, RealDepth: create.Depth,
		MipLevels: create.MipLevels, ArrayLayers: create.ArrayLayers, ImageType: create.ImageType,
	}
	depth := create.Depth
	if depth == 0 {
		depth = 1
	}
	for level := uint32(0); level < create.MipLevels; level++ {
		w := mipDim(create.Width, level)
		h := mipDim(create.Height, level)
		d := uint32(1)
		if create.ImageType == vkabi.ImageType3D {
			d = mipDim(depth, level)
		} else {
			d = create.ArrayLayers
		}
		c.Mips = append(c.Mips, MipShadow{
			Level:  level,
			Width:  blockCount(w, info.Block.Width),
			Height: blockCount(h, info.Block.Height),
			Depth:  d,
		})
	}
	return c
}

func mipDim(dim, level uint32) uint32 {
	d := dim >> level
	if d == 0 {
		d = 1
	}
	return d
}

// AssignOffsets computes each mip's offset into the single allocation
// that will back every shadow image, respecting the driver-reported
// alignment for that mip's memory requirements (spec.md §3's invariant:
// "shadow images bind into the same device memory as the real
// decompressed image at distinct offsets computed with alignment
// padding").
func (c *CompressedImageInfo) AssignOffsets(sizes []uint64, alignments []uint64) uint64 {
	var offset uint64
	for i := range c.Mips {
		align := alignments[i]
		if align > 0 && offset%align != 0 {
			offset += align - offset%align
		}
		c.Mips[i].MemoryOffset = offset
		offset += sizes[i]
	}
	return offset
}

// Offset3D mirrors VkOffset3D.
type Offset3D struct{ X, Y, Z int32 }

// Extent3D mirrors VkExtent3D.
type Extent3D struct{ Width, Height, Depth uint32 }

// BufferImageCopy mirrors the subset of VkBufferImageCopy /
// VkImageCopy this module rewrites: an image-side offset/extent/mip at
// a given layer.
type BufferImageCopy struct {
	BufferOffset uint64
	MipLevel     uint32
	BaseLayer    uint32
	LayerCount   uint32
	ImageOffset  Offset3D
	ImageExtent  Extent3D
}

// RewriteToShadow converts one copy region from the compressed image's
// domain into its size-compatible shadow's domain: divide offset and
// extent by the block size, force the mip level to 0 (every shadow mip
// is materialized as a separate image, so "mip 0 of shadow mip N" is
// the whole shadow image for that N) — ported directly from
// CompressedImageInfo::getSizeCompImageCopy (SPEC_FULL.md supplemented
// feature 3; see spec.md §8 scenario 3 for the worked example this
// produces).
func (c *CompressedImageInfo) RewriteToShadow(region BufferImageCopy) BufferImageCopy {
	bw, bh := c.Info.Block.Width, c.Info.Block.Height
	out := region
	out.MipLevel = 0
	out.ImageOffset = Offset3D{
		X: region.ImageOffset.X / int32(bw),
		Y: region.ImageOffset.Y / int32(bh),
		Z: region.ImageOffset.Z,
	}
	out.ImageExtent = Extent3D{
		Width:  blockCount(region.ImageExtent.Width, bw),
		Height: blockCount(region.ImageExtent.Height, bh),
		Depth:  region.ImageExtent.Depth,
	}
	return out
}

// ShadowImageFor returns the shadow image bound at mip level, for
// dispatch to redirect an image view or a copy's destination image at.
func (c *CompressedImageInfo) ShadowImageFor(level uint32) (vkabi.Image, bool) {
	if int(level) >= len(c.Mips) {
		return 0, false
	}
	return c.Mips[level].Image, true
}
