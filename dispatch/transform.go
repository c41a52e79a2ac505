// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dispatch

// strippedExtensions is the fixed list spec.md §4.6 names: extension
// names removed from vkCreateInstance/vkCreateDevice enabled-extension
// lists because this module emulates them above the driver rather than
// forwarding them (spec.md §4.6 "Extension filtering").
var strippedExtensions = map[string]bool{
	"VK_KHR_external_memory_capabilities": true,
	"VK_KHR_external_fence_capabilities":  true,
	"VK_KHR_external_semaphore_capabilities": true,
	"VK_ANDROID_native_buffer":             true,
}

// FilterExtensions removes strippedExtensions from requested, preserving
// order of the remainder.
func FilterExtensions(requested []string) []string {
	out := make([]string, 0, len(requested))
	for _, ext := range requested {
		if !strippedExtensions[ext] {
			out = append(out, ext)
		}
	}
	return out
}

// ForceDisabledFeatures is spec.md §4.6's "Forced feature fixups":
// private-data and protected-memory features are always forced off, and
// the sampler YCbCr conversion feature is cleared when this device
// emulates it rather than forwarding it to the driver.
type ForceDisabledFeatures struct {
	PrivateData       bool
	ProtectedMemory   bool
	SamplerYcbcrConversion bool
}

// ApplyFeatureFixups reports which of the guest-requested features must
// be forced off before the native vkCreateDevice call. emulateYcbcr is
// true when this module emulates YCbCr conversion itself.
func ApplyFeatureFixups(emulateYcbcr bool) ForceDisabledFeatures {
	return ForceDisabledFeatures{
		PrivateData:            true,
		ProtectedMemory:        true,
		SamplerYcbcrConversion: emulateYcbcr,
	}
}

// queueFamilyForeignExt, queueFamilyExternal and queueFamilyIgnored
// mirror VK_QUEUE_FAMILY_FOREIGN_EXT, VK_QUEUE_FAMILY_EXTERNAL and
// VK_QUEUE_FAMILY_IGNORED, the sentinel queue-family indices a
// barrier's ownership-transfer fields may carry.
const (
	queueFamilyForeignExt = 0xfffffffd
	queueFamilyExternal   = 0xfffffffe
	queueFamilyIgnored    = 0xffffffff
)

// TranslateQueueFamily rewrites VK_QUEUE_FAMILY_FOREIGN_EXT ownership in
// a barrier to VK_QUEUE_FAMILY_EXTERNAL for host compatibility (spec.md
// §4.6 "Queue-family translation") — drivers that do not implement the
// Android-specific FOREIGN_EXT extension still understand EXTERNAL.
func TranslateQueueFamily(family uint32) uint32 {
	if family == queueFamilyForeignExt {
		return queueFamilyExternal
	}
	return family
}

// resolvedFormat is the sRGB sub-format -> UNORM counterpart table used
// by ResolveColorBufferFormat (spec.md §4.6 "Format resolution").
var resolvedFormat = map[uint32]uint32{
	// VK_FORMAT_R8G8B8A8_SRGB -> VK_FORMAT_R8G8B8A8_UNORM
	43: 37,
	// VK_FORMAT_B8G8R8A8_SRGB -> VK_FORMAT_B8G8R8A8_UNORM
	50: 44,
}

// ResolveColorBufferFormat resolves an sRGB sub-format to its UNORM
// counterpart when the image is backed by a ColorBuffer, so the image's
// format matches the ColorBuffer's underlying (always-UNORM) storage
// (spec.md §4.6).
func ResolveColorBufferFormat(format uint32, boundToColorBuffer bool) uint32 {
	if !boundToColorBuffer {
		return format
	}
	if unorm, ok := resolvedFormat[format]; ok {
		return unorm
	}
	return format
}
