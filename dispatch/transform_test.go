// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dispatch

import (
	"reflect"
	"testing"
)

func TestFilterExtensionsStripsKnownAndPreservesOrder(t *testing.T) {
	in := []string{"VK_KHR_swapchain", "VK_KHR_external_memory_capabilities", "VK_EXT_debug_utils", "VK_ANDROID_native_buffer"}
	want := []string{"VK_KHR_swapchain", "VK_EXT_debug_utils"}

	got := FilterExtensions(in)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FilterExtensions(%v) = %v, want %v", in, got, want)
	}
}

func TestFilterExtensionsEmptyInput(t *testing.T) {
	got := FilterExtensions(nil)
	if len(got) != 0 {
		t.Fatalf("FilterExtensions(nil) = %v, want empty", got)
	}
}

func TestFilterExtensionsNoneStripped(t *testing.T) {
	in := []string{"VK_KHR_swapchain", "VK_KHR_maintenance1"}
	got := FilterExtensions(in)
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("FilterExtensions(%v) = %v, want unchanged", in, got)
	}
}

func TestApplyFeatureFixupsForcesPrivateDataAndProtectedMemoryOff(t *testing.T) {
	f := ApplyFeatureFixups(false)
	if !f.PrivateData || !f.ProtectedMemory {
		t.Fatalf("ApplyFeatureFixups(false) = %+v, want PrivateData/ProtectedMemory forced true", f)
	}
	if f.SamplerYcbcrConversion {
		t.Fatalf("ApplyFeatureFixups(false).SamplerYcbcrConversion = true, want false")
	}
}

func TestApplyFeatureFixupsYcbcrEmulated(t *testing.T) {
	f := ApplyFeatureFixups(true)
	if !f.SamplerYcbcrConversion {
		t.Fatal("ApplyFeatureFixups(true).SamplerYcbcrConversion = false, want true when emulating")
	}
}

func TestTranslateQueueFamilyRewritesForeignExt(t *testing.T) {
	if got := TranslateQueueFamily(0xfffffffd); got != 0xfffffffe {
		t.Fatalf("TranslateQueueFamily(FOREIGN_EXT) = %#x, want VK_QUEUE_FAMILY_EXTERNAL", got)
	}
}

func TestTranslateQueueFamilyPassesThroughOthers(t *testing.T) {
	cases := []uint32{0, 1, 2, 0xffffffff, 0xfffffffe}
	for _, c := range cases {
		if got := TranslateQueueFamily(c); got != c {
			t.Errorf("TranslateQueueFamily(%#x) = %#x, want unchanged", c, got)
		}
	}
}

func TestResolveColorBufferFormatNotBound(t *testing.T) {
	if got := ResolveColorBufferFormat(43, false); got != 43 {
		t.Fatalf("ResolveColorBufferFormat(sRGB, unbound) = %d, want unchanged 43", got)
	}
}

func TestResolveColorBufferFormatBoundResolvesSRGB(t *testing.T) {
	if got := ResolveColorBufferFormat(43, true); got != 37 {
		t.Fatalf("ResolveColorBufferFormat(R8G8B8A8_SRGB, bound) = %d, want 37 (UNORM)", got)
	}
	if got := ResolveColorBufferFormat(50, true); got != 44 {
		t.Fatalf("ResolveColorBufferFormat(B8G8R8A8_SRGB, bound) = %d, want 44 (UNORM)", got)
	}
}

func TestResolveColorBufferFormatBoundNonSRGBUnchanged(t *testing.T) {
	if got := ResolveColorBufferFormat(37, true); got != 37 {
		t.Fatalf("ResolveColorBufferFormat(already-UNORM, bound) = %d, want unchanged 37", got)
	}
}
