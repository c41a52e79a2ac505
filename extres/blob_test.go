// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package extres

import "testing"

func TestRegistryBlobRoundTrip(t *testing.T) {
	r := NewRegistry()
	vulkan := &VulkanInfo{MemoryTypeIndex: 3}
	r.AddBlobDescriptor(1, 100, 0xcafe, HandleTypeDmaBuf, CacheModeCached, vulkan)

	got, err := r.Blob(1, 100)
	if err != nil {
		t.Fatalf("Blob: %v", err)
	}
	if got.Handle != 0xcafe || got.HandleType != HandleTypeDmaBuf || got.Cache != CacheModeCached {
		t.Fatalf("Blob descriptor = %+v", got)
	}
	if got.Vulkan == nil || got.Vulkan.MemoryTypeIndex != 3 {
		t.Fatalf("Blob.Vulkan = %+v, want MemoryTypeIndex 3", got.Vulkan)
	}
}

func TestRegistryBlobNotFound(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Blob(1, 999); err != ErrBlobNotFound {
		t.Fatalf("Blob on unregistered ctx = %v, want ErrBlobNotFound", err)
	}

	r.AddBlobDescriptor(1, 100, 0, 0, 0, nil)
	if _, err := r.Blob(1, 999); err != ErrBlobNotFound {
		t.Fatalf("Blob on unknown blob id = %v, want ErrBlobNotFound", err)
	}
}

func TestRegistryBlobScopedByContext(t *testing.T) {
	r := NewRegistry()
	r.AddBlobDescriptor(1, 100, 0xaaaa, HandleTypeOpaqueFd, CacheModeUncached, nil)

	if _, err := r.Blob(2, 100); err != ErrBlobNotFound {
		t.Fatalf("Blob with wrong ctx = %v, want ErrBlobNotFound (blobs are per-context)", err)
	}
}

func TestRegistryRemoveBlobDescriptor(t *testing.T) {
	r := NewRegistry()
	r.AddBlobDescriptor(1, 100, 0x1, HandleTypeOpaqueFd, CacheModeUncached, nil)

	removed, ok := r.RemoveBlobDescriptor(1, 100)
	if !ok || removed.Blob != 100 {
		t.Fatalf("RemoveBlobDescriptor = %+v, %v", removed, ok)
	}

	if _, err := r.Blob(1, 100); err != ErrBlobNotFound {
		t.Fatal("blob still present after RemoveBlobDescriptor")
	}
}

func TestRegistryRemoveBlobDescriptorUnknown(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.RemoveBlobDescriptor(1, 100); ok {
		t.Fatal("RemoveBlobDescriptor on unregistered ctx reported ok=true")
	}
	r.AddBlobDescriptor(1, 50, 0, 0, 0, nil)
	if _, ok := r.RemoveBlobDescriptor(1, 999); ok {
		t.Fatal("RemoveBlobDescriptor on unknown blob reported ok=true")
	}
}

func TestInferCacheMode(t *testing.T) {
	cases := []struct {
		visible, cached, coherent bool
		want                      CacheMode
	}{
		{false, false, false, CacheModeUncached},
		{true, true, false, CacheModeCached},
		{true, true, true, CacheModeCached}, // cached wins over coherent
		{true, false, true, CacheModeWriteCombine},
		{true, false, false, CacheModeUncached},
	}
	for _, c := range cases {
		if got := InferCacheMode(c.visible, c.cached, c.coherent); got != c.want {
			t.Errorf("InferCacheMode(%v,%v,%v) = %v, want %v", c.visible, c.cached, c.coherent, got, c.want)
		}
	}
}

func TestNextHandleTypePrefersDmaBuf(t *testing.T) {
	got, err := NextHandleType(HandleTypeOpaqueFd | HandleTypeDmaBuf)
	if err != nil {
		t.Fatalf("NextHandleType: %v", err)
	}
	if got != HandleTypeDmaBuf {
		t.Fatalf("NextHandleType = %v, want HandleTypeDmaBuf (preferred)", got)
	}
}

func TestNextHandleTypeFallsBackInOrder(t *testing.T) {
	got, err := NextHandleType(HandleTypeOpaqueWin32 | HandleTypeMachPort)
	if err != nil {
		t.Fatalf("NextHandleType: %v", err)
	}
	if got != HandleTypeOpaqueWin32 {
		t.Fatalf("NextHandleType = %v, want HandleTypeOpaqueWin32 (earlier in preference order)", got)
	}
}

func TestNextHandleTypeNoneSupported(t *testing.T) {
	_, err := NextHandleType(HandleTypeAndroidHardwareBuffer)
	if err == nil {
		t.Fatal("NextHandleType with only an unrecognized bit set = nil error, want error")
	}
}

func TestNoopColorBufferManagerReportsAbsent(t *testing.T) {
	var m ColorBufferManager = NoopColorBufferManager{}

	if _, ok := m.GetAllocationInfo(1); ok {
		t.Error("NoopColorBufferManager.GetAllocationInfo reported ok=true")
	}
	if _, _, ok := m.GetExternalMemoryHandle(1); ok {
		t.Error("NoopColorBufferManager.GetExternalMemoryHandle reported ok=true")
	}
	if _, ok := m.GetImage(1); ok {
		t.Error("NoopColorBufferManager.GetImage reported ok=true")
	}
	// Must not panic.
	m.Invalidate(1)
	m.Flush(1)
	m.SetCurrentLayout(1, 2)
	m.SetLatestUse(1, nil)
}
