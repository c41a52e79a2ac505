// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package state

import (
	"testing"

	"github.com/virtgpu/vkhost/vkabi"
)

func TestResetKeepsInstanceAndPhysicalDeviceButClearsRest(t *testing.T) {
	tr := New()
	tr.CreateInstance(vkabi.Instance(1), nil, 1<<22)
	tr.CreatePhysicalDevice(vkabi.PhysicalDevice(1), vkabi.Instance(1), vkabi.PhysicalDeviceMemoryProperties{}, nil)
	tr.CreateDevice(vkabi.Device(1), vkabi.PhysicalDevice(1), nil, nil)
	tr.CreateBuffer(vkabi.Buffer(1), vkabi.Device(1), 1024, vkabi.BufferUsageTransferDst)

	tr.Reset()

	if _, ok := tr.Instance(vkabi.Instance(1)); !ok {
		t.Error("Instance record cleared by Reset, want kept")
	}
	if _, ok := tr.PhysicalDevice(vkabi.PhysicalDevice(1)); !ok {
		t.Error("PhysicalDevice record cleared by Reset, want kept")
	}
	if _, ok := tr.Device(vkabi.Device(1)); ok {
		t.Error("Device record survived Reset, want cleared")
	}
	if _, ok := tr.Buffer(vkabi.Buffer(1)); ok {
		t.Error("Buffer record survived Reset, want cleared")
	}
}

func TestBufferBindOnce(t *testing.T) {
	tr := New()
	tr.CreateBuffer(vkabi.Buffer(1), vkabi.Device(1), 256, vkabi.BufferUsageTransferSrc)

	if err := tr.BindBufferMemory(vkabi.Buffer(1), vkabi.DeviceMemory(9), 0); err != nil {
		t.Fatalf("first bind: %v", err)
	}
	if err := tr.BindBufferMemory(vkabi.Buffer(1), vkabi.DeviceMemory(9), 0); err != ErrAlreadyBound {
		t.Fatalf("second bind = %v, want ErrAlreadyBound", err)
	}

	rec, ok := tr.Buffer(vkabi.Buffer(1))
	if !ok || !rec.Bound || rec.BoundMemory != vkabi.DeviceMemory(9) {
		t.Fatalf("buffer record after bind = %+v", rec)
	}
}

func TestBufferBindUnknownHandle(t *testing.T) {
	tr := New()
	if err := tr.BindBufferMemory(vkabi.Buffer(404), vkabi.DeviceMemory(1), 0); err != ErrUnknownHandle {
		t.Fatalf("bind on unknown buffer = %v, want ErrUnknownHandle", err)
	}
}

func TestDestroyBufferRemovesRecord(t *testing.T) {
	tr := New()
	tr.CreateBuffer(vkabi.Buffer(1), vkabi.Device(1), 1, 0)
	tr.DestroyBuffer(vkabi.Buffer(1))
	if _, ok := tr.Buffer(vkabi.Buffer(1)); ok {
		t.Fatal("buffer record survived DestroyBuffer")
	}
}

func TestImageBindOnceAndShadow(t *testing.T) {
	tr := New()
	tr.CreateImage(vkabi.Image(1), vkabi.Device(1), vkabi.ImageCreateInfo{Format: vkabi.FormatEtc2R8g8b8UnormBlock})

	if err := tr.BindImageMemory(vkabi.Image(1), vkabi.DeviceMemory(2), 64); err != nil {
		t.Fatalf("BindImageMemory: %v", err)
	}
	if err := tr.BindImageMemory(vkabi.Image(1), vkabi.DeviceMemory(2), 64); err != ErrAlreadyBound {
		t.Fatalf("second bind = %v, want ErrAlreadyBound", err)
	}

	if err := tr.SetShadowImage(vkabi.Image(1), vkabi.FormatR16g16b16a16Uint, vkabi.Image(2)); err != nil {
		t.Fatalf("SetShadowImage: %v", err)
	}
	rec, ok := tr.Image(vkabi.Image(1))
	if !ok || rec.ShadowImage != vkabi.Image(2) || rec.ShadowFormat != vkabi.FormatR16g16b16a16Uint {
		t.Fatalf("image record after SetShadowImage = %+v", rec)
	}
}

func TestSetShadowImageUnknownHandle(t *testing.T) {
	tr := New()
	if err := tr.SetShadowImage(vkabi.Image(99), vkabi.FormatR16g16b16a16Uint, vkabi.Image(1)); err != ErrUnknownHandle {
		t.Fatalf("SetShadowImage on unknown image = %v, want ErrUnknownHandle", err)
	}
}

func TestImageViewAndSamplerLifecycle(t *testing.T) {
	tr := New()
	tr.CreateImage(vkabi.Image(1), vkabi.Device(1), vkabi.ImageCreateInfo{})
	tr.CreateImageView(vkabi.ImageView(1), vkabi.Image(1), vkabi.Device(1))

	view, ok := tr.ImageView(vkabi.ImageView(1))
	if !ok || view.Image != vkabi.Image(1) {
		t.Fatalf("ImageView lookup = %+v, %v", view, ok)
	}

	tr.DestroyImageView(vkabi.ImageView(1))
	if _, ok := tr.ImageView(vkabi.ImageView(1)); ok {
		t.Fatal("image view survived DestroyImageView")
	}

	tr.CreateSampler(vkabi.Sampler(1), vkabi.Device(1), true)
	s, ok := tr.Sampler(vkabi.Sampler(1))
	if !ok || !s.EmulatedOpaqueAlpha {
		t.Fatalf("Sampler record = %+v, %v", s, ok)
	}
	tr.DestroySampler(vkabi.Sampler(1))
	if _, ok := tr.Sampler(vkabi.Sampler(1)); ok {
		t.Fatal("sampler survived DestroySampler")
	}
}

func TestQueueRegistration(t *testing.T) {
	tr := New()
	tr.CreateQueue(vkabi.Queue(1), vkabi.Device(1), 2, 0)
	q, ok := tr.Queue(vkabi.Queue(1))
	if !ok || q.FamilyIndex != 2 || q.Device != vkabi.Device(1) {
		t.Fatalf("Queue record = %+v, %v", q, ok)
	}
}

func TestMemoryMapUnmapRoundTrip(t *testing.T) {
	tr := New()
	tr.CreateMemory(vkabi.DeviceMemory(1), vkabi.Device(1), 4096, 0)

	if err := tr.RecordMap(vkabi.DeviceMemory(1), nil, 0, 4096); err != nil {
		t.Fatalf("RecordMap: %v", err)
	}
	rec, _ := tr.Memory(vkabi.DeviceMemory(1))
	if rec.MappedSize != 4096 {
		t.Fatalf("MappedSize = %d, want 4096", rec.MappedSize)
	}

	if err := tr.RecordUnmap(vkabi.DeviceMemory(1)); err != nil {
		t.Fatalf("RecordUnmap: %v", err)
	}
	rec, _ = tr.Memory(vkabi.DeviceMemory(1))
	if rec.Mapped != nil || rec.MappedSize != 0 {
		t.Fatalf("record after unmap = %+v, want cleared", rec)
	}
}

func TestRecordMapUnknownHandle(t *testing.T) {
	tr := New()
	if err := tr.RecordMap(vkabi.DeviceMemory(7), nil, 0, 1); err != ErrUnknownHandle {
		t.Fatalf("RecordMap unknown = %v, want ErrUnknownHandle", err)
	}
	if err := tr.RecordUnmap(vkabi.DeviceMemory(7)); err != ErrUnknownHandle {
		t.Fatalf("RecordUnmap unknown = %v, want ErrUnknownHandle", err)
	}
}

func TestRecordDirectMapRevokesPriorOnSameGPA(t *testing.T) {
	tr := New()
	tr.CreateMemory(vkabi.DeviceMemory(1), vkabi.Device(1), 4096, 0)
	tr.CreateMemory(vkabi.DeviceMemory(2), vkabi.Device(1), 4096, 0)

	if _, had := tr.RecordDirectMap(vkabi.DeviceMemory(1), 0x8000); had {
		t.Fatal("first RecordDirectMap reported a prior mapping, want none")
	}

	revoked, had := tr.RecordDirectMap(vkabi.DeviceMemory(2), 0x8000)
	if !had || revoked != vkabi.DeviceMemory(1) {
		t.Fatalf("RecordDirectMap revoked = %v, had = %v, want (DeviceMemory(1), true)", revoked, had)
	}

	rec1, _ := tr.Memory(vkabi.DeviceMemory(1))
	if rec1.DirectMappedGPA != 0 {
		t.Fatalf("prior mapping's GPA = %d, want 0 (revoked)", rec1.DirectMappedGPA)
	}
	rec2, _ := tr.Memory(vkabi.DeviceMemory(2))
	if rec2.DirectMappedGPA != 0x8000 {
		t.Fatalf("new mapping's GPA = %d, want 0x8000", rec2.DirectMappedGPA)
	}
}

func TestTranslateMemoryTypePrefersLowestMatchingIndex(t *testing.T) {
	props := &vkabi.PhysicalDeviceMemoryProperties{
		MemoryTypeCount: 3,
		MemoryTypes: [32]vkabi.MemoryType{
			{PropertyFlags: vkabi.MemoryPropertyDeviceLocal},
			{PropertyFlags: vkabi.MemoryPropertyHostVisible | vkabi.MemoryPropertyHostCoherent},
			{PropertyFlags: vkabi.MemoryPropertyHostVisible | vkabi.MemoryPropertyHostCoherent},
		},
	}
	idx, err := TranslateMemoryType(props, 0b111, vkabi.MemoryPropertyHostVisible)
	if err != nil {
		t.Fatalf("TranslateMemoryType: %v", err)
	}
	if idx != 1 {
		t.Fatalf("idx = %d, want 1 (lowest matching)", idx)
	}
}

func TestTranslateMemoryTypeRespectsTypeBitsMask(t *testing.T) {
	props := &vkabi.PhysicalDeviceMemoryProperties{
		MemoryTypeCount: 2,
		MemoryTypes: [32]vkabi.MemoryType{
			{PropertyFlags: vkabi.MemoryPropertyHostVisible},
			{PropertyFlags: vkabi.MemoryPropertyHostVisible},
		},
	}
	// typeBits excludes index 0.
	idx, err := TranslateMemoryType(props, 0b10, vkabi.MemoryPropertyHostVisible)
	if err != nil {
		t.Fatalf("TranslateMemoryType: %v", err)
	}
	if idx != 1 {
		t.Fatalf("idx = %d, want 1", idx)
	}
}

func TestTranslateMemoryTypeNoMatch(t *testing.T) {
	props := &vkabi.PhysicalDeviceMemoryProperties{
		MemoryTypeCount: 1,
		MemoryTypes:     [32]vkabi.MemoryType{{PropertyFlags: vkabi.MemoryPropertyDeviceLocal}},
	}
	_, err := TranslateMemoryType(props, 0b1, vkabi.MemoryPropertyHostVisible)
	if err != ErrNoCompatibleMemoryType {
		t.Fatalf("err = %v, want ErrNoCompatibleMemoryType", err)
	}
}

func TestDescriptorSetWriteUpdateReplacesSameBindingElement(t *testing.T) {
	tr := New()
	tr.CreateDescriptorSetLayout(vkabi.DescriptorSetLayout(1), vkabi.Device(1), []DescriptorBinding{{Binding: 0, DescriptorType: 1, DescriptorCount: 1}})
	tr.CreateDescriptorPool(vkabi.DescriptorPool(1), vkabi.Device(1))
	tr.CreateDescriptorSet(vkabi.DescriptorSet(1), vkabi.DescriptorPool(1), vkabi.DescriptorSetLayout(1))

	err := tr.RecordDescriptorWrite(vkabi.DescriptorSet(1), DescriptorWrite{Binding: 0, ArrayElement: 0, Buffer: vkabi.Buffer(1)})
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	err = tr.RecordDescriptorWrite(vkabi.DescriptorSet(1), DescriptorWrite{Binding: 0, ArrayElement: 0, Buffer: vkabi.Buffer(2)})
	if err != nil {
		t.Fatalf("second write: %v", err)
	}

	set, ok := tr.DescriptorSet(vkabi.DescriptorSet(1))
	if !ok {
		t.Fatal("DescriptorSet lookup failed")
	}
	if len(set.Writes) != 1 {
		t.Fatalf("len(Writes) = %d, want 1 (same binding/element should replace, not append)", len(set.Writes))
	}
	if set.Writes[0].Buffer != vkabi.Buffer(2) {
		t.Fatalf("Writes[0].Buffer = %v, want Buffer(2)", set.Writes[0].Buffer)
	}
}

func TestDescriptorSetWriteDistinctElementsAppend(t *testing.T) {
	tr := New()
	tr.CreateDescriptorSet(vkabi.DescriptorSet(1), vkabi.DescriptorPool(1), vkabi.DescriptorSetLayout(1))

	_ = tr.RecordDescriptorWrite(vkabi.DescriptorSet(1), DescriptorWrite{Binding: 0, ArrayElement: 0})
	_ = tr.RecordDescriptorWrite(vkabi.DescriptorSet(1), DescriptorWrite{Binding: 0, ArrayElement: 1})

	set, _ := tr.DescriptorSet(vkabi.DescriptorSet(1))
	if len(set.Writes) != 2 {
		t.Fatalf("len(Writes) = %d, want 2 (distinct array elements)", len(set.Writes))
	}
}

func TestRecordDescriptorWriteUnknownSet(t *testing.T) {
	tr := New()
	if err := tr.RecordDescriptorWrite(vkabi.DescriptorSet(99), DescriptorWrite{}); err != ErrUnknownHandle {
		t.Fatalf("write on unknown set = %v, want ErrUnknownHandle", err)
	}
}

func TestDestroyDescriptorPoolFreesItsSets(t *testing.T) {
	tr := New()
	tr.CreateDescriptorPool(vkabi.DescriptorPool(1), vkabi.Device(1))
	tr.CreateDescriptorPool(vkabi.DescriptorPool(2), vkabi.Device(1))
	tr.CreateDescriptorSet(vkabi.DescriptorSet(1), vkabi.DescriptorPool(1), vkabi.DescriptorSetLayout(1))
	tr.CreateDescriptorSet(vkabi.DescriptorSet(2), vkabi.DescriptorPool(2), vkabi.DescriptorSetLayout(1))

	tr.DestroyDescriptorPool(vkabi.DescriptorPool(1))

	if _, ok := tr.DescriptorSet(vkabi.DescriptorSet(1)); ok {
		t.Error("set from destroyed pool survived")
	}
	if _, ok := tr.DescriptorSet(vkabi.DescriptorSet(2)); !ok {
		t.Error("set from the other pool was incorrectly removed")
	}
	if _, ok := tr.DescriptorPool(vkabi.DescriptorPool(1)); ok {
		t.Error("destroyed pool record still present")
	}
}

func TestFreeDescriptorSetRemovesOnlyThatSet(t *testing.T) {
	tr := New()
	tr.CreateDescriptorPool(vkabi.DescriptorPool(1), vkabi.Device(1))
	tr.CreateDescriptorSet(vkabi.DescriptorSet(1), vkabi.DescriptorPool(1), vkabi.DescriptorSetLayout(1))
	tr.CreateDescriptorSet(vkabi.DescriptorSet(2), vkabi.DescriptorPool(1), vkabi.DescriptorSetLayout(1))

	tr.FreeDescriptorSet(vkabi.DescriptorSet(1))

	if _, ok := tr.DescriptorSet(vkabi.DescriptorSet(1)); ok {
		t.Error("freed set still present")
	}
	if _, ok := tr.DescriptorSet(vkabi.DescriptorSet(2)); !ok {
		t.Error("unrelated set incorrectly removed")
	}
}
