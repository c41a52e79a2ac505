// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vkabi

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

// loader resolves Vulkan entry points without CGO, using goffi's dynamic
// library loading and libffi-backed call interfaces. This mirrors the
// three-stage vkGetInstanceProcAddr / vkGetDeviceProcAddr resolution every
// native Vulkan loader requires: global commands need a null instance,
// instance commands need the instance that created them, and device
// commands should be fetched through vkGetDeviceProcAddr to skip the
// loader's trampoline on drivers that support it directly.
type loader struct {
	lib                    unsafe.Pointer
	getInstanceProcAddr    unsafe.Pointer
	getDeviceProcAddr      unsafe.Pointer
	cifGetInstanceProcAddr types.CallInterface
	cifGetDeviceProcAddr   types.CallInterface
}

func libraryName() string {
	switch runtime.GOOS {
	case "windows":
		return "vulkan-1.dll"
	case "darwin":
		return "libvulkan.dylib"
	default:
		return "libvulkan.so.1"
	}
}

var (
	globalLoader   *loader
	globalLoaderMu sync.Mutex
)

// loadGlobal opens the native Vulkan library once per process and prepares
// the call interfaces used to resolve every other entry point on demand.
func loadGlobal() (*loader, error) {
	globalLoaderMu.Lock()
	defer globalLoaderMu.Unlock()

	if globalLoader != nil {
		return globalLoader, nil
	}

	lib, err := ffi.LoadLibrary(libraryName())
	if err != nil {
		return nil, fmt.Errorf("vkabi: load %s: %w", libraryName(), err)
	}

	getInstanceProcAddr, err := ffi.GetSymbol(lib, "vkGetInstanceProcAddr")
	if err != nil {
		return nil, fmt.Errorf("vkabi: vkGetInstanceProcAddr missing: %w", err)
	}

	l := &loader{lib: lib, getInstanceProcAddr: getInstanceProcAddr}

	if err := ffi.PrepareCallInterface(&l.cifGetInstanceProcAddr, types.DefaultCall,
		types.PointerTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor}); err != nil {
		return nil, fmt.Errorf("vkabi: prepare GetInstanceProcAddr: %w", err)
	}
	if err := ffi.PrepareCallInterface(&l.cifGetDeviceProcAddr, types.DefaultCall,
		types.PointerTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor}); err != nil {
		return nil, fmt.Errorf("vkabi: prepare GetDeviceProcAddr: %w", err)
	}

	globalLoader = l
	return l, nil
}

// resolveInstance looks up a loader-level or instance-level entry point.
// Pass an Instance(0) for commands that precede instance creation
// (vkCreateInstance, vkEnumerateInstanceVersion, ...).
func (l *loader) resolveInstance(instance Instance, name string) unsafe.Pointer {
	cname := append([]byte(name), 0)
	namePtr := unsafe.Pointer(&cname[0])
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&instance),
		unsafe.Pointer(&namePtr),
	}
	var result unsafe.Pointer
	_ = ffi.CallFunction(&l.cifGetInstanceProcAddr, l.getInstanceProcAddr, unsafe.Pointer(&result), args[:])
	return result
}

// resolveDevice looks up a device-level entry point via
// vkGetDeviceProcAddr. It returns nil when vkGetDeviceProcAddr has not
// been resolved or does not know name; LoadDevice then falls back to
// the instance-level resolver.
func (l *loader) resolveDevice(device Device, name string) unsafe.Pointer {
	if l.getDeviceProcAddr == nil {
		return nil
	}
	cname := append([]byte(name), 0)
	namePtr := unsafe.Pointer(&cname[0])
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&device),
		unsafe.Pointer(&namePtr),
	}
	var result unsafe.Pointer
	_ = ffi.CallFunction(&l.cifGetDeviceProcAddr, l.getDeviceProcAddr, unsafe.Pointer(&result), args[:])
	return result
}

// bindDeviceProcAddr resolves vkGetDeviceProcAddr itself, scoped to a
// live instance, once device-level dispatch is needed.
func (l *loader) bindDeviceProcAddr(instance Instance) {
	if l.getDeviceProcAddr == nil {
		l.getDeviceProcAddr = l.resolveInstance(instance, "vkGetDeviceProcAddr")
	}
}

func (l *loader) close() error {
	globalLoaderMu.Lock()
	defer globalLoaderMu.Unlock()
	if l.lib == nil {
		return nil
	}
	err := ffi.FreeLibrary(l.lib)
	l.lib = nil
	globalLoader = nil
	return err
}
