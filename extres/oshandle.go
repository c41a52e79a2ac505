// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package extres

import (
	"fmt"
	"runtime"
)

// DupHandle duplicates an OS-native external-memory handle so this
// module and the guest-facing blob registry can each close their own
// copy independently (spec.md §5's "the tracker does not close those
// handles on its own schedule"). On Linux/Android this duplicates a
// POSIX fd (opaque fd or dma-buf); on Windows it duplicates a Win32
// HANDLE into the current process.
func DupHandle(handle uintptr, handleType HandleType) (uintptr, error) {
	switch handleType {
	case HandleTypeOpaqueFd, HandleTypeDmaBuf:
		return dupFd(handle)
	case HandleTypeOpaqueWin32:
		return dupWin32Handle(handle)
	default:
		return handle, nil
	}
}

// CloseHandle releases a duplicated OS-native handle once the external-
// object manager reports the last mapping referencing it has gone away
// (spec.md §5 "registers them with the external-object manager, which
// closes them when the last mapping is released").
func CloseHandle(handle uintptr, handleType HandleType) error {
	switch handleType {
	case HandleTypeOpaqueFd, HandleTypeDmaBuf:
		return closeFd(handle)
	case HandleTypeOpaqueWin32:
		return closeWin32Handle(handle)
	default:
		return nil
	}
}

func unsupportedPlatform(op string) error {
	return fmt.Errorf("extres: %s unsupported on %s", op, runtime.GOOS)
}
