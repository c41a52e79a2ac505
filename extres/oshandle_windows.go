// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build windows

package extres

import "golang.org/x/sys/windows"

func dupWin32Handle(handle uintptr) (uintptr, error) {
	proc := windows.CurrentProcess()
	var dup windows.Handle
	err := windows.DuplicateHandle(proc, windows.Handle(handle), proc, &dup, 0, false, windows.DUPLICATE_SAME_ACCESS)
	if err != nil {
		return 0, err
	}
	return uintptr(dup), nil
}

func closeWin32Handle(handle uintptr) error {
	return windows.CloseHandle(windows.Handle(handle))
}

func dupFd(handle uintptr) (uintptr, error) {
	return 0, unsupportedPlatform("dupFd")
}

func closeFd(handle uintptr) error {
	return unsupportedPlatform("closeFd")
}
