// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux || darwin

package extres

import "golang.org/x/sys/unix"

func dupFd(handle uintptr) (uintptr, error) {
	fd, err := unix.Dup(int(handle))
	if err != nil {
		return 0, err
	}
	return uintptr(fd), nil
}

func closeFd(handle uintptr) error {
	return unix.Close(int(handle))
}

func dupWin32Handle(handle uintptr) (uintptr, error) {
	return 0, unsupportedPlatform("dupWin32Handle")
}

func closeWin32Handle(handle uintptr) error {
	return unsupportedPlatform("closeWin32Handle")
}
