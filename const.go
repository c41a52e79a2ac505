// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vkhost

import "time"

// GraceWindow is the timeout shared by host_sync's wait-for-sequence
// loop (spec.md §4.2) and the device-op tracker's pending-garbage
// staleness check (spec.md §4.3, supplemented from
// DeviceOpTracker.cpp's garbage timestamp). Both the original decoder
// and this module use the same five-second figure, so one constant
// covers both rather than two independently-chosen durations drifting
// apart over time.
const GraceWindow = 5 * time.Second
