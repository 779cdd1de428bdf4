// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
)

// Backend name constants.
const (
	// BackendWGPU is the name of the GPU backend built on gogpu/wgpu hal.
	BackendWGPU = "wgpu"
	// BackendSoftware is the name of the CPU backend built on x/image.
	BackendSoftware = "software"
	// BackendNull is the name of the backend that draws nothing.
	BackendNull = "null"
)

// ErrBackendNotAvailable is returned when a requested backend is not
// registered or cannot be constructed.
var ErrBackendNotAvailable = errors.New("backend: not available")
