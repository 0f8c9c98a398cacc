// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

//go:build !gpucc

package gpucompute

// hasCUDA and hasMetal report device availability. This build carries
// no CGO toolchain, so detection always comes back negative and
// DefaultConfig lands on BackendCPU.
func hasCUDA() bool  { return false }
func hasMetal() bool { return false }
