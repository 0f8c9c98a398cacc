// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

//go:build gpucc

package gpucompute

// hasCUDA and hasMetal would probe for a native device at process
// start under a real CGO-enabled build. No native backend ships here;
// detection still reports negative so a gpucc build degrades to the
// CPU executor instead of handing out a device stub that can't run.
func hasCUDA() bool  { return false }
func hasMetal() bool { return false }
