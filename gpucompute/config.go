// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gpucompute

import "runtime"

// Backend identifies which concrete kernel implementation an Executor
// is backed by.
type Backend int

const (
	BackendCPU Backend = iota
	BackendCUDA
	BackendMetal
)

func (b Backend) String() string {
	switch b {
	case BackendCUDA:
		return "cuda"
	case BackendMetal:
		return "metal"
	default:
		return "cpu"
	}
}

// Config controls backend selection and the batch-size threshold below
// which a device backend isn't worth the dispatch overhead and the CPU
// path runs instead.
type Config struct {
	Backend        Backend
	BatchThreshold int
	Threads        int
}

// DefaultConfig auto-detects a backend the way this build was compiled
// for, the same GOOS-keyed heuristic the teacher's accelerator uses;
// without the gpucc build tag no device backend is actually wired, so
// detection always lands on BackendCPU here.
func DefaultConfig() Config {
	return Config{
		Backend:        detectBackend(),
		BatchThreshold: 64,
		Threads:        runtime.NumCPU(),
	}
}

func detectBackend() Backend {
	switch runtime.GOOS {
	case "darwin":
		if hasMetal() {
			return BackendMetal
		}
	default:
		if hasCUDA() {
			return BackendCUDA
		}
	}
	return BackendCPU
}
