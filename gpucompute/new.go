// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gpucompute

// New builds the Executor this binary was compiled for. Without the
// gpucc build tag no device backend exists, so New always hands back a
// CPU executor built from cfg.Threads; cfg.Backend and
// cfg.BatchThreshold are not consulted, and Backend() on the result
// always reports BackendCPU.
func New(cfg Config) Executor {
	return newCPUExecutor(cfg.Threads)
}

var global Executor

// Global returns the process-wide default Executor, built from
// DefaultConfig on first use. The prover's transcript sinks use this to
// get a batched compute path without threading one through call chains, the same
// singleton-with-override shape as the teacher's accelerator.
func Global() Executor {
	if global == nil {
		global = New(DefaultConfig())
	}
	return global
}

// SetGlobal overrides the process-wide Executor, for tests that want
// to inject a fake or a differently-configured instance.
func SetGlobal(e Executor) {
	global = e
}
