// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gpucompute

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/ligetron/zkvm/field"
)

// cpuExecutor runs every kernel on the host, chunking batches across
// goroutines the way the teacher's accelerator falls back to CPU: a
// worker per chunk, a WaitGroup barrier at the end of each batch call.
type cpuExecutor struct {
	threads int
}

func newCPUExecutor(threads int) *cpuExecutor {
	if threads < 1 {
		threads = 1
	}
	return &cpuExecutor{threads: threads}
}

func (c *cpuExecutor) Backend() Backend { return BackendCPU }

func (c *cpuExecutor) Synchronize() error { return nil }

func (c *cpuExecutor) BatchNTT(vectors [][]field.Element, inverse bool) ([][]field.Element, error) {
	out := make([][]field.Element, len(vectors))
	errs := make([]error, len(vectors))

	c.forEachChunk(len(vectors), func(i int) {
		row := vectors[i]
		d := field.NewDomain(len(row))
		if inverse {
			out[i] = d.Inverse(row)
		} else {
			out[i] = d.Forward(row)
		}
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *cpuExecutor) BatchSHA256(inputs [][]byte) ([][32]byte, error) {
	out := make([][32]byte, len(inputs))
	c.forEachChunk(len(inputs), func(i int) {
		out[i] = sha256.Sum256(inputs[i])
	})
	return out, nil
}

func (c *cpuExecutor) BatchModMul(a, b []field.Element) ([]field.Element, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("gpucompute: BatchModMul length mismatch: %d vs %d", len(a), len(b))
	}
	out := make([]field.Element, len(a))
	c.forEachChunk(len(a), func(i int) {
		out[i] = a[i].Mul(b[i])
	})
	return out, nil
}

// forEachChunk splits [0,n) into roughly c.threads chunks and runs fn
// over each index within a chunk, one goroutine per chunk.
func (c *cpuExecutor) forEachChunk(n int, fn func(i int)) {
	if n == 0 {
		return
	}
	workers := c.threads
	if workers > n {
		workers = n
	}
	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}
