// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gpucompute is the opaque compute collaborator behind batched
// NTT, SHA-256, and big-integer modular-multiply kernels. Callers never
// see which backend actually ran a batch; they see an Executor and a
// Synchronize barrier, mirroring the teacher's GPU-acceleration split
// between a thin accelerator facade and swappable backends underneath.
package gpucompute

import "github.com/ligetron/zkvm/field"

// Executor runs batched kernels used by the encoding and commitment
// pipeline. Every method is synchronous from the caller's point of
// view: kernel launches on a given Executor are ordered, and
// Synchronize is a full barrier against everything launched so far.
type Executor interface {
	// BatchNTT runs a forward or inverse transform over every row in
	// vectors, each row independently, returning transformed rows in
	// the same order.
	BatchNTT(vectors [][]field.Element, inverse bool) ([][]field.Element, error)

	// BatchSHA256 hashes each input independently, returning digests
	// in the same order.
	BatchSHA256(inputs [][]byte) ([][32]byte, error)

	// BatchModMul multiplies a[i] by b[i] for every index, mod the
	// field's modulus. len(a) must equal len(b).
	BatchModMul(a, b []field.Element) ([]field.Element, error)

	// Backend names which concrete backend is answering calls.
	Backend() Backend

	// Synchronize blocks until every kernel launched on this Executor
	// so far has completed. The CPU backend is already synchronous, so
	// this is a no-op there; a device backend would block on its
	// command queue here.
	Synchronize() error
}
