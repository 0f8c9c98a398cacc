// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prove

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/ligetron/zkvm/archive"
	"github.com/ligetron/zkvm/config"
	"github.com/ligetron/zkvm/decode"
	"github.com/ligetron/zkvm/field"
	"github.com/ligetron/zkvm/witness"
	luxlog "github.com/luxfi/log"
)

// entryPoint is the export the CLI invokes for every stage run; guest
// modules built against this ABI are expected to name their argv-taking
// entry point "main".
const entryPoint = "main"

// runStage1 runs mod to completion against a Merkle-commit sink and
// returns the resulting tree alongside that merkle sink.
func runStage1(mod *decode.Module, enc *field.Encoder, packing int, seed [32]byte, argv []uint64, log luxlog.Logger) (*merkleTree, *merkleSink, error) {
	rowSize, sampleSize := rowSizing(packing)
	sink := newMerkleSink(enc)
	manager := witness.New(sink, rowSize, sampleSize, seed, witness.Policy{LinearCheck: true, QuadraticCheck: true})
	ctx, err := newContext(mod, manager, 0)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("stage1: running guest program")
	if _, err := ctx.RunExport(entryPoint, argv); err != nil {
		return nil, nil, fmt.Errorf("prove: stage1: %w", err)
	}
	tree, err := sink.finalize()
	if err != nil {
		return nil, nil, fmt.Errorf("prove: stage1: %w", err)
	}
	log.Info("stage1: committed", "root", fmt.Sprintf("%x", tree.Root()))
	return tree, sink, nil
}

// stage2Result carries Stage 2's three aggregate codewords and their
// derived seed.
type stage2Result struct {
	codeAgg, linearAgg, quadraticAgg []field.Element
	seed                             [32]byte
}

func runStage2(mod *decode.Module, enc *field.Encoder, packing int, seed [32]byte, argv []uint64, log luxlog.Logger) (*stage2Result, error) {
	rowSize, sampleSize := rowSizing(packing)
	sink := newReduceSink(enc, seed)
	manager := witness.New(sink, rowSize, sampleSize, seed, witness.Policy{LinearCheck: true, QuadraticCheck: true})
	ctx, err := newContext(mod, manager, 0)
	if err != nil {
		return nil, err
	}
	log.Debug("stage2: running guest program")
	if _, err := ctx.RunExport(entryPoint, argv); err != nil {
		return nil, fmt.Errorf("prove: stage2: %w", err)
	}
	stage2Seed := hashAggregates(sink.codeAgg, sink.linearAgg, sink.quadraticAgg)
	log.Info("stage2: aggregates reduced", "seed", fmt.Sprintf("%x", stage2Seed))
	return &stage2Result{
		codeAgg:      sink.codeAgg,
		linearAgg:    sink.linearAgg,
		quadraticAgg: sink.quadraticAgg,
		seed:         stage2Seed,
	}, nil
}

// hashAggregates derives the Stage 2 seed by hashing the three aggregate
// codewords' canonical byte encoding, in code/linear/quadratic order.
func hashAggregates(code, linear, quadratic []field.Element) [32]byte {
	h := sha256.New()
	for _, row := range [][]field.Element{code, linear, quadratic} {
		for _, e := range row {
			b := e.Bytes()
			h.Write(b[:])
		}
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// sampleIndices derives sample_size distinct column indices in [0, n)
// from the Stage 2 seed, via a seeded PRNG stream over the same field
// engine the witness manager uses elsewhere. Each draw takes the low 32
// bits of the element's big-endian byte form and reduces them modulo n;
// a draw that repeats an index already chosen is discarded.
func sampleIndices(stage2Seed [32]byte, n, sampleSize int) []int {
	eng := field.NewEngine(stage2Seed, "sample-indices")
	seen := make(map[int]bool, sampleSize)
	out := make([]int, 0, sampleSize)
	for len(out) < sampleSize && len(out) < n {
		v := eng.Next()
		b := v.Bytes()
		idx := int(uint32(b[28])<<24|uint32(b[29])<<16|uint32(b[30])<<8|uint32(b[31])) % n
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return out
}

func runStage3(mod *decode.Module, enc *field.Encoder, packing int, seed [32]byte, argv []uint64, indices []int, log luxlog.Logger) (*sampleSink, error) {
	rowSize, sampleSize := rowSizing(packing)
	sink := newSampleSink(enc, indices)
	manager := witness.New(sink, rowSize, sampleSize, seed, witness.Policy{LinearCheck: true, QuadraticCheck: true})
	ctx, err := newContext(mod, manager, 0)
	if err != nil {
		return nil, err
	}
	log.Debug("stage3: running guest program")
	if _, err := ctx.RunExport(entryPoint, argv); err != nil {
		return nil, fmt.Errorf("prove: stage3: %w", err)
	}
	return sink, nil
}

// stage1Leaves recovers the Stage 1 per-column leaf digests needed to
// build the Merkle decommit; it recomputes them from the same
// merkleSink the caller already built once, rather than threading
// extra state out of runStage1.
func stage1Leaves(sink *merkleSink) ([][32]byte, error) {
	return sink.leaves()
}

// Prove runs all three stages over mod under cfg and assembles the
// resulting proof archive.
func Prove(mod *decode.Module, cfg *config.Config, seed [32]byte, log luxlog.Logger) (*archive.Archive, error) {
	if log == nil {
		log = luxlog.NewTestLogger(luxlog.InfoLevel)
	}
	enc := newEncoder(cfg.Packing)
	argv, err := loadArgv(cfg)
	if err != nil {
		return nil, fmt.Errorf("prove: %w", err)
	}
	_, sampleSize := rowSizing(cfg.Packing)

	tree, sink1, err := runStage1(mod, enc, cfg.Packing, seed, argv, log)
	if err != nil {
		return nil, err
	}
	root := tree.Root()

	stage2, err := runStage2(mod, enc, cfg.Packing, seed, argv, log)
	if err != nil {
		return nil, err
	}

	indices := sampleIndices(stage2.seed, enc.N.Size(), sampleSize)
	sink3, err := runStage3(mod, enc, cfg.Packing, seed, argv, indices, log)
	if err != nil {
		return nil, err
	}

	leaves, err := stage1Leaves(sink1)
	if err != nil {
		return nil, fmt.Errorf("prove: %w", err)
	}
	paths := make([][][32]byte, len(indices))
	revealedLeaves := make([][32]byte, len(indices))
	for i, idx := range indices {
		paths[i] = tree.Path(idx)
		revealedLeaves[i] = leaves[idx]
	}

	arc := &archive.Archive{
		Root:               root,
		Seed:               stage2.seed,
		CodeAggregate:      stage2.codeAgg,
		LinearAggregate:    stage2.linearAgg,
		QuadraticAggregate: stage2.quadraticAgg,
		Decommit: archive.MerkleDecommit{
			Indices: indices,
			Paths:   paths,
			Leaves:  revealedLeaves,
		},
		Columns: sink3.columns,
	}
	log.Info("prove: archive assembled", "root", fmt.Sprintf("%x", root), "samples", len(indices))
	return arc, nil
}

// decodeZeroTailAndSum inverse-transforms an aggregate codeword of
// length n = 4k back to its k message coefficients: the remaining n-k
// coefficients must be exactly zero for the aggregate to be a valid
// low-degree Reed-Solomon codeword ("zero tail"), and the k message
// coefficients must sum to zero, since the manager's mask construction
// folds each test's running constant into the mask row specifically so
// an honest aggregate always nets to zero ("sums to recorded constant"
// becomes "sums to zero" once the constant itself is absorbed into the
// codeword this way).
func decodeZeroTailAndSum(codeword []field.Element) error {
	n := len(codeword)
	if n == 0 || n%4 != 0 {
		return fmt.Errorf("aggregate length %d is not a positive multiple of 4", n)
	}
	k := n / 4
	domain := field.NewDomain(n)
	coeffs := domain.Inverse(codeword)

	var sum field.Element
	for i := 0; i < k; i++ {
		sum = sum.Add(coeffs[i])
	}
	if !sum.IsZero() {
		return fmt.Errorf("message coefficients do not sum to zero")
	}
	for i := k; i < n; i++ {
		if !coeffs[i].IsZero() {
			return fmt.Errorf("non-zero coefficient at degree %d exceeds the row's code rate", i)
		}
	}
	return nil
}

// Verify checks arc on its own data: each decommitted leaf's Merkle path
// against Root, the Stage 2 seed against a hash of the three aggregates,
// and decodeZeroTailAndSum on each aggregate. It does not read
// arc.Columns, does not recompute leaves from sampled columns, and does
// not re-derive the sample indices from the seed.
func Verify(arc *archive.Archive, log luxlog.Logger) error {
	if log == nil {
		log = luxlog.NewTestLogger(luxlog.InfoLevel)
	}
	for i, idx := range arc.Decommit.Indices {
		if i >= len(arc.Decommit.Leaves) || i >= len(arc.Decommit.Paths) {
			return fmt.Errorf("prove: verify: decommit table shorter than index list")
		}
		if !verifyMerklePath(arc.Root, idx, arc.Decommit.Leaves[i], arc.Decommit.Paths[i]) {
			return fmt.Errorf("prove: verify: merkle path failed for sample index %d", idx)
		}
	}

	wantSeed := hashAggregates(arc.CodeAggregate, arc.LinearAggregate, arc.QuadraticAggregate)
	if !bytes.Equal(wantSeed[:], arc.Seed[:]) {
		return fmt.Errorf("prove: verify: stage2 seed mismatch")
	}

	if err := decodeZeroTailAndSum(arc.CodeAggregate); err != nil {
		return fmt.Errorf("prove: verify: code row: %w", err)
	}
	if err := decodeZeroTailAndSum(arc.LinearAggregate); err != nil {
		return fmt.Errorf("prove: verify: linear row: %w", err)
	}
	if err := decodeZeroTailAndSum(arc.QuadraticAggregate); err != nil {
		return fmt.Errorf("prove: verify: quadratic row: %w", err)
	}

	log.Info("verify: archive accepted", "samples", len(arc.Decommit.Indices))
	return nil
}
