// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prove

import (
	"fmt"

	"github.com/ligetron/zkvm/field"
	"github.com/ligetron/zkvm/gpucompute"
	"github.com/ligetron/zkvm/witness"
)

// encodeRows NTT-encodes a batch of rows through exec rather than a
// bare Domain.Forward per row: a row_size k message row is zero-padded
// and forward-transformed directly, while a 2k mask row is first
// inverse-transformed back to coefficient form (EncodeMask's "2k ->
// n NTT") before the same zero-pad-and-forward step. Batching every
// row a sink commits at once (e.g. CommitQuadratic's l/r/o triple)
// gives exec's goroutine-chunked kernels more than one row to split
// across, instead of dispatching a batch of one every call.
func encodeRows(exec gpucompute.Executor, enc *field.Encoder, rows [][]field.Element) ([][]field.Element, error) {
	padded := make([][]field.Element, len(rows))
	var maskRows [][]field.Element
	maskSlot := make([]int, 0)
	for i, row := range rows {
		switch len(row) {
		case enc.K.Size():
			p := make([]field.Element, enc.N.Size())
			copy(p, row)
			padded[i] = p
		case enc.TwoK.Size():
			maskRows = append(maskRows, row)
			maskSlot = append(maskSlot, i)
		default:
			panic(fmt.Sprintf("prove: encodeRows: row length %d matches neither k=%d nor 2k=%d", len(row), enc.K.Size(), enc.TwoK.Size()))
		}
	}
	if len(maskRows) > 0 {
		coeffs, err := exec.BatchNTT(maskRows, true)
		if err != nil {
			return nil, fmt.Errorf("prove: mask inverse transform: %w", err)
		}
		for j, slot := range maskSlot {
			p := make([]field.Element, enc.N.Size())
			copy(p, coeffs[j])
			padded[slot] = p
		}
	}
	return exec.BatchNTT(padded, false)
}

// encodeOne is encodeRows for the common single-row case.
func encodeOne(exec gpucompute.Executor, enc *field.Encoder, row []field.Element) ([]field.Element, error) {
	out, err := encodeRows(exec, enc, [][]field.Element{row})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// merkleSink is Stage 1: every committed row is NTT-encoded through
// exec and its codeword bytes appended to a per-column buffer. Once
// every row (including the three mask rows) has been committed,
// finalize hashes each column's buffer in one exec.BatchSHA256 call
// and builds a Merkle tree over the resulting digests.
type merkleSink struct {
	enc     *field.Encoder
	exec    gpucompute.Executor
	columns [][]byte
}

func newMerkleSink(enc *field.Encoder) *merkleSink {
	return &merkleSink{enc: enc, exec: gpucompute.Global(), columns: make([][]byte, enc.N.Size())}
}

func (s *merkleSink) commitRows(rows ...[]field.Element) error {
	codewords, err := encodeRows(s.exec, s.enc, rows)
	if err != nil {
		return err
	}
	for _, codeword := range codewords {
		for i, e := range codeword {
			b := e.Bytes()
			s.columns[i] = append(s.columns[i], b[:]...)
		}
	}
	return nil
}

func (s *merkleSink) CommitLinear(row, randRow []field.Element) error {
	return s.commitRows(row)
}

func (s *merkleSink) CommitQuadratic(l, r, o []field.Element) error {
	return s.commitRows(l, r, o)
}

func (s *merkleSink) CommitMask(kind witness.MaskKind, row, randRow []field.Element) error {
	return s.commitRows(row)
}

// leaves hashes every column buffer in one batched exec.BatchSHA256
// call, one column per leaf digest.
func (s *merkleSink) leaves() ([][32]byte, error) {
	return s.exec.BatchSHA256(s.columns)
}

// finalize builds the Merkle tree over the final column digests.
func (s *merkleSink) finalize() (*merkleTree, error) {
	leaves, err := s.leaves()
	if err != nil {
		return nil, err
	}
	return buildMerkleTree(leaves)
}

// reduceSink is Stage 2: every committed row is NTT-encoded through
// exec and folded into three persistent codeword-length aggregates,
// each scaled by a fresh random scalar drawn from its own seeded
// stream, matching the code/linear/quadratic test constructions the
// manager's constraint accumulation is designed to net to zero
// against.
type reduceSink struct {
	enc  *field.Encoder
	exec gpucompute.Executor

	codeRandom      *field.Engine
	linearRandom    *field.Engine
	quadraticRandom *field.Engine

	codeAgg      []field.Element
	linearAgg    []field.Element
	quadraticAgg []field.Element
}

func newReduceSink(enc *field.Encoder, seed [32]byte) *reduceSink {
	n := enc.N.Size()
	return &reduceSink{
		enc:             enc,
		exec:            gpucompute.Global(),
		codeRandom:      field.NewEngine(seed, "stage2-code"),
		linearRandom:    field.NewEngine(seed, "stage2-linear"),
		quadraticRandom: field.NewEngine(seed, "stage2-quadratic"),
		codeAgg:         make([]field.Element, n),
		linearAgg:       make([]field.Element, n),
		quadraticAgg:    make([]field.Element, n),
	}
}

// foldInto scales codeword by scalar via exec.BatchModMul (a constant
// vector of scalar, paired elementwise against codeword) and adds the
// result into agg in place.
func foldInto(exec gpucompute.Executor, agg []field.Element, codeword []field.Element, scalar field.Element) error {
	scalars := make([]field.Element, len(codeword))
	for i := range scalars {
		scalars[i] = scalar
	}
	scaled, err := exec.BatchModMul(codeword, scalars)
	if err != nil {
		return fmt.Errorf("prove: fold: %w", err)
	}
	for i, c := range scaled {
		agg[i] = agg[i].Add(c)
	}
	return nil
}

func (s *reduceSink) CommitLinear(row, randRow []field.Element) error {
	combined := make([]field.Element, len(row))
	for i := range row {
		combined[i] = row[i].Add(randRow[i])
	}
	codewords, err := encodeRows(s.exec, s.enc, [][]field.Element{row, combined})
	if err != nil {
		return err
	}
	if err := foldInto(s.exec, s.codeAgg, codewords[0], s.codeRandom.Next()); err != nil {
		return err
	}
	return foldInto(s.exec, s.linearAgg, codewords[1], s.linearRandom.Next())
}

func (s *reduceSink) CommitQuadratic(l, r, o []field.Element) error {
	diff := make([]field.Element, len(l))
	for i := range l {
		diff[i] = l[i].Mul(r[i]).Sub(o[i])
	}
	codeword, err := encodeOne(s.exec, s.enc, diff)
	if err != nil {
		return err
	}
	return foldInto(s.exec, s.quadraticAgg, codeword, s.quadraticRandom.Next())
}

func (s *reduceSink) CommitMask(kind witness.MaskKind, row, randRow []field.Element) error {
	codeword, err := encodeOne(s.exec, s.enc, row)
	if err != nil {
		return err
	}
	switch kind {
	case witness.MaskCode:
		return foldInto(s.exec, s.codeAgg, codeword, s.codeRandom.Next())
	case witness.MaskLinear:
		return foldInto(s.exec, s.linearAgg, codeword, s.linearRandom.Next())
	case witness.MaskQuadratic:
		return foldInto(s.exec, s.quadraticAgg, codeword, s.quadraticRandom.Next())
	}
	return nil
}

// sampleSink is Stage 3: every committed row is NTT-encoded through
// exec and exactly the coefficients at a fixed set of sample indices
// are extracted and appended to the output column table, one column
// per committed row in commit order.
type sampleSink struct {
	enc     *field.Encoder
	exec    gpucompute.Executor
	indices []int
	columns [][]field.Element
}

func newSampleSink(enc *field.Encoder, indices []int) *sampleSink {
	return &sampleSink{enc: enc, exec: gpucompute.Global(), indices: indices}
}

func (s *sampleSink) sampleRows(rows ...[]field.Element) error {
	codewords, err := encodeRows(s.exec, s.enc, rows)
	if err != nil {
		return err
	}
	for _, codeword := range codewords {
		col := make([]field.Element, len(s.indices))
		for i, idx := range s.indices {
			col[i] = codeword[idx]
		}
		s.columns = append(s.columns, col)
	}
	return nil
}

func (s *sampleSink) CommitLinear(row, randRow []field.Element) error {
	return s.sampleRows(row)
}

func (s *sampleSink) CommitQuadratic(l, r, o []field.Element) error {
	return s.sampleRows(l, r, o)
}

func (s *sampleSink) CommitMask(kind witness.MaskKind, row, randRow []field.Element) error {
	return s.sampleRows(row)
}
