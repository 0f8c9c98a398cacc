// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package backend

import (
	"math/big"

	"github.com/ligetron/zkvm/field"
	"github.com/ligetron/zkvm/witness"
)

// Decompose splits v's concrete value into width boolean-constrained
// slots, LSB first, and asserts their weighted sum reconstructs v. The
// returned bundle owns one reference to each bit slot; releasing the
// bundle (or composing it back) is the caller's responsibility.
func Decompose(m *witness.Manager, v witness.Handle, width int) *witness.BitBundle {
	concrete := m.Value(v).BigInt()

	bits := make([]witness.Handle, width)
	for i := 0; i < width; i++ {
		bitVal := uint64(0)
		if concrete.Bit(i) == 1 {
			bitVal = 1
		}
		h := m.AcquireWitness(ptr(field.FromUint64(bitVal)))
		if err := m.ConstrainBit(h); err != nil {
			// The concrete extraction above only ever produces 0/1, so
			// this can only fire if v's value itself is inconsistent.
			panic(err)
		}
		bits[i] = h
	}

	// Assert Σ 2^i * bit_i == v by folding a running weighted sum and
	// constraining it equal to v. acc's initial retain is released by
	// the first loop iteration, which consumes it into a fresh combined
	// slot; every later iteration consumes and releases the previous
	// partial sum the same way.
	acc := bits[0]
	m.Retain(acc)
	for i := 1; i < width; i++ {
		weight := powerOfTwo(i)
		scaled := ScaleAdd(m, bits[i], weight, acc, field.One(), field.Zero())
		_ = m.Release(acc)
		acc = scaled
	}
	resAcc, resV, err := m.ConstrainEqual(acc, v)
	if err != nil {
		panic(err)
	}
	_ = m.Release(resAcc)
	if resV != v {
		// v was already attached elsewhere; ConstrainEqual cloned it to
		// carry the equality attachment, and that clone is ours alone.
		_ = m.Release(resV)
	}

	return witness.NewBitBundle(bits)
}

// Compose reassembles a bit bundle into a single slot holding its
// weighted sum, releasing the bundle's individual bit handles.
func Compose(m *witness.Manager, bundle *witness.BitBundle) witness.Handle {
	width := bundle.Len()
	if width == 0 {
		return m.AcquireWitness(ptr(field.Zero()))
	}
	acc := bundle.At(0)
	m.Retain(acc)
	for i := 1; i < width; i++ {
		weight := powerOfTwo(i)
		next := ScaleAdd(m, bundle.At(i), weight, acc, field.One(), field.Zero())
		_ = m.Release(acc)
		acc = next
	}
	_ = bundle.ReleaseAll(m)
	return acc
}

func powerOfTwo(i int) field.Element {
	bi := new(big.Int).Lsh(big.NewInt(1), uint(i))
	return field.FromBigInt(bi)
}

func ptr(e field.Element) *field.Element { return &e }
