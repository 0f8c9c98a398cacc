// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package backend

import (
	"github.com/ligetron/zkvm/field"
	"github.com/ligetron/zkvm/witness"
)

// bitAnd returns a*b for two {0,1}-constrained slots (logical AND).
func bitAnd(m *witness.Manager, a, b witness.Handle) witness.Handle {
	return Mul(m, a, b)
}

// bitXor returns a+b-2ab for two {0,1}-constrained slots.
func bitXor(m *witness.Manager, a, b witness.Handle) witness.Handle {
	two := field.FromUint64(2)
	ab := Mul(m, a, b)
	sum := ScaleAdd(m, a, field.One(), b, field.One(), field.Zero())
	scaled := ScaleAdd(m, ab, field.Zero().Sub(two), sum, field.One(), field.Zero())
	_ = m.Release(ab)
	_ = m.Release(sum)
	return scaled
}

// bitNot returns 1-a for a {0,1}-constrained slot.
func bitNot(m *witness.Manager, a witness.Handle) witness.Handle {
	negOne := field.Zero().Sub(field.One())
	return ScaleAdd(m, a, negOne, a, field.Zero(), field.One())
}

// And computes the bitwise AND of two width-bit values.
func And(m *witness.Manager, a, b witness.Handle, width int) witness.Handle {
	return bitwiseOp(m, a, b, width, bitAnd)
}

// Xor computes the bitwise XOR of two width-bit values.
func Xor(m *witness.Manager, a, b witness.Handle, width int) witness.Handle {
	return bitwiseOp(m, a, b, width, bitXor)
}

// Xnor computes the bitwise XNOR (negated XOR) of two width-bit values.
func Xnor(m *witness.Manager, a, b witness.Handle, width int) witness.Handle {
	x := Xor(m, a, b, width)
	out := bitNot(m, x)
	_ = m.Release(x)
	return out
}

// Not computes the bitwise complement of a width-bit value, i.e.
// (2^width - 1) - a.
func Not(m *witness.Manager, a witness.Handle, width int) witness.Handle {
	allOnes := powerOfTwo(width)
	allOnes = allOnes.Sub(field.One())
	negOne := field.Zero().Sub(field.One())
	return m.ConstrainAffine(a, negOne, a, field.Zero(), allOnes)
}

// bitwiseOp decomposes both operands, applies op bit-by-bit, and
// recomposes the result.
func bitwiseOp(m *witness.Manager, a, b witness.Handle, width int, op func(*witness.Manager, witness.Handle, witness.Handle) witness.Handle) witness.Handle {
	ba := Decompose(m, a, width)
	bb := Decompose(m, b, width)

	resultBits := make([]witness.Handle, width)
	for i := 0; i < width; i++ {
		resultBits[i] = op(m, ba.At(i), bb.At(i))
	}

	_ = ba.ReleaseAll(m)
	_ = bb.ReleaseAll(m)
	return Compose(m, witness.NewBitBundle(resultBits))
}

// Eq returns a {0,1} slot that is 1 iff a == b, computed as the AND
// reduction of per-bit XNOR.
func Eq(m *witness.Manager, a, b witness.Handle, width int) witness.Handle {
	ba := Decompose(m, a, width)
	bb := Decompose(m, b, width)

	acc := bitXnorBits(m, ba.At(0), bb.At(0))
	for i := 1; i < width; i++ {
		eqBit := bitXnorBits(m, ba.At(i), bb.At(i))
		next := bitAnd(m, acc, eqBit)
		_ = m.Release(acc)
		_ = m.Release(eqBit)
		acc = next
	}

	_ = ba.ReleaseAll(m)
	_ = bb.ReleaseAll(m)
	return acc
}

func bitXnorBits(m *witness.Manager, a, b witness.Handle) witness.Handle {
	x := bitXor(m, a, b)
	out := bitNot(m, x)
	_ = m.Release(x)
	return out
}

// Eqz returns a {0,1} slot that is 1 iff a's width-bit value is entirely
// zero.
func Eqz(m *witness.Manager, a witness.Handle, width int) witness.Handle {
	zero := m.AcquireWitness(ptr(field.Zero()))
	out := Eq(m, a, zero, width)
	_ = m.Release(zero)
	return out
}

// Gt returns a {0,1} slot that is 1 iff the unsigned width-bit value of
// a is strictly greater than b, using the standard MSB-to-LSB
// equal-prefix/greater-bit recurrence.
func Gt(m *witness.Manager, a, b witness.Handle, width int) witness.Handle {
	ba := Decompose(m, a, width)
	bb := Decompose(m, b, width)

	gt := m.AcquireWitness(ptr(field.Zero()))
	eqPrefix := m.AcquireWitness(ptr(field.One()))

	for i := width - 1; i >= 0; i-- {
		ai, bi := ba.At(i), bb.At(i)

		notBi := bitNot(m, bi)
		aGtB := bitAnd(m, ai, notBi) // a_i=1, b_i=0
		_ = m.Release(notBi)

		term := bitAnd(m, eqPrefix, aGtB)
		_ = m.Release(aGtB)

		newGt := ScaleAdd(m, gt, field.One(), term, field.One(), field.Zero())
		_ = m.Release(gt)
		_ = m.Release(term)
		gt = newGt

		if i > 0 {
			eqBit := bitXnorBits(m, ai, bi)
			newEqPrefix := bitAnd(m, eqPrefix, eqBit)
			_ = m.Release(eqPrefix)
			_ = m.Release(eqBit)
			eqPrefix = newEqPrefix
		}
	}

	_ = m.Release(eqPrefix)
	_ = ba.ReleaseAll(m)
	_ = bb.ReleaseAll(m)
	return gt
}
