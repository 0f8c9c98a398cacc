// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package backend

import (
	"github.com/ligetron/zkvm/field"
	"github.com/ligetron/zkvm/witness"
)

// ClzBits returns a witness in [0, bits.Len()] holding the count of
// leading zero bits in bits (MSB first), using the same equal-prefix
// recurrence Gt uses for its MSB-to-LSB comparison: z_k is 1 iff the
// top k bits are all zero, and clz is the sum of z_1..z_width, since
// z_k holds for exactly the leading k that don't exceed the true
// leading-zero count.
func ClzBits(m *witness.Manager, bits *witness.BitBundle) witness.Handle {
	width := bits.Len()
	z := m.AcquireWitness(ptr(field.One()))
	clz := m.AcquireWitness(ptr(field.Zero()))
	for k := 1; k <= width; k++ {
		notBit := bitNot(m, bits.At(width-k))
		newZ := bitAnd(m, z, notBit)
		_ = m.Release(notBit)
		_ = m.Release(z)
		z = newZ

		newClz := ScaleAdd(m, clz, field.One(), z, field.One(), field.Zero())
		_ = m.Release(clz)
		clz = newClz
	}
	_ = m.Release(z)
	return clz
}

// CtzBits is ClzBits' LSB-first mirror: the count of trailing zero
// bits in bits.
func CtzBits(m *witness.Manager, bits *witness.BitBundle) witness.Handle {
	width := bits.Len()
	z := m.AcquireWitness(ptr(field.One()))
	ctz := m.AcquireWitness(ptr(field.Zero()))
	for k := 1; k <= width; k++ {
		notBit := bitNot(m, bits.At(k-1))
		newZ := bitAnd(m, z, notBit)
		_ = m.Release(notBit)
		_ = m.Release(z)
		z = newZ

		newCtz := ScaleAdd(m, ctz, field.One(), z, field.One(), field.Zero())
		_ = m.Release(ctz)
		ctz = newCtz
	}
	_ = m.Release(z)
	return ctz
}
