// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package field

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDomainRoundTrip(t *testing.T) {
	for _, size := range []int{4, 8, 32} {
		d := NewDomain(size)
		in := make([]Element, size)
		for i := range in {
			in[i] = FromUint64(uint64(i + 1))
		}
		codeword := d.Forward(in)
		out := d.Inverse(codeword)
		for i := range in {
			require.True(t, in[i].Equal(out[i]), "size %d index %d", size, i)
		}
	}
}

func TestEncoderRowRoundTrip(t *testing.T) {
	k := 8
	enc := NewEncoder(k)

	row := make([]Element, k)
	for i := range row {
		row[i] = FromUint64(uint64(7 * (i + 1)))
	}

	codeword := enc.EncodeRow(row)
	require.Len(t, codeword, 4*k)

	decoded := enc.DecodeRow(codeword)
	for i := range row {
		require.True(t, row[i].Equal(decoded[i]))
	}
	for i := k; i < len(decoded); i++ {
		require.True(t, decoded[i].IsZero(), "tail position %d should be zero", i)
	}
}

func TestEncodeMaskVanishingPrefix(t *testing.T) {
	k := 8
	enc := NewEncoder(k)

	mask := make([]Element, 2*k)
	// the [0, rand, 0, rand, ...] masking pattern.
	rnd := FromUint64(11)
	sum := Zero()
	for i := 0; i+1 < len(mask); i += 2 {
		mask[i] = Zero()
		mask[i+1] = rnd
		sum = sum.Add(rnd)
	}
	mask[len(mask)-1] = sum.Neg()

	codeword := enc.EncodeMask(mask)
	require.Len(t, codeword, 4*k)
}
