// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package backend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ligetron/zkvm/field"
	"github.com/ligetron/zkvm/witness"
)

type discardSink struct{}

func (discardSink) CommitLinear(row, rand []field.Element) error                  { return nil }
func (discardSink) CommitQuadratic(l, r, o []field.Element) error                 { return nil }
func (discardSink) CommitMask(k witness.MaskKind, row, rand []field.Element) error { return nil }

func newTestManager() *witness.Manager {
	var seed [32]byte
	copy(seed[:], []byte("backend-test-seed"))
	return witness.New(discardSink{}, 8, 2, seed, witness.DefaultPolicy)
}

func h(m *witness.Manager, v uint64) witness.Handle {
	e := field.FromUint64(v)
	return m.AcquireWitness(&e)
}

func TestAddSubMul(t *testing.T) {
	m := newTestManager()

	a := h(m, 7)
	b := h(m, 5)

	sum := Add(m, a, b)
	require.True(t, m.Value(sum).Equal(field.FromUint64(12)))

	diff := Sub(m, a, b)
	require.True(t, m.Value(diff).Equal(field.FromUint64(2)))

	prod := Mul(m, a, b)
	require.True(t, m.Value(prod).Equal(field.FromUint64(35)))

	for _, x := range []witness.Handle{a, b, sum, diff, prod} {
		require.NoError(t, m.Release(x))
	}
}

func TestDecomposeComposeRoundTrip(t *testing.T) {
	m := newTestManager()

	v := h(m, 0b10110)
	bundle := Decompose(m, v, 8)
	require.Equal(t, 8, bundle.Len())
	require.True(t, m.Value(bundle.At(1)).Equal(field.One()))
	require.True(t, m.Value(bundle.At(0)).IsZero())

	back := Compose(m, bundle)
	require.True(t, m.Value(back).Equal(field.FromUint64(0b10110)))
	require.NoError(t, m.Release(back))
	require.NoError(t, m.Release(v))
}

func TestBitwiseXorAndNot(t *testing.T) {
	m := newTestManager()

	a := h(m, 0xA5)
	b := h(m, 0x0F)

	xor := Xor(m, a, b, 8)
	require.Equal(t, uint64(0xAA), m.Value(xor).BigInt().Uint64())

	and := And(m, a, b, 8)
	require.Equal(t, uint64(0x05), m.Value(and).BigInt().Uint64())

	not := Not(m, a, 8)
	require.Equal(t, uint64(0x5A), m.Value(not).BigInt().Uint64())

	for _, x := range []witness.Handle{a, b, xor, and, not} {
		require.NoError(t, m.Release(x))
	}
}

func TestEqAndEqz(t *testing.T) {
	m := newTestManager()

	a := h(m, 42)
	b := h(m, 42)
	c := h(m, 0)

	eq := Eq(m, a, b, 8)
	require.True(t, m.Value(eq).Equal(field.One()))

	eqz := Eqz(m, c, 8)
	require.True(t, m.Value(eqz).Equal(field.One()))

	for _, x := range []witness.Handle{a, b, c, eq, eqz} {
		require.NoError(t, m.Release(x))
	}
}

func TestGt(t *testing.T) {
	m := newTestManager()

	a := h(m, 200)
	b := h(m, 100)

	gt := Gt(m, a, b, 8)
	require.True(t, m.Value(gt).Equal(field.One()))

	gt2 := Gt(m, b, a, 8)
	require.True(t, m.Value(gt2).IsZero())

	for _, x := range []witness.Handle{a, b, gt, gt2} {
		require.NoError(t, m.Release(x))
	}
}

func TestClzCtzBits(t *testing.T) {
	m := newTestManager()

	v := h(m, 0b00010100) // 8-bit: 3 leading zeros, 2 trailing zeros
	bundle := Decompose(m, v, 8)

	clz := ClzBits(m, bundle)
	require.Equal(t, uint64(3), m.Value(clz).BigInt().Uint64())

	ctz := CtzBits(m, bundle)
	require.Equal(t, uint64(2), m.Value(ctz).BigInt().Uint64())

	require.NoError(t, bundle.ReleaseAll(m))
	for _, x := range []witness.Handle{clz, ctz} {
		require.NoError(t, m.Release(x))
	}
}

func TestClzCtzBitsAllZero(t *testing.T) {
	m := newTestManager()

	v := h(m, 0)
	bundle := Decompose(m, v, 8)

	clz := ClzBits(m, bundle)
	require.Equal(t, uint64(8), m.Value(clz).BigInt().Uint64())

	ctz := CtzBits(m, bundle)
	require.Equal(t, uint64(8), m.Value(ctz).BigInt().Uint64())

	require.NoError(t, bundle.ReleaseAll(m))
	for _, x := range []witness.Handle{clz, ctz} {
		require.NoError(t, m.Release(x))
	}
}

func TestIDivideQRTruncatesTowardZero(t *testing.T) {
	m := newTestManager()

	dividend := h(m, uint64(int64(-7)&0xFF))
	divisor := h(m, 2)

	q, r, err := IDivideQR(m, dividend, divisor, 8, true)
	require.NoError(t, err)

	require.Equal(t, "-3", toSigned(m.Value(q), 8).String())
	require.Equal(t, "-1", toSigned(m.Value(r), 8).String())

	for _, x := range []witness.Handle{dividend, divisor, q, r} {
		require.NoError(t, m.Release(x))
	}
}

func TestIDivideQRUnsignedHighBit(t *testing.T) {
	m := newTestManager()

	// 0x80 (128) would be reinterpreted as -128 by the signed path;
	// the unsigned path must keep it a plain 128.
	dividend := h(m, 0x80)
	divisor := h(m, 2)

	q, r, err := IDivideQR(m, dividend, divisor, 8, false)
	require.NoError(t, err)

	require.Equal(t, uint64(0x40), m.Value(q).BigInt().Uint64())
	require.True(t, m.Value(r).IsZero())

	for _, x := range []witness.Handle{dividend, divisor, q, r} {
		require.NoError(t, m.Release(x))
	}
}

func TestIDivideQRByZero(t *testing.T) {
	m := newTestManager()

	dividend := h(m, 10)
	divisor := h(m, 0)

	_, _, err := IDivideQR(m, dividend, divisor, 8, true)
	require.ErrorIs(t, err, ErrDivideByZero)

	require.NoError(t, m.Release(dividend))
	require.NoError(t, m.Release(divisor))
}
