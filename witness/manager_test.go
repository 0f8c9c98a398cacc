// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package witness

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ligetron/zkvm/field"
)

// recordingSink captures every row event so tests can assert on shape
// and padding without needing a real NTT-backed sink.
type recordingSink struct {
	linear     [][2][]field.Element
	quadratic  [][3][]field.Element
	masks      []MaskKind
	maskRows   [][]field.Element
}

func (s *recordingSink) CommitLinear(row, rand []field.Element) error {
	s.linear = append(s.linear, [2][]field.Element{row, rand})
	return nil
}

func (s *recordingSink) CommitQuadratic(l, r, o []field.Element) error {
	s.quadratic = append(s.quadratic, [3][]field.Element{l, r, o})
	return nil
}

func (s *recordingSink) CommitMask(kind MaskKind, row, rand []field.Element) error {
	s.masks = append(s.masks, kind)
	s.maskRows = append(s.maskRows, row)
	return nil
}

func newTestManager(sink Sink, rowSize, sampleSize int) *Manager {
	var seed [32]byte
	copy(seed[:], []byte("witness-manager-test-seed"))
	return New(sink, rowSize, sampleSize, seed, DefaultPolicy)
}

func TestAcquireReleaseRecyclesArenaSlot(t *testing.T) {
	sink := &recordingSink{}
	m := newTestManager(sink, 4, 2)

	v := field.FromUint64(9)
	h1 := m.AcquireWitness(&v)
	require.NoError(t, m.Release(h1))

	h2 := m.AcquireWitness(&v)
	require.Equal(t, h1, h2, "second acquire should recycle the freed arena slot")
}

func TestLinearRowFlushesAtRowSize(t *testing.T) {
	sink := &recordingSink{}
	m := newTestManager(sink, 2, 2)

	for i := 0; i < 2; i++ {
		v := field.FromUint64(uint64(i + 1))
		h := m.AcquireWitness(&v)
		require.NoError(t, m.Release(h))
	}
	require.Len(t, sink.linear, 1)
	require.Len(t, sink.linear[0][0], 4) // padded_row_size = row_size + sample_size
}

func TestQuadraticTripleFlushesLockstep(t *testing.T) {
	sink := &recordingSink{}
	m := newTestManager(sink, 1, 1)

	x := m.AcquireWitness(ptr(field.FromUint64(3)))
	y := m.AcquireWitness(ptr(field.FromUint64(4)))
	out := m.ConstrainQuadratic(x, y)

	require.True(t, m.Value(out).Equal(field.FromUint64(12)))
	require.NoError(t, m.Release(out))
	require.NoError(t, m.Release(x))
	require.NoError(t, m.Release(y))

	require.Len(t, sink.quadratic, 1)
	row := sink.quadratic[0]
	require.True(t, row[0][0].Equal(field.FromUint64(3)))
	require.True(t, row[1][0].Equal(field.FromUint64(4)))
	require.True(t, row[2][0].Equal(field.FromUint64(12)))
}

func TestConstrainBitRejectsNonBooleanWitness(t *testing.T) {
	sink := &recordingSink{}
	m := newTestManager(sink, 4, 1)

	bad := m.AcquireWitness(ptr(field.FromUint64(2)))
	require.ErrorIs(t, m.ConstrainBit(bad), ErrConstraintUnsafe)

	good := m.AcquireWitness(ptr(field.One()))
	require.NoError(t, m.ConstrainBit(good))
}

func TestConstrainEqualDetectsMismatch(t *testing.T) {
	sink := &recordingSink{}
	m := newTestManager(sink, 4, 1)

	a := m.AcquireWitness(ptr(field.FromUint64(1)))
	b := m.AcquireWitness(ptr(field.FromUint64(2)))
	_, _, err := m.ConstrainEqual(a, b)
	require.ErrorIs(t, err, ErrConstraintUnsafe)
}

func TestFinalizeDetectsSlotLeak(t *testing.T) {
	sink := &recordingSink{}
	m := newTestManager(sink, 4, 1)

	_ = m.AcquireWitness(ptr(field.FromUint64(1))) // never released
	require.ErrorIs(t, m.Finalize(), ErrSlotLeak)
}

func TestFinalizeEmitsAllThreeMasks(t *testing.T) {
	sink := &recordingSink{}
	m := newTestManager(sink, 4, 1)
	require.NoError(t, m.Finalize())
	require.Equal(t, []MaskKind{MaskCode, MaskLinear, MaskQuadratic}, sink.masks)
}

func TestBitBundleReleasesInReverseOrder(t *testing.T) {
	sink := &recordingSink{}
	m := newTestManager(sink, 8, 1)

	var handles []Handle
	for i := 0; i < 4; i++ {
		handles = append(handles, m.AcquireWitness(ptr(field.FromUint64(uint64(i%2)))))
	}
	bundle := NewBitBundle(handles)
	require.Equal(t, 4, bundle.Len())
	require.NoError(t, bundle.ReleaseAll(m))

	// Values are [0, 1, 0, 1] by acquisition order; MSB-first release
	// commits them to the linear row as [1, 0, 1, 0].
	require.Len(t, m.linearRow, 4)
	require.True(t, m.linearRow[0].Equal(field.One()))
	require.True(t, m.linearRow[3].IsZero())
}

func ptr(e field.Element) *field.Element { return &e }
