// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package archive

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ligetron/zkvm/field"
)

func sampleArchive() *Archive {
	row := []field.Element{field.FromUint64(1), field.FromUint64(2), field.FromUint64(3)}
	return &Archive{
		Root: [32]byte{1, 2, 3},
		Seed: [32]byte{4, 5, 6},

		CodeAggregate:      row,
		LinearAggregate:    row,
		QuadraticAggregate: row,

		Decommit: MerkleDecommit{
			Indices: []int{0, 2},
			Paths: [][][32]byte{
				{{9}, {10}},
				{{11}, {12}},
			},
			Leaves: [][32]byte{{7}, {8}},
		},

		Columns: [][]field.Element{row, row},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	in := sampleArchive()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))

	out, err := Read(&buf)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestLimbRoundTripThroughElement(t *testing.T) {
	e := field.FromUint64(0xdeadbeefcafef00d)
	var buf bytes.Buffer
	require.NoError(t, writeElement(&buf, e))
	got, err := readElement(&buf)
	require.NoError(t, err)
	require.True(t, e.Equal(got))
}
