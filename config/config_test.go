// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
	"program": "guest.wat",
	"packing": 4,
	"shader-path": "",
	"gpu-threads": 8,
	"args": [{"i64": 42}, {"str": "hello"}, {"hex": "cafe"}],
	"private-indices": [1]
}`

func TestLoadValid(t *testing.T) {
	c, err := Load(strings.NewReader(sampleJSON))
	require.NoError(t, err)
	require.Equal(t, "guest.wat", c.Program)
	require.Equal(t, 4, c.Packing)
	require.True(t, c.IsPrivate(1))
	require.False(t, c.IsPrivate(0))
	require.Equal(t, []string{"Ligero", "42", "hello", "0xcafe"}, c.Argv())
}

func TestLoadRejectsNonPowerOfTwoPacking(t *testing.T) {
	bad := strings.Replace(sampleJSON, `"packing": 4`, `"packing": 3`, 1)
	_, err := Load(strings.NewReader(bad))
	require.Error(t, err)
}

func TestLoadRejectsOutOfRangePrivateIndex(t *testing.T) {
	bad := strings.Replace(sampleJSON, `"private-indices": [1]`, `"private-indices": [9]`, 1)
	_, err := Load(strings.NewReader(bad))
	require.Error(t, err)
}

func TestArgValueBytes(t *testing.T) {
	a := ArgValue{Kind: ArgI64, I64: 1}
	b, err := a.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, b)
}
