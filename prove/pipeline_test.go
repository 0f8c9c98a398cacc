// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prove

import (
	"bytes"
	"testing"

	"github.com/ligetron/zkvm/archive"
	"github.com/ligetron/zkvm/config"
	"github.com/ligetron/zkvm/decode"
	"github.com/stretchr/testify/require"
)

func simpleAddModule() decode.Module {
	b := decode.NewBuilder()
	b.Memory(1)
	i32i32 := decode.FuncType{Results: []decode.ValType{decode.ValI32}}
	fn := b.Func(i32i32, nil, []decode.Instruction{
		decode.I(decode.OpI32Const, 40),
		decode.I(decode.OpI32Const, 2),
		decode.I(decode.OpI32Add),
		decode.I(decode.OpReturn),
	})
	b.Export("main", decode.ExportFunc, fn)
	return b.Build()
}

func TestProveVerifyRoundTrip(t *testing.T) {
	mod := simpleAddModule()
	cfg := &config.Config{Program: "inline", Packing: packing}
	var seed [32]byte

	arc, err := Prove(&mod, cfg, seed, nil)
	require.NoError(t, err)
	require.NotEmpty(t, arc.Decommit.Indices)

	var buf bytes.Buffer
	require.NoError(t, archive.Write(&buf, arc))
	roundTripped, err := archive.Read(&buf)
	require.NoError(t, err)

	require.NoError(t, Verify(roundTripped, nil))
}

func TestProveVerifyRejectsTamperedArchive(t *testing.T) {
	mod := simpleAddModule()
	cfg := &config.Config{Program: "inline", Packing: packing}
	var seed [32]byte

	arc, err := Prove(&mod, cfg, seed, nil)
	require.NoError(t, err)

	arc.Root[0] ^= 0xFF
	require.Error(t, Verify(arc, nil))
}
