// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package decode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWATSimpleAdd(t *testing.T) {
	src := `
	(module
	  (memory 1)
	  (func $add (param i32) (param i32) (result i32)
	    local.get 0
	    local.get 1
	    i32.add)
	  (export "add" (func $add)))
	`
	mod, err := ParseWAT(src)
	require.NoError(t, err)
	require.Len(t, mod.Functions, 1)
	require.Equal(t, 1, mod.MemoryMin)

	fn := mod.Functions[0]
	require.Equal(t, []ValType{ValI32, ValI32}, fn.Type.Params)
	require.Equal(t, []ValType{ValI32}, fn.Type.Results)
	require.Equal(t, []Instruction{
		I(OpLocalGet, 0),
		I(OpLocalGet, 1),
		I(OpI32Add),
	}, fn.Code)

	require.Len(t, mod.Exports, 1)
	require.Equal(t, "add", mod.Exports[0].Name)
	require.Equal(t, 0, mod.Exports[0].Index)
}

func TestParseWATCallByName(t *testing.T) {
	src := `
	(module
	  (func $helper (result i32) i32.const 7)
	  (func $main (result i32) call $helper)
	  (export "main" (func $main)))
	`
	mod, err := ParseWAT(src)
	require.NoError(t, err)
	require.Len(t, mod.Functions, 2)
	require.Equal(t, []Instruction{I(OpCall, 0)}, mod.Functions[1].Code)
}

func TestBuilderRoundTrip(t *testing.T) {
	b := NewBuilder()
	idx := b.Func(FuncType{Results: []ValType{ValI32}}, nil, []Instruction{
		I(OpI32Const, 42),
	})
	b.Export("answer", ExportFunc, idx)
	mod := b.Build()

	require.Len(t, mod.Functions, 1)
	require.Equal(t, int64(42), mod.Functions[0].Code[0].A)
}
