// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prove

import (
	"testing"

	"github.com/ligetron/zkvm/backend"
	"github.com/ligetron/zkvm/decode"
	"github.com/ligetron/zkvm/field"
	"github.com/ligetron/zkvm/witness"
	"github.com/stretchr/testify/require"
)

const packing = 8

func newTestManager(sink witness.Sink) *witness.Manager {
	rowSize, sampleSize := rowSizing(packing)
	var seed [32]byte
	return witness.New(sink, rowSize, sampleSize, seed, witness.Policy{LinearCheck: true, QuadraticCheck: true})
}

func runMain(t *testing.T, mod decode.Module, manager *witness.Manager) []uint64 {
	t.Helper()
	ctx, err := newContext(&mod, manager, 1)
	require.NoError(t, err)
	results, err := ctx.RunExport("main", nil)
	require.NoError(t, err)
	return results
}

// E1: u32 add wrap. 0xFFFFFFFE + 0x00000003 wraps to 0x00000001.
func TestE1AddWrap(t *testing.T) {
	b := decode.NewBuilder()
	b.Memory(1)
	i32i32 := decode.FuncType{Params: nil, Results: []decode.ValType{decode.ValI32}}
	fn := b.Func(i32i32, nil, []decode.Instruction{
		decode.I(decode.OpI32Const, 0xFFFFFFFE),
		decode.I(decode.OpI32Const, 0x00000003),
		decode.I(decode.OpI32Add),
		decode.I(decode.OpReturn),
	})
	b.Export("main", decode.ExportFunc, fn)
	mod := b.Build()

	enc := newEncoder(packing)
	sink := newMerkleSink(enc)
	manager := newTestManager(sink)
	results := runMain(t, mod, manager)
	require.Equal(t, []uint64{1}, results)
}

// E2: signed idiv. -7 / 2 = -3 (truncating division).
func TestE2DivS(t *testing.T) {
	b := decode.NewBuilder()
	b.Memory(1)
	i32i32 := decode.FuncType{Results: []decode.ValType{decode.ValI32}}
	fn := b.Func(i32i32, nil, []decode.Instruction{
		decode.I(decode.OpI32Const, int64(int32(-7))),
		decode.I(decode.OpI32Const, 2),
		decode.I(decode.OpI32DivS),
		decode.I(decode.OpReturn),
	})
	b.Export("main", decode.ExportFunc, fn)
	mod := b.Build()

	enc := newEncoder(packing)
	sink := newMerkleSink(enc)
	manager := newTestManager(sink)
	results := runMain(t, mod, manager)
	require.Equal(t, int32(-3), int32(uint32(results[0])))
}

// E3: popcount of 0xA5A5A5A5 is 16.
func TestE3Popcount(t *testing.T) {
	b := decode.NewBuilder()
	b.Memory(1)
	i32i32 := decode.FuncType{Results: []decode.ValType{decode.ValI32}}
	fn := b.Func(i32i32, nil, []decode.Instruction{
		decode.I(decode.OpI32Const, 0xA5A5A5A5),
		decode.I(decode.OpI32Popcnt),
		decode.I(decode.OpReturn),
	})
	b.Export("main", decode.ExportFunc, fn)
	mod := b.Build()

	enc := newEncoder(packing)
	sink := newMerkleSink(enc)
	manager := newTestManager(sink)
	results := runMain(t, mod, manager)
	require.Equal(t, []uint64{16}, results)
}

// E4: field mul host call. 3 * 5 = 15 via bn254fr_mulmod and
// bn254fr_assert_mul, with a and b populated via bn254fr_set.
func TestE4FieldMulHostCall(t *testing.T) {
	b := decode.NewBuilder()
	b.Memory(1)

	allocT := decode.FuncType{Params: []decode.ValType{decode.ValI32}}
	setT := decode.FuncType{Params: []decode.ValType{decode.ValI32, decode.ValI64}}
	binT := decode.FuncType{Params: []decode.ValType{decode.ValI32, decode.ValI32, decode.ValI32}}

	allocFn := b.Import("bn254fr", "alloc", allocT)
	setFn := b.Import("bn254fr", "set", setT)
	mulFn := b.Import("bn254fr", "mulmod", binT)
	assertMulFn := b.Import("bn254fr", "assert_mul", binT)

	const addrA, addrB, addrOut = 0, 4, 8

	mainT := decode.FuncType{}
	fn := b.Func(mainT, nil, []decode.Instruction{
		decode.I(decode.OpI32Const, addrA),
		decode.I(decode.OpCall, int64(allocFn)),
		decode.I(decode.OpI32Const, addrB),
		decode.I(decode.OpCall, int64(allocFn)),
		decode.I(decode.OpI32Const, addrOut),
		decode.I(decode.OpCall, int64(allocFn)),

		decode.I(decode.OpI32Const, addrA),
		decode.I(decode.OpI64Const, 3),
		decode.I(decode.OpCall, int64(setFn)),

		decode.I(decode.OpI32Const, addrB),
		decode.I(decode.OpI64Const, 5),
		decode.I(decode.OpCall, int64(setFn)),

		decode.I(decode.OpI32Const, addrOut),
		decode.I(decode.OpI32Const, addrA),
		decode.I(decode.OpI32Const, addrB),
		decode.I(decode.OpCall, int64(mulFn)),

		decode.I(decode.OpI32Const, addrOut),
		decode.I(decode.OpI32Const, addrA),
		decode.I(decode.OpI32Const, addrB),
		decode.I(decode.OpCall, int64(assertMulFn)),

		decode.I(decode.OpReturn),
	})
	b.Export("main", decode.ExportFunc, fn)
	mod := b.Build()

	enc := newEncoder(packing)
	sink := newMerkleSink(enc)
	manager := newTestManager(sink)
	runMain(t, mod, manager)
	require.NoError(t, manager.Finalize())
}

// E5: bit decompose + compose round trip on a 32-bit value (this
// subset's interpreter works in native 32/64-bit width, so the round
// trip is exercised at i32 width rather than the full 64 bits). The
// guest program returns x as a constant, which stays concrete in the
// interpreter, so the decomposition runs through package backend on the
// same manager before the program does.
func TestE5DecomposeComposeRoundTrip(t *testing.T) {
	b := decode.NewBuilder()
	b.Memory(1)
	i32i32 := decode.FuncType{Results: []decode.ValType{decode.ValI32}}
	const x = 0x89ABCDEF
	fn := b.Func(i32i32, nil, []decode.Instruction{
		decode.I(decode.OpI32Const, x),
		decode.I(decode.OpReturn),
	})
	b.Export("main", decode.ExportFunc, fn)
	mod := b.Build()

	enc := newEncoder(packing)
	sink := newMerkleSink(enc)
	manager := newTestManager(sink)

	v := field.FromUint64(x)
	h := manager.AcquireWitness(&v)
	bundle := backend.Decompose(manager, h, 32)
	require.Equal(t, 32, bundle.Len())
	back := backend.Compose(manager, bundle)
	require.True(t, manager.Value(back).Equal(v))
	require.NoError(t, manager.Release(back))
	require.NoError(t, manager.Release(h))

	results := runMain(t, mod, manager)
	require.Equal(t, []uint64{x}, results)
}

// E6: three-stage agreement. Running the same program through Stage 1
// and Stage 2 independently must let Stage 2's own aggregate hash
// process succeed deterministically under a shared seed; this checks
// the seed derivation is a pure function of the aggregates, not of
// incidental ordering.
func TestE6ThreeStageAgreement(t *testing.T) {
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
	mod := b.Build()

	var seed [32]byte
	enc := newEncoder(packing)

	sink1 := newMerkleSink(enc)
	m1 := newTestManager(sink1)
	_ = runMain(t, mod, m1)
	tree, err := sink1.finalize()
	require.NoError(t, err)
	root := tree.Root()

	sink1b := newMerkleSink(enc)
	m1b := newTestManager(sink1b)
	_ = runMain(t, mod, m1b)
	treeB, err := sink1b.finalize()
	require.NoError(t, err)
	require.Equal(t, root, treeB.Root())

	sink2 := newReduceSink(enc, seed)
	m2 := newTestManager(sink2)
	_ = runMain(t, mod, m2)
	seedA := hashAggregates(sink2.codeAgg, sink2.linearAgg, sink2.quadraticAgg)

	sink2b := newReduceSink(enc, seed)
	m2b := newTestManager(sink2b)
	_ = runMain(t, mod, m2b)
	seedB := hashAggregates(sink2b.codeAgg, sink2b.linearAgg, sink2b.quadraticAgg)

	require.Equal(t, seedA, seedB)
}
