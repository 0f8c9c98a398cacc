// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package decode defines the opcode-stream representation the
// interpreter consumes: a flat instruction list per function plus the
// module-level address tables a loader must populate. The full
// WAT/WASM binary parser is an out-of-scope collaborator; this package
// defines the interchange format it must produce and ships a minimal
// WAT-subset text loader sufficient to exercise the interpreter.
package decode

// OpKind enumerates every opcode the interpreter dispatches on,
// collapsing the source's templated/SFINAE-dispatched opcode tables
// into one flat enum with a fixed dispatch table indexed by kind.
type OpKind uint16

const (
	OpUnreachable OpKind = iota
	OpNop
	OpBlock
	OpLoop
	OpIf
	OpElse
	OpEnd
	OpBr
	OpBrIf
	OpBrTable
	OpReturn
	OpCall
	OpCallIndirect

	OpDrop
	OpSelect

	OpLocalGet
	OpLocalSet
	OpLocalTee
	OpGlobalGet
	OpGlobalSet

	OpTableGet
	OpTableSet
	OpTableSize
	OpTableGrow
	OpTableFill
	OpTableCopy
	OpTableInit
	OpElemDrop

	OpI32Load
	OpI64Load
	OpI32Load8S
	OpI32Load8U
	OpI32Load16S
	OpI32Load16U
	OpI64Load8S
	OpI64Load8U
	OpI64Load16S
	OpI64Load16U
	OpI64Load32S
	OpI64Load32U
	OpI32Store
	OpI64Store
	OpI32Store8
	OpI32Store16
	OpI64Store8
	OpI64Store16
	OpI64Store32
	OpMemorySize
	OpMemoryGrow
	OpMemoryFill
	OpMemoryCopy
	OpMemoryInit
	OpDataDrop

	OpRefNull
	OpRefIsNull
	OpRefFunc

	OpI32Const
	OpI64Const

	OpI32Eqz
	OpI32Eq
	OpI32Ne
	OpI32LtS
	OpI32LtU
	OpI32GtS
	OpI32GtU
	OpI32LeS
	OpI32LeU
	OpI32GeS
	OpI32GeU

	OpI64Eqz
	OpI64Eq
	OpI64Ne
	OpI64LtS
	OpI64LtU
	OpI64GtS
	OpI64GtU
	OpI64LeS
	OpI64LeU
	OpI64GeS
	OpI64GeU

	OpI32Clz
	OpI32Ctz
	OpI32Popcnt
	OpI32Add
	OpI32Sub
	OpI32Mul
	OpI32DivS
	OpI32DivU
	OpI32RemS
	OpI32RemU
	OpI32And
	OpI32Or
	OpI32Xor
	OpI32Shl
	OpI32ShrS
	OpI32ShrU
	OpI32Rotl
	OpI32Rotr

	OpI64Clz
	OpI64Ctz
	OpI64Popcnt
	OpI64Add
	OpI64Sub
	OpI64Mul
	OpI64DivS
	OpI64DivU
	OpI64RemS
	OpI64RemU
	OpI64And
	OpI64Or
	OpI64Xor
	OpI64Shl
	OpI64ShrS
	OpI64ShrU
	OpI64Rotl
	OpI64Rotr

	OpI32WrapI64
	OpI64ExtendI32S
	OpI64ExtendI32U
	OpI32Extend8S
	OpI32Extend16S
	OpI64Extend8S
	OpI64Extend16S
	OpI64Extend32S
)

// ValType is a value type tag (only the integer MVP types are modelled;
// floating point is an explicit non-goal).
type ValType uint8

const (
	ValI32 ValType = iota
	ValI64
	ValFuncRef
)

// Instruction is the flat 4-wide opcode record the decoder emits:
// Kind dispatches through the interpreter's fixed table, and A..D carry
// whatever immediates/indices that opcode needs.
type Instruction struct {
	Kind OpKind
	A, B, C, D int64
}

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Function is one decoded function body: its locals (beyond params) and
// its flat instruction stream.
type Function struct {
	Type   FuncType
	Locals []ValType
	Code   []Instruction
}

// Import names one imported function's host module/field and its type.
type Import struct {
	Module string
	Field  string
	Type   FuncType
}

// Export names one exported index by kind.
type Export struct {
	Name string
	Kind ExportKind
	Index int
}

// ExportKind tags what an Export's Index refers to.
type ExportKind uint8

const (
	ExportFunc ExportKind = iota
	ExportTable
	ExportMemory
	ExportGlobal
)

// Global is one module-defined global with its constant initializer
// expression, pre-evaluated to a concrete value by the loader.
type Global struct {
	Type    ValType
	Mutable bool
	Init    int64
}

// Module is the fully decoded, pre-link module the interpreter's loader
// resolves into a vm.ModuleInstance.
type Module struct {
	Imports   []Import
	Functions []Function
	Globals   []Global
	Exports   []Export
	MemoryMin int
	TableMin  int
}
