// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package decode

// Builder assembles a Module programmatically. It exists so tests and
// the host-module bootstrap code can construct Module values without
// round-tripping through the WAT text loader.
type Builder struct {
	mod Module
}

// NewBuilder returns an empty module builder.
func NewBuilder() *Builder { return &Builder{} }

// Memory sets the module's minimum memory page count.
func (b *Builder) Memory(minPages int) *Builder {
	b.mod.MemoryMin = minPages
	return b
}

// Import registers an imported function, returning its function index.
func (b *Builder) Import(module, field string, t FuncType) int {
	b.mod.Imports = append(b.mod.Imports, Import{Module: module, Field: field, Type: t})
	return len(b.mod.Imports) - 1
}

// Func appends a defined function body, returning its function index
// (counting imports first, matching WASM's shared function index
// space).
func (b *Builder) Func(t FuncType, locals []ValType, code []Instruction) int {
	b.mod.Functions = append(b.mod.Functions, Function{Type: t, Locals: locals, Code: code})
	return len(b.mod.Imports) + len(b.mod.Functions) - 1
}

// Global appends a module-defined global, returning its index.
func (b *Builder) Global(t ValType, mutable bool, init int64) int {
	b.mod.Globals = append(b.mod.Globals, Global{Type: t, Mutable: mutable, Init: init})
	return len(b.mod.Globals) - 1
}

// Export records a name->index export of the given kind.
func (b *Builder) Export(name string, kind ExportKind, index int) *Builder {
	b.mod.Exports = append(b.mod.Exports, Export{Name: name, Kind: kind, Index: index})
	return b
}

// Build returns the assembled module.
func (b *Builder) Build() Module { return b.mod }

// I builds an instruction with up to four immediates, zero-filling
// unused slots.
func I(kind OpKind, imm ...int64) Instruction {
	in := Instruction{Kind: kind}
	vals := [4]*int64{&in.A, &in.B, &in.C, &in.D}
	for i, v := range imm {
		if i >= 4 {
			break
		}
		*vals[i] = v
	}
	return in
}
