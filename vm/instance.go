// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import "github.com/ligetron/zkvm/decode"

// FuncInstance is either a locally-defined function (Body is non-nil) or
// an import resolved to a host module/field name pair.
type FuncInstance struct {
	Type        decode.FuncType
	Body        *decode.Function
	HostModule  string
	HostField   string
	IsHostImport bool
}

// TableInstance holds function-reference elements.
type TableInstance struct {
	Elems []int32 // -1 for a null reference.
}

// GlobalInstance holds one mutable or immutable global.
type GlobalInstance struct {
	Value   StackValue
	Mutable bool
}

// Store owns every address space a module instance indexes into:
// functions, tables, memories, globals, and passive element/data
// segments.
type Store struct {
	Funcs   []FuncInstance
	Tables  []*TableInstance
	Mems    []*Memory
	Globals []*GlobalInstance
	Elems   [][]int32 // passive element segments; nil once dropped.
	Datas   [][]byte  // passive data segments; nil once dropped.
}

// NewStore returns an empty store.
func NewStore() *Store { return &Store{} }

// ModuleInstance is the resolved view of a parsed module: address lists
// into a Store plus a name->export-index map. The only mutable
// invariant is that every address is in-range for its kind.
type ModuleInstance struct {
	Store *Store

	FuncAddrs   []int
	TableAddrs  []int
	MemAddrs    []int
	GlobalAddrs []int
	ElemAddrs   []int
	DataAddrs   []int

	Exports map[string]ExportRef
}

// ExportKind tags what an export name resolves to.
type ExportKind uint8

const (
	ExportFunc ExportKind = iota
	ExportTable
	ExportMem
	ExportGlobal
)

// ExportRef names one exported address.
type ExportRef struct {
	Kind  ExportKind
	Index int
}

// ResolveFunc returns the FuncInstance for the moduleFuncIndex-th
// function address in this instance.
func (mi *ModuleInstance) ResolveFunc(moduleFuncIndex int) *FuncInstance {
	return &mi.Store.Funcs[mi.FuncAddrs[moduleFuncIndex]]
}

// Memory returns the module's default (index 0) memory.
func (mi *ModuleInstance) Memory() *Memory {
	return mi.Store.Mems[mi.MemAddrs[0]]
}

// Table returns the table at the given module-local index.
func (mi *ModuleInstance) Table(idx int) *TableInstance {
	return mi.Store.Tables[mi.TableAddrs[idx]]
}

// Global returns the global at the given module-local index.
func (mi *ModuleInstance) Global(idx int) *GlobalInstance {
	return mi.Store.Globals[mi.GlobalAddrs[idx]]
}
