// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"fmt"

	"github.com/ligetron/zkvm/decode"
)

// Instantiate resolves a decoded Module against a host module registry,
// building the Store and address tables an Interpreter runs against.
// Import function indices come first in the function index space,
// followed by the module's own defined functions, per the usual MVP
// linking convention.
func Instantiate(mod *decode.Module, hosts map[string]HostModule, memPages int) (*ModuleInstance, error) {
	store := NewStore()
	mi := &ModuleInstance{Store: store, Exports: map[string]ExportRef{}}

	for _, imp := range mod.Imports {
		if _, ok := hosts[imp.Module]; !ok {
			return nil, fmt.Errorf("vm: link: unknown host module %q", imp.Module)
		}
		idx := len(store.Funcs)
		store.Funcs = append(store.Funcs, FuncInstance{
			Type:         imp.Type,
			HostModule:   imp.Module,
			HostField:    imp.Field,
			IsHostImport: true,
		})
		mi.FuncAddrs = append(mi.FuncAddrs, idx)
	}

	for _, fn := range mod.Functions {
		idx := len(store.Funcs)
		body := fn
		store.Funcs = append(store.Funcs, FuncInstance{
			Type: fn.Type,
			Body: &body,
		})
		mi.FuncAddrs = append(mi.FuncAddrs, idx)
	}

	if memPages <= 0 {
		memPages = 1
	}
	if mod.MemoryMin > memPages {
		memPages = mod.MemoryMin
	}
	store.Mems = append(store.Mems, NewMemory(memPages))
	mi.MemAddrs = append(mi.MemAddrs, 0)

	if mod.TableMin > 0 {
		store.Tables = append(store.Tables, &TableInstance{Elems: make([]int32, mod.TableMin)})
		for i := range store.Tables[0].Elems {
			store.Tables[0].Elems[i] = -1
		}
		mi.TableAddrs = append(mi.TableAddrs, 0)
	}

	for _, g := range mod.Globals {
		gi := len(store.Globals)
		var v StackValue
		if g.Type == decode.ValI64 {
			v = I64(uint64(g.Init))
		} else {
			v = I32(uint32(g.Init))
		}
		store.Globals = append(store.Globals, &GlobalInstance{Value: v, Mutable: g.Mutable})
		mi.GlobalAddrs = append(mi.GlobalAddrs, gi)
	}

	for _, exp := range mod.Exports {
		mi.Exports[exp.Name] = ExportRef{Kind: toVMExportKind(exp.Kind), Index: exp.Index}
	}

	return mi, nil
}

func toVMExportKind(k decode.ExportKind) ExportKind {
	switch k {
	case decode.ExportFunc:
		return ExportFunc
	case decode.ExportTable:
		return ExportTable
	case decode.ExportMemory:
		return ExportMem
	case decode.ExportGlobal:
		return ExportGlobal
	default:
		return ExportFunc
	}
}
