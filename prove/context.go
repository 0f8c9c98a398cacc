// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package prove binds the opcode interpreter to the three prover
// sinks (Merkle commit, reduce-and-sum, sample-and-serialize) and the
// symmetric verifier pass, and assembles their outputs into a proof
// archive.
package prove

import (
	"fmt"

	"github.com/ligetron/zkvm/decode"
	"github.com/ligetron/zkvm/field"
	"github.com/ligetron/zkvm/hostabi"
	"github.com/ligetron/zkvm/vm"
	"github.com/ligetron/zkvm/witness"
)

// Context binds one interpreter run to one witness manager and sink,
// exactly the "binds interpreter to a specific transcript sink" role
// each of the three prover stages (and the verifier) plays.
type Context struct {
	Manager     *witness.Manager
	Interpreter *vm.Interpreter
	Module      *vm.ModuleInstance
}

// newContext instantiates mod against the registered host modules and
// wires a fresh interpreter to manager.
func newContext(mod *decode.Module, manager *witness.Manager, memPages int) (*Context, error) {
	mi, err := vm.Instantiate(mod, hostabi.All(), memPages)
	if err != nil {
		return nil, fmt.Errorf("prove: link: %w", err)
	}
	return &Context{
		Manager:     manager,
		Interpreter: vm.NewInterpreter(manager, mi, hostabi.All()),
		Module:      mi,
	}, nil
}

// RunExport calls the named export with concrete argument words and
// finalizes the witness manager once the call returns without
// trapping. It is the entry point both the end-to-end scenarios and
// the config-driven CLI path use.
func (c *Context) RunExport(name string, args []uint64) ([]uint64, error) {
	results, err := c.Interpreter.CallExported(name, args)
	if err != nil {
		return nil, err
	}
	if err := c.Manager.Finalize(); err != nil {
		return nil, fmt.Errorf("prove: finalize: %w", err)
	}
	return results, nil
}

// rowSizing derives row_size (l, message slots per row) and sample_size
// (trailing random padding slots) from the config's packing parameter.
// The external JSON schema has no separate sample_size key, so this
// package fixes sample_size at a quarter of packing (minimum one slot)
// and takes packing itself as l; paddedRowSize = l + sample_size is what
// the encoder and witness manager both call k.
func rowSizing(packing int) (rowSize, sampleSize int) {
	sampleSize = packing / 4
	if sampleSize < 1 {
		sampleSize = 1
	}
	return packing, sampleSize
}

func paddedRowSize(packing int) int {
	rowSize, sampleSize := rowSizing(packing)
	return rowSize + sampleSize
}

func newEncoder(packing int) *field.Encoder {
	return field.NewEncoder(paddedRowSize(packing))
}
