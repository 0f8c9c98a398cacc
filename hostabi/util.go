// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package hostabi

import (
	"encoding/binary"

	"github.com/ligetron/zkvm/vm"
	"github.com/ligetron/zkvm/witness"
)

// Handles are stored in guest linear memory as a bare little-endian
// int32 word: the arena index the witness manager re-architected away
// from a raw host pointer. The guest never interprets the word itself,
// only passes it back across the ABI boundary.
const handleWordSize = 4

func readHandle(mem *vm.Memory, addr int) (witness.Handle, error) {
	raw, err := mem.Load(addr, handleWordSize)
	if err != nil {
		return 0, err
	}
	return witness.Handle(int32(binary.LittleEndian.Uint32(raw))), nil
}

func writeHandle(mem *vm.Memory, addr int, h witness.Handle) error {
	buf := make([]byte, handleWordSize)
	binary.LittleEndian.PutUint32(buf, uint32(int32(h)))
	return mem.Store(addr, buf, false)
}

// popAddr pops the top-of-stack value and resolves it as a guest linear
// memory address. Addresses are always concrete i32s; a witness-typed
// address would mean the guest computed a pointer from secret data,
// which the memory model has no room for.
func popAddr(in *vm.Interpreter) int {
	return int(in.PopConcrete())
}
