// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"encoding/binary"

	"github.com/ligetron/zkvm/decode"
	"github.com/ligetron/zkvm/field"
)

// stepMemory handles load/store/size/grow/fill/copy. Loads that overlap
// any secret interval return a witness slot holding the raw bytes as a
// field element; stores mark the touched range secret or clear it,
// according to whether the value written was witness-typed.
func (in *Interpreter) stepMemory(instr decode.Instruction) (Outcome, bool) {
	mem := in.Module.Memory()

	switch instr.Kind {
	case decode.OpI32Load, decode.OpI64Load:
		width := 4
		if instr.Kind == decode.OpI64Load {
			width = 8
		}
		idx := in.Stack.Pop()
		offset := int(instr.A) + int(in.concreteWord(idx))
		return in.doLoad(mem, offset, width, instr.Kind == decode.OpI64Load)

	case decode.OpI32Store, decode.OpI64Store:
		width := 4
		if instr.Kind == decode.OpI64Store {
			width = 8
		}
		val := in.Stack.Pop()
		idx := in.Stack.Pop()
		offset := int(instr.A) + int(in.concreteWord(idx))
		return in.doStore(mem, offset, width, val)

	case decode.OpMemorySize:
		in.Stack.Push(I32(uint32(mem.Pages())))
		return Ok, true

	case decode.OpMemoryGrow:
		delta := in.Stack.Pop()
		prev := mem.Grow(int(in.concreteWord(delta)))
		in.Stack.Push(I32(uint32(int32(prev))))
		return Ok, true

	case decode.OpMemoryFill:
		n := int(in.concreteWord(in.Stack.Pop()))
		val := byte(in.concreteWord(in.Stack.Pop()))
		dst := int(in.concreteWord(in.Stack.Pop()))
		if err := mem.Fill(dst, val, n); err != nil {
			return Trap(err), true
		}
		return Ok, true

	case decode.OpMemoryCopy:
		n := int(in.concreteWord(in.Stack.Pop()))
		src := int(in.concreteWord(in.Stack.Pop()))
		dst := int(in.concreteWord(in.Stack.Pop()))
		if err := mem.Copy(dst, src, n); err != nil {
			return Trap(err), true
		}
		return Ok, true
	}
	return Ok, false
}

func (in *Interpreter) doLoad(mem *Memory, offset, width int, is64 bool) (Outcome, bool) {
	if mem.IsSecret(offset, width) {
		raw, err := mem.Load(offset, width)
		if err != nil {
			return Trap(err), true
		}
		var word uint64
		if width == 8 {
			word = binary.LittleEndian.Uint64(raw)
		} else {
			word = uint64(binary.LittleEndian.Uint32(raw))
		}
		h := in.Manager.AcquireWitness(fieldPtr(field.FromUint64(word)))
		bw := 32
		if is64 {
			bw = 64
		}
		in.Stack.Push(WitnessValue(h, bw))
		return Ok, true
	}

	raw, err := mem.Load(offset, width)
	if err != nil {
		return Trap(err), true
	}
	if width == 8 {
		in.Stack.Push(I64(binary.LittleEndian.Uint64(raw)))
	} else {
		in.Stack.Push(I32(binary.LittleEndian.Uint32(raw)))
	}
	return Ok, true
}

func (in *Interpreter) doStore(mem *Memory, offset, width int, val StackValue) (Outcome, bool) {
	buf := make([]byte, width)
	secret := !val.IsConcrete()
	word := in.concreteWord(val)
	if width == 8 {
		binary.LittleEndian.PutUint64(buf, word)
	} else {
		binary.LittleEndian.PutUint32(buf, uint32(word))
	}
	if err := mem.Store(offset, buf, secret); err != nil {
		return Trap(err), true
	}
	return Ok, true
}

func fieldPtr(e field.Element) *field.Element { return &e }
