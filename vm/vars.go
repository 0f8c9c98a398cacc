// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import "github.com/ligetron/zkvm/decode"

func (in *Interpreter) stepVariable(instr decode.Instruction) (Outcome, bool) {
	switch instr.Kind {
	case decode.OpLocalGet:
		in.Stack.Push(in.curLocals[instr.A])
		return Ok, true

	case decode.OpLocalSet:
		in.curLocals[instr.A] = in.Stack.Pop()
		return Ok, true

	case decode.OpLocalTee:
		in.curLocals[instr.A] = in.Stack.Peek()
		return Ok, true

	case decode.OpGlobalGet:
		g := in.Module.Global(int(instr.A))
		in.Stack.Push(g.Value)
		return Ok, true

	case decode.OpGlobalSet:
		g := in.Module.Global(int(instr.A))
		g.Value = in.Stack.Pop()
		return Ok, true
	}
	return Ok, false
}
