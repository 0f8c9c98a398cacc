// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import "github.com/ligetron/zkvm/decode"

// blockLabel extends Label with the bookkeeping step needs to resolve
// br/br_if/br_table and the if/else split without a separate validation
// pass over the instruction stream.
type blockLabel struct {
	Label
	ElseIdx int // -1 if the if-form had no else clause.
}

func matchingEnd(code []decode.Instruction, start int) int {
	depth := 1
	for i := start + 1; i < len(code); i++ {
		switch code[i].Kind {
		case decode.OpBlock, decode.OpLoop, decode.OpIf:
			depth++
		case decode.OpEnd:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(code)
}

func matchingElseOrEnd(code []decode.Instruction, start int) (elseIdx, endIdx int) {
	depth := 1
	elseIdx = -1
	for i := start + 1; i < len(code); i++ {
		switch code[i].Kind {
		case decode.OpBlock, decode.OpLoop, decode.OpIf:
			depth++
		case decode.OpElse:
			if depth == 1 && elseIdx < 0 {
				elseIdx = i
			}
		case decode.OpEnd:
			depth--
			if depth == 0 {
				return elseIdx, i
			}
		}
	}
	return elseIdx, len(code)
}

// stepControl handles the control-flow opcode family. It returns
// (outcome, handled) — handled is false for opcodes this function
// doesn't own, so the caller falls through to numeric/memory handling.
func (in *Interpreter) stepControl(code []decode.Instruction, pc *int) (Outcome, bool) {
	instr := code[*pc]
	switch instr.Kind {
	case decode.OpNop:
		return Ok, true

	case decode.OpUnreachable:
		return Trap(ErrUnreachable), true

	case decode.OpBlock:
		end := matchingEnd(code, *pc)
		in.pushLabel(blockLabel{
			Label:   Label{Arity: int(instr.A), StackBase: in.Stack.Len(), Target: end},
			ElseIdx: -1,
		})
		return Ok, true

	case decode.OpLoop:
		end := matchingEnd(code, *pc)
		in.pushLabel(blockLabel{
			Label:   Label{Arity: int(instr.A), StackBase: in.Stack.Len(), IsLoop: true, Target: *pc},
			ElseIdx: -1,
		})
		_ = end
		return Ok, true

	case decode.OpIf:
		cond := in.Stack.Pop()
		elseIdx, end := matchingElseOrEnd(code, *pc)
		in.pushLabel(blockLabel{
			Label:   Label{Arity: int(instr.A), StackBase: in.Stack.Len(), Target: end},
			ElseIdx: elseIdx,
		})
		if in.truthy(cond) {
			return Ok, true
		}
		if elseIdx >= 0 {
			*pc = elseIdx + 1
			return Outcome{Kind: OutcomeJump}, true
		}
		in.popLabel()
		*pc = end + 1
		return Outcome{Kind: OutcomeJump}, true

	case decode.OpElse:
		lbl := in.curLabel()
		*pc = lbl.Target + 1
		in.popLabel()
		return Outcome{Kind: OutcomeJump}, true

	case decode.OpEnd:
		if len(in.labelStack) > 0 {
			in.popLabel()
		}
		return Ok, true

	case decode.OpBr:
		return in.branch(pc, int(instr.A)), true

	case decode.OpBrIf:
		cond := in.Stack.Pop()
		if !in.truthy(cond) {
			return Ok, true
		}
		return in.branch(pc, int(instr.A)), true

	case decode.OpBrTable:
		// This subset's decoder does not emit br_table (it requires a
		// variable-length immediate vector the flat 4-wide instruction
		// record has no room for); the default-level fallback below
		// keeps the opcode dispatchable for hand-built instruction
		// streams that only ever use the default target.
		return in.branch(pc, int(instr.A)), true

	case decode.OpReturn:
		return Return, true

	case decode.OpCall:
		return in.callFunction(int(instr.A)), true

	case decode.OpDrop:
		in.Stack.Pop()
		return Ok, true

	case decode.OpSelect:
		cond := in.Stack.Pop()
		b := in.Stack.Pop()
		a := in.Stack.Pop()
		if in.truthy(cond) {
			in.Stack.Push(a)
		} else {
			in.Stack.Push(b)
		}
		return Ok, true
	}
	return Ok, false
}

func (in *Interpreter) truthy(v StackValue) bool {
	return in.concreteWord(v) != 0
}

func (in *Interpreter) pushLabel(l blockLabel) {
	in.labelStack = append(in.labelStack, l)
}

func (in *Interpreter) popLabel() blockLabel {
	n := len(in.labelStack)
	l := in.labelStack[n-1]
	in.labelStack = in.labelStack[:n-1]
	return l
}

func (in *Interpreter) curLabel() blockLabel {
	return in.labelStack[len(in.labelStack)-1]
}

// branch implements br/br_if's target resolution: level 0 is the
// innermost active label. Values above the target's StackBase equal to
// its declared Arity are preserved across the jump (WASM's
// branch-with-operands convention); a level that escapes every local
// label returns OutcomeBranch so run() treats it as an early return.
// Branching to a loop label jumps back to the loop header (re-entering
// it); branching to a block/if label jumps past the matching end.
func (in *Interpreter) branch(pc *int, level int) Outcome {
	if level >= len(in.labelStack) {
		return Branch(level - len(in.labelStack) + 1)
	}
	idx := len(in.labelStack) - 1 - level
	lbl := in.labelStack[idx]

	kept := in.Stack.PopN(lbl.Arity)
	in.Stack.Truncate(lbl.StackBase)
	for _, v := range kept {
		in.Stack.Push(v)
	}

	if lbl.IsLoop {
		// Re-executing the loop opcode at Target pushes a fresh label.
		in.labelStack = in.labelStack[:idx]
		*pc = lbl.Target
	} else {
		in.labelStack = in.labelStack[:idx]
		*pc = lbl.Target + 1
	}
	return Outcome{Kind: OutcomeJump}
}
