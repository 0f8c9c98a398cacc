// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import "github.com/ligetron/zkvm/decode"

// step executes exactly one instruction, advancing *pc according to the
// returned outcome's contract (see Outcome docs).
func (in *Interpreter) step(code []decode.Instruction, pc *int) Outcome {
	if outcome, handled := in.stepControl(code, pc); handled {
		return outcome
	}
	if outcome, handled := in.stepVariable(code[*pc]); handled {
		return outcome
	}
	if outcome, handled := in.stepMemory(code[*pc]); handled {
		return outcome
	}
	if outcome, handled := in.stepNumeric(code[*pc]); handled {
		return outcome
	}
	return Trap(ErrTypeMismatch)
}
