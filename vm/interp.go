// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"fmt"

	"github.com/ligetron/zkvm/backend"
	"github.com/ligetron/zkvm/decode"
	"github.com/ligetron/zkvm/field"
	"github.com/ligetron/zkvm/witness"
)

// HostFunction is one host-module entry point: a "void(Context*)"
// function that reads its parameters from the operand stack top-down
// and pushes its results, per the guest ABI calling convention.
type HostFunction func(in *Interpreter) Outcome

// HostModule resolves field names to entry points within one imported
// module namespace (e.g. "bn254fr", "vbn254fr").
type HostModule interface {
	Lookup(field string) (HostFunction, bool)
}

// Interpreter runs one decoded instruction stream against a witness
// manager and a module instance. The same Interpreter type is shared by
// all three prover stages; only the Manager's Sink differs.
type Interpreter struct {
	Manager *witness.Manager
	Module  *ModuleInstance
	Stack   *Stack
	Hosts   map[string]HostModule

	curLocals  []StackValue
	labelStack []blockLabel
}

// NewInterpreter builds an interpreter bound to a manager, module
// instance, and host module registry.
func NewInterpreter(m *witness.Manager, mod *ModuleInstance, hosts map[string]HostModule) *Interpreter {
	return &Interpreter{
		Manager: m,
		Module:  mod,
		Stack:   NewStack(),
		Hosts:   hosts,
	}
}

// CallExported runs the named export with the given concrete i32/i64
// argument words, returning the declared result words or a trap.
func (in *Interpreter) CallExported(name string, args []uint64) ([]uint64, error) {
	ref, ok := in.Module.Exports[name]
	if !ok {
		return nil, fmt.Errorf("vm: no export named %q", name)
	}
	if ref.Kind != ExportFunc {
		return nil, fmt.Errorf("vm: export %q is not a function", name)
	}

	fn := in.Module.ResolveFunc(ref.Index)
	for i, a := range args {
		if i >= len(fn.Type.Params) {
			break
		}
		if fn.Type.Params[i] == decode.ValI64 {
			in.Stack.Push(I64(a))
		} else {
			in.Stack.Push(I32(uint32(a)))
		}
	}

	outcome := in.callFunction(ref.Index)
	if outcome.IsTrap() {
		return nil, outcome.Err
	}

	results := make([]uint64, len(fn.Type.Results))
	for i := len(results) - 1; i >= 0; i-- {
		v := in.Stack.Pop()
		results[i] = in.concreteWord(v)
	}
	return results, nil
}

// concreteWord resolves a stack value to a plain machine word, revealing
// a witness value if necessary. It is used at the program's declared
// output boundary and wherever an operand is read as a plain word:
// branch conditions, memory addresses, shift counts, width conversions
// and PopConcrete.
func (in *Interpreter) concreteWord(v StackValue) uint64 {
	switch v.Kind {
	case KindI32, KindI64, KindRef:
		return v.Num
	case KindWitness:
		return in.Manager.Value(v.Witness).BigInt().Uint64()
	case KindBits:
		acc := uint64(0)
		for i := 0; i < v.Bits.Len(); i++ {
			if !in.Manager.Value(v.Bits.At(i)).IsZero() {
				acc |= 1 << uint(i)
			}
		}
		return acc
	}
	return 0
}

// PopConcrete pops the top-of-stack value and reveals it as a plain
// machine word. Host modules use this for operands that are always
// concrete by construction (guest memory addresses, immediate counts).
func (in *Interpreter) PopConcrete() uint64 {
	return in.concreteWord(in.Stack.Pop())
}

// PushWitness pushes a witness-backed value of the given bit width.
func (in *Interpreter) PushWitness(h witness.Handle, width int) {
	in.Stack.Push(WitnessValue(h, width))
}

func (in *Interpreter) callFunction(funcIdx int) Outcome {
	fn := in.Module.ResolveFunc(funcIdx)
	if fn.IsHostImport {
		mod, ok := in.Hosts[fn.HostModule]
		if !ok {
			return Trap(fmt.Errorf("%w: host module %q not registered", ErrBadHostCall, fn.HostModule))
		}
		hostFn, ok := mod.Lookup(fn.HostField)
		if !ok {
			return Trap(fmt.Errorf("%w: host field %q.%q", ErrBadHostCall, fn.HostModule, fn.HostField))
		}
		return hostFn(in)
	}

	frameBase := in.Stack.Len() - len(fn.Type.Params)
	locals := make([]StackValue, len(fn.Type.Params)+len(fn.Body.Locals))
	args := in.Stack.PopN(len(fn.Type.Params))
	copy(locals, args)
	for i := len(fn.Type.Params); i < len(locals); i++ {
		locals[i] = I32(0)
	}

	savedLocals := in.curLocals
	savedLabels := in.labelStack
	in.curLocals = locals
	in.labelStack = nil

	outcome := in.run(fn.Body.Code)

	in.curLocals = savedLocals
	in.labelStack = savedLabels

	if outcome.IsTrap() {
		return outcome
	}
	_ = frameBase
	return Ok
}

// run executes a flat instruction stream to completion, returning Ok,
// a Branch that escaped every local label (propagated to the caller as
// a Return once it reaches function scope), or a Trap.
func (in *Interpreter) run(code []decode.Instruction) Outcome {
	pc := 0
	for pc < len(code) {
		outcome := in.step(code, &pc)
		switch outcome.Kind {
		case OutcomeOk:
			pc++
		case OutcomeJump:
			// step already repositioned pc.
		case OutcomeTrap:
			return outcome
		case OutcomeReturn:
			return Ok
		case OutcomeBranch:
			// A branch that unwound past every local label escapes the
			// function entirely; treat it as an early return.
			return Ok
		}
	}
	return Ok
}
