// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vm implements the opcode interpreter: a stack machine executing
// a decoded WASM-subset instruction stream, where every stack value may
// be a concrete numeric, a lazy-witness handle, or a decomposed-bits
// bundle, and every numeric opcode carries both a concrete fast path and
// a constraint-emitting circuit path.
package vm

import (
	"github.com/ligetron/zkvm/witness"
)

// ValueKind tags the active member of a StackValue.
type ValueKind uint8

const (
	KindI32 ValueKind = iota
	KindI64
	KindRef
	KindWitness
	KindBits
	KindFrame
	KindLabel
)

// StackValue is the tagged union the interpreter's operand stack holds.
type StackValue struct {
	Kind ValueKind

	// Concrete numerics (KindI32/KindI64/KindRef).
	Num uint64

	// KindWitness.
	Witness witness.Handle

	// KindBits.
	Bits *witness.BitBundle
	// BitWidth records the bit width a KindBits value represents,
	// independent of Bits.Len() bookkeeping, so opcodes that coerce
	// concrete<->witness know the intended numeric width.
	BitWidth int

	// KindFrame.
	Frame *Frame

	// KindLabel.
	Label *Label
}

// IsConcrete reports whether the value is a plain numeric (not witness
// material).
func (v StackValue) IsConcrete() bool {
	return v.Kind == KindI32 || v.Kind == KindI64 || v.Kind == KindRef
}

// I32 builds a concrete i32 stack value (masked to 32 bits).
func I32(v uint32) StackValue { return StackValue{Kind: KindI32, Num: uint64(v)} }

// I64 builds a concrete i64 stack value.
func I64(v uint64) StackValue { return StackValue{Kind: KindI64, Num: v} }

// WitnessValue builds a witness-typed stack value of the given bit width.
func WitnessValue(h witness.Handle, width int) StackValue {
	return StackValue{Kind: KindWitness, Witness: h, BitWidth: width}
}

// BitsValue builds a decomposed-bits stack value.
func BitsValue(b *witness.BitBundle, width int) StackValue {
	return StackValue{Kind: KindBits, Bits: b, BitWidth: width}
}

// Stack is the interpreter's operand stack. The interpreter keeps labels
// in a separate label stack and locals in Interpreter.curLocals, so only
// operand values are pushed here.
type Stack struct {
	values []StackValue
}

// NewStack returns an empty stack with headroom preallocated.
func NewStack() *Stack {
	return &Stack{values: make([]StackValue, 0, 64)}
}

// Push appends a value to the top of the stack.
func (s *Stack) Push(v StackValue) { s.values = append(s.values, v) }

// Pop removes and returns the top value. Panics on underflow: stack
// discipline is guaranteed by the decoder/interpreter pairing, so an
// underflow here is a programmer error, not a guest-triggerable trap.
func (s *Stack) Pop() StackValue {
	n := len(s.values)
	v := s.values[n-1]
	s.values = s.values[:n-1]
	return v
}

// Peek returns the top value without removing it.
func (s *Stack) Peek() StackValue { return s.values[len(s.values)-1] }

// PeekAt returns the value at depth i from the top (0 = top).
func (s *Stack) PeekAt(i int) StackValue { return s.values[len(s.values)-1-i] }

// Len reports the number of entries currently on the stack.
func (s *Stack) Len() int { return len(s.values) }

// Truncate drops the stack back to length n.
func (s *Stack) Truncate(n int) { s.values = s.values[:n] }

// PopN pops n values in stack order (bottom-most of the popped group
// first), matching the order WASM calling convention expects for
// argument lists.
func (s *Stack) PopN(n int) []StackValue {
	out := make([]StackValue, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = s.Pop()
	}
	return out
}
