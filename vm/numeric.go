// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"math/bits"

	"github.com/ligetron/zkvm/backend"
	"github.com/ligetron/zkvm/decode"
	"github.com/ligetron/zkvm/field"
	"github.com/ligetron/zkvm/witness"
)

// stepNumeric dispatches every integer opcode family. Per opcode the
// contract is: pop operands; if every operand is concrete, compute in
// native width modulo 2^32/2^64 and push the result; otherwise promote
// to witnesses and fall through to the matching constraint-emitting
// circuit path in package backend. Two groups have no circuit path: the
// wrap/extend conversions always read their operand's value as a plain
// word and push a concrete result, and the signed comparisons
// (lt_s/gt_s/le_s/ge_s) trap with ErrTypeMismatch when an operand is a
// witness.
func (in *Interpreter) stepNumeric(instr decode.Instruction) (Outcome, bool) {
	switch instr.Kind {
	case decode.OpI32Const:
		in.Stack.Push(I32(uint32(instr.A)))
		return Ok, true
	case decode.OpI64Const:
		in.Stack.Push(I64(uint64(instr.A)))
		return Ok, true

	case decode.OpI32WrapI64:
		v := in.Stack.Pop()
		in.Stack.Push(I32(uint32(in.concreteWord(v))))
		return Ok, true
	case decode.OpI64ExtendI32U:
		v := in.Stack.Pop()
		in.Stack.Push(I64(uint64(uint32(in.concreteWord(v)))))
		return Ok, true
	case decode.OpI64ExtendI32S:
		v := in.Stack.Pop()
		in.Stack.Push(I64(uint64(int64(int32(in.concreteWord(v))))))
		return Ok, true
	case decode.OpI32Extend8S:
		v := in.Stack.Pop()
		in.Stack.Push(I32(uint32(int32(int8(in.concreteWord(v))))))
		return Ok, true
	case decode.OpI32Extend16S:
		v := in.Stack.Pop()
		in.Stack.Push(I32(uint32(int32(int16(in.concreteWord(v))))))
		return Ok, true
	case decode.OpI64Extend8S:
		v := in.Stack.Pop()
		in.Stack.Push(I64(uint64(int64(int8(in.concreteWord(v))))))
		return Ok, true
	case decode.OpI64Extend16S:
		v := in.Stack.Pop()
		in.Stack.Push(I64(uint64(int64(int16(in.concreteWord(v))))))
		return Ok, true
	case decode.OpI64Extend32S:
		v := in.Stack.Pop()
		in.Stack.Push(I64(uint64(int64(int32(in.concreteWord(v))))))
		return Ok, true
	}

	width, family, ok := classify(instr.Kind)
	if !ok {
		return Ok, false
	}

	switch family {
	case famEqz:
		a := in.Stack.Pop()
		return in.binaryOrUnaryResult(func() (uint64, bool) {
			return boolWord(in.concreteWord(a) == 0), true
		}, func() witness.Handle {
			ha := in.ensureWitness(a, width)
			return backend.Eqz(in.Manager, ha, width)
		}, a.IsConcrete(), width)
	case famUnary:
		a := in.Stack.Pop()
		return in.unaryOp(instr.Kind, a, width)
	default:
		b := in.Stack.Pop()
		a := in.Stack.Pop()
		return in.binaryOp(instr.Kind, a, b, width)
	}
}

type opFamily uint8

const (
	famBinary opFamily = iota
	famUnary
	famEqz
)

func classify(k decode.OpKind) (width int, fam opFamily, ok bool) {
	switch k {
	case decode.OpI32Eqz:
		return 32, famEqz, true
	case decode.OpI64Eqz:
		return 64, famEqz, true
	case decode.OpI32Clz, decode.OpI32Ctz, decode.OpI32Popcnt:
		return 32, famUnary, true
	case decode.OpI64Clz, decode.OpI64Ctz, decode.OpI64Popcnt:
		return 64, famUnary, true
	case decode.OpI32Eq, decode.OpI32Ne, decode.OpI32LtS, decode.OpI32LtU,
		decode.OpI32GtS, decode.OpI32GtU, decode.OpI32LeS, decode.OpI32LeU,
		decode.OpI32GeS, decode.OpI32GeU,
		decode.OpI32Add, decode.OpI32Sub, decode.OpI32Mul,
		decode.OpI32DivS, decode.OpI32DivU, decode.OpI32RemS, decode.OpI32RemU,
		decode.OpI32And, decode.OpI32Or, decode.OpI32Xor,
		decode.OpI32Shl, decode.OpI32ShrS, decode.OpI32ShrU,
		decode.OpI32Rotl, decode.OpI32Rotr:
		return 32, famBinary, true
	case decode.OpI64Eq, decode.OpI64Ne, decode.OpI64LtS, decode.OpI64LtU,
		decode.OpI64GtS, decode.OpI64GtU, decode.OpI64LeS, decode.OpI64LeU,
		decode.OpI64GeS, decode.OpI64GeU,
		decode.OpI64Add, decode.OpI64Sub, decode.OpI64Mul,
		decode.OpI64DivS, decode.OpI64DivU, decode.OpI64RemS, decode.OpI64RemU,
		decode.OpI64And, decode.OpI64Or, decode.OpI64Xor,
		decode.OpI64Shl, decode.OpI64ShrS, decode.OpI64ShrU,
		decode.OpI64Rotl, decode.OpI64Rotr:
		return 64, famBinary, true
	}
	return 0, 0, false
}

func mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(width)) - 1
}

func boolWord(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func signExtend(v uint64, width int) int64 {
	shift := uint(64 - width)
	return int64(v<<shift) >> shift
}

func (in *Interpreter) ensureWitness(v StackValue, width int) witness.Handle {
	if v.Kind == KindWitness {
		return v.Witness
	}
	val := in.concreteWord(v) & mask(width)
	return in.Manager.AcquireWitness(fieldPtr(field.FromUint64(val)))
}

// binaryOrUnaryResult pushes a concrete or witness boolean-ish result
// depending on operand concreteness. It releases no operand handles.
func (in *Interpreter) binaryOrUnaryResult(concrete func() (uint64, bool), circuit func() witness.Handle, isConcrete bool, width int) (Outcome, bool) {
	if isConcrete {
		v, _ := concrete()
		in.Stack.Push(I32(uint32(v)))
		return Ok, true
	}
	h := circuit()
	in.Stack.Push(WitnessValue(h, 1))
	return Ok, true
}

func (in *Interpreter) unaryOp(kind decode.OpKind, a StackValue, width int) (Outcome, bool) {
	if a.IsConcrete() {
		v := in.concreteWord(a) & mask(width)
		var result uint64
		switch kind {
		case decode.OpI32Clz:
			result = uint64(bits.LeadingZeros32(uint32(v)))
		case decode.OpI64Clz:
			result = uint64(bits.LeadingZeros64(v))
		case decode.OpI32Ctz:
			if v == 0 {
				result = 32
			} else {
				result = uint64(bits.TrailingZeros32(uint32(v)))
			}
		case decode.OpI64Ctz:
			if v == 0 {
				result = 64
			} else {
				result = uint64(bits.TrailingZeros64(v))
			}
		case decode.OpI32Popcnt:
			result = uint64(bits.OnesCount32(uint32(v)))
		case decode.OpI64Popcnt:
			result = uint64(bits.OnesCount64(v))
		}
		in.pushConcrete(result, width)
		return Ok, true
	}

	h := in.ensureWitness(a, width)
	bundle := backend.Decompose(in.Manager, h, width)

	switch kind {
	case decode.OpI32Popcnt, decode.OpI64Popcnt:
		acc := bundle.At(0)
		in.Manager.Retain(acc)
		for i := 1; i < bundle.Len(); i++ {
			next := backend.Add(in.Manager, acc, bundle.At(i))
			_ = in.Manager.Release(acc)
			acc = next
		}
		_ = bundle.ReleaseAll(in.Manager)
		in.Stack.Push(WitnessValue(acc, width))
		return Ok, true

	case decode.OpI32Ctz, decode.OpI64Ctz:
		out := backend.CtzBits(in.Manager, bundle)
		_ = bundle.ReleaseAll(in.Manager)
		in.Stack.Push(WitnessValue(out, width))
		return Ok, true

	case decode.OpI32Clz, decode.OpI64Clz:
		out := backend.ClzBits(in.Manager, bundle)
		_ = bundle.ReleaseAll(in.Manager)
		in.Stack.Push(WitnessValue(out, width))
		return Ok, true
	}
	return Trap(ErrTypeMismatch), true
}

func (in *Interpreter) pushConcrete(v uint64, width int) {
	if width == 64 {
		in.Stack.Push(I64(v))
	} else {
		in.Stack.Push(I32(uint32(v)))
	}
}

func (in *Interpreter) binaryOp(kind decode.OpKind, a, b StackValue, width int) (Outcome, bool) {
	if a.IsConcrete() && b.IsConcrete() {
		return in.concreteBinary(kind, a, b, width)
	}
	return in.circuitBinary(kind, a, b, width)
}

func (in *Interpreter) concreteBinary(kind decode.OpKind, a, b StackValue, width int) (Outcome, bool) {
	x := in.concreteWord(a) & mask(width)
	y := in.concreteWord(b) & mask(width)
	m := mask(width)

	switch kind {
	case decode.OpI32Add, decode.OpI64Add:
		in.pushConcrete((x+y)&m, width)
	case decode.OpI32Sub, decode.OpI64Sub:
		in.pushConcrete((x-y)&m, width)
	case decode.OpI32Mul, decode.OpI64Mul:
		in.pushConcrete((x*y)&m, width)
	case decode.OpI32DivS, decode.OpI64DivS:
		if y == 0 {
			return Trap(ErrDivideByZero), true
		}
		sx, sy := signExtend(x, width), signExtend(y, width)
		in.pushConcrete(uint64(sx/sy)&m, width)
	case decode.OpI32DivU, decode.OpI64DivU:
		if y == 0 {
			return Trap(ErrDivideByZero), true
		}
		in.pushConcrete((x/y)&m, width)
	case decode.OpI32RemS, decode.OpI64RemS:
		if y == 0 {
			return Trap(ErrDivideByZero), true
		}
		sx, sy := signExtend(x, width), signExtend(y, width)
		in.pushConcrete(uint64(sx%sy)&m, width)
	case decode.OpI32RemU, decode.OpI64RemU:
		if y == 0 {
			return Trap(ErrDivideByZero), true
		}
		in.pushConcrete((x%y)&m, width)
	case decode.OpI32And, decode.OpI64And:
		in.pushConcrete(x&y, width)
	case decode.OpI32Or, decode.OpI64Or:
		in.pushConcrete(x|y, width)
	case decode.OpI32Xor, decode.OpI64Xor:
		in.pushConcrete(x^y, width)
	case decode.OpI32Shl, decode.OpI64Shl:
		n := y % uint64(width)
		in.pushConcrete((x<<n)&m, width)
	case decode.OpI32ShrU, decode.OpI64ShrU:
		n := y % uint64(width)
		in.pushConcrete((x>>n)&m, width)
	case decode.OpI32ShrS, decode.OpI64ShrS:
		n := y % uint64(width)
		in.pushConcrete(uint64(signExtend(x, width)>>n)&m, width)
	case decode.OpI32Rotl:
		n := uint(y % 32)
		in.pushConcrete(uint64(bits.RotateLeft32(uint32(x), int(n))), width)
	case decode.OpI64Rotl:
		n := uint(y % 64)
		in.pushConcrete(bits.RotateLeft64(x, int(n)), width)
	case decode.OpI32Rotr:
		n := uint(y % 32)
		in.pushConcrete(uint64(bits.RotateLeft32(uint32(x), -int(n))), width)
	case decode.OpI64Rotr:
		n := uint(y % 64)
		in.pushConcrete(bits.RotateLeft64(x, -int(n)), width)
	case decode.OpI32Eq, decode.OpI64Eq:
		in.pushConcrete(boolWord(x == y), width)
	case decode.OpI32Ne, decode.OpI64Ne:
		in.pushConcrete(boolWord(x != y), width)
	case decode.OpI32LtU, decode.OpI64LtU:
		in.pushConcrete(boolWord(x < y), width)
	case decode.OpI32GtU, decode.OpI64GtU:
		in.pushConcrete(boolWord(x > y), width)
	case decode.OpI32LeU, decode.OpI64LeU:
		in.pushConcrete(boolWord(x <= y), width)
	case decode.OpI32GeU, decode.OpI64GeU:
		in.pushConcrete(boolWord(x >= y), width)
	case decode.OpI32LtS, decode.OpI64LtS:
		in.pushConcrete(boolWord(signExtend(x, width) < signExtend(y, width)), width)
	case decode.OpI32GtS, decode.OpI64GtS:
		in.pushConcrete(boolWord(signExtend(x, width) > signExtend(y, width)), width)
	case decode.OpI32LeS, decode.OpI64LeS:
		in.pushConcrete(boolWord(signExtend(x, width) <= signExtend(y, width)), width)
	case decode.OpI32GeS, decode.OpI64GeS:
		in.pushConcrete(boolWord(signExtend(x, width) >= signExtend(y, width)), width)
	default:
		return Trap(ErrTypeMismatch), true
	}
	return Ok, true
}

// circuitBinary promotes concrete operands to witnesses and dispatches
// to the matching algebraic-backend constraint template: add/sub
// bit-decompose w+1 and drop the carry bit, mul decomposes 2w and
// drops the high half, div/rem go through idivide_qr with a
// bitwise_gt range check, shl/shr/rotate operate on the decomposed
// bundle.
func (in *Interpreter) circuitBinary(kind decode.OpKind, a, b StackValue, width int) (Outcome, bool) {
	ha := in.ensureWitness(a, width)
	hb := in.ensureWitness(b, width)

	switch kind {
	case decode.OpI32Add, decode.OpI64Add:
		sum := backend.Add(in.Manager, ha, hb)
		bundle := backend.Decompose(in.Manager, sum, width+1)
		_ = in.Manager.Release(sum)
		dropped := witness.NewBitBundle(bundle.Handles()[:width])
		msb := bundle.At(width)
		_ = in.Manager.Release(msb)
		result := backend.Compose(in.Manager, dropped)
		in.Stack.Push(WitnessValue(result, width))
		return Ok, true

	case decode.OpI32Sub, decode.OpI64Sub:
		modulus := field.One().Shl(uint(width))
		lhs := in.Manager.AcquireWitness(fieldPtr(modulus))
		tmp := backend.Add(in.Manager, lhs, ha)
		_ = in.Manager.Release(lhs)
		diff := backend.Sub(in.Manager, tmp, hb)
		_ = in.Manager.Release(tmp)
		bundle := backend.Decompose(in.Manager, diff, width+1)
		_ = in.Manager.Release(diff)
		dropped := witness.NewBitBundle(bundle.Handles()[:width])
		msb := bundle.At(width)
		_ = in.Manager.Release(msb)
		result := backend.Compose(in.Manager, dropped)
		in.Stack.Push(WitnessValue(result, width))
		return Ok, true

	case decode.OpI32Mul, decode.OpI64Mul:
		prod := backend.Mul(in.Manager, ha, hb)
		bundle := backend.Decompose(in.Manager, prod, 2*width)
		_ = in.Manager.Release(prod)
		low := witness.NewBitBundle(bundle.Handles()[:width])
		high := witness.NewBitBundle(bundle.Handles()[width:])
		_ = high.ReleaseAll(in.Manager)
		result := backend.Compose(in.Manager, low)
		in.Stack.Push(WitnessValue(result, width))
		return Ok, true

	case decode.OpI32DivS, decode.OpI64DivS, decode.OpI32RemS, decode.OpI64RemS:
		q, r, err := backend.IDivideQR(in.Manager, ha, hb, width, true)
		if err != nil {
			return Trap(err), true
		}
		gt := backend.Gt(in.Manager, hb, r, width)
		_ = in.Manager.Release(gt) // asserts 0 <= r < |divisor| via the bitwise_gt check.
		if kind == decode.OpI32DivS || kind == decode.OpI64DivS {
			_ = in.Manager.Release(r)
			in.Stack.Push(WitnessValue(q, width))
		} else {
			_ = in.Manager.Release(q)
			in.Stack.Push(WitnessValue(r, width))
		}
		return Ok, true

	case decode.OpI32DivU, decode.OpI64DivU, decode.OpI32RemU, decode.OpI64RemU:
		q, r, err := backend.IDivideQR(in.Manager, ha, hb, width, false)
		if err != nil {
			return Trap(err), true
		}
		gt := backend.Gt(in.Manager, hb, r, width)
		_ = in.Manager.Release(gt)
		if kind == decode.OpI32DivU || kind == decode.OpI64DivU {
			_ = in.Manager.Release(r)
			in.Stack.Push(WitnessValue(q, width))
		} else {
			_ = in.Manager.Release(q)
			in.Stack.Push(WitnessValue(r, width))
		}
		return Ok, true

	case decode.OpI32And, decode.OpI64And:
		result := backend.And(in.Manager, ha, hb, width)
		in.Stack.Push(WitnessValue(result, width))
		return Ok, true
	case decode.OpI32Or, decode.OpI64Or:
		x := backend.And(in.Manager, ha, hb, width)
		xo := backend.Xor(in.Manager, ha, hb, width)
		result := backend.Add(in.Manager, x, xo)
		_ = in.Manager.Release(x)
		_ = in.Manager.Release(xo)
		in.Stack.Push(WitnessValue(result, width))
		return Ok, true
	case decode.OpI32Xor, decode.OpI64Xor:
		result := backend.Xor(in.Manager, ha, hb, width)
		in.Stack.Push(WitnessValue(result, width))
		return Ok, true

	case decode.OpI32Shl, decode.OpI64Shl, decode.OpI32ShrU, decode.OpI64ShrU,
		decode.OpI32ShrS, decode.OpI64ShrS, decode.OpI32Rotl, decode.OpI64Rotl,
		decode.OpI32Rotr, decode.OpI64Rotr:
		// Shift/rotate amounts are treated as revealed control values
		// rather than secret-dependent ones; the shift count itself
		// never enters the constraint system as a witness.
		n := int(in.concreteWord(b)) % width
		_ = hb
		bundle := backend.Decompose(in.Manager, ha, width)
		result := shiftRotateBits(in.Manager, bundle, kind, n, width)
		in.Stack.Push(WitnessValue(result, width))
		return Ok, true

	case decode.OpI32Eq, decode.OpI64Eq:
		result := backend.Eq(in.Manager, ha, hb, width)
		in.Stack.Push(WitnessValue(result, 1))
		return Ok, true
	case decode.OpI32Ne, decode.OpI64Ne:
		eq := backend.Eq(in.Manager, ha, hb, width)
		result := backend.Sub(in.Manager, in.Manager.AcquireWitness(fieldPtr(field.One())), eq)
		_ = in.Manager.Release(eq)
		in.Stack.Push(WitnessValue(result, 1))
		return Ok, true
	case decode.OpI32LtU, decode.OpI64LtU:
		result := backend.Gt(in.Manager, hb, ha, width)
		in.Stack.Push(WitnessValue(result, 1))
		return Ok, true
	case decode.OpI32GtU, decode.OpI64GtU:
		result := backend.Gt(in.Manager, ha, hb, width)
		in.Stack.Push(WitnessValue(result, 1))
		return Ok, true
	case decode.OpI32LeU, decode.OpI64LeU:
		gt := backend.Gt(in.Manager, ha, hb, width)
		result := backend.Sub(in.Manager, in.Manager.AcquireWitness(fieldPtr(field.One())), gt)
		_ = in.Manager.Release(gt)
		in.Stack.Push(WitnessValue(result, 1))
		return Ok, true
	case decode.OpI32GeU, decode.OpI64GeU:
		gt := backend.Gt(in.Manager, hb, ha, width)
		result := backend.Sub(in.Manager, in.Manager.AcquireWitness(fieldPtr(field.One())), gt)
		_ = in.Manager.Release(gt)
		in.Stack.Push(WitnessValue(result, 1))
		return Ok, true
	}

	return Trap(ErrTypeMismatch), true
}

// shiftRotateBits applies shl/shr_u/shr_s/rotl/rotr to a decomposed bit
// bundle and recomposes the result. Shift drops bits off one end and
// fills with zero (unsigned) or the sign bit (arithmetic shr); rotate
// is a pure index permutation with no new constraints.
func shiftRotateBits(m *witness.Manager, bundle *witness.BitBundle, kind decode.OpKind, n, width int) witness.Handle {
	srcBits := bundle.Handles()
	out := make([]witness.Handle, width)

	switch kind {
	case decode.OpI32Shl, decode.OpI64Shl:
		zero := m.AcquireWitness(fieldPtr(field.Zero()))
		for i := 0; i < width; i++ {
			if i < n {
				m.Retain(zero)
				out[i] = zero
			} else {
				out[i] = srcBits[i-n]
			}
		}
		_ = m.Release(zero)
		for _, dropped := range srcBits[width-n:] {
			_ = m.Release(dropped)
		}
	case decode.OpI32ShrU, decode.OpI64ShrU:
		zero := m.AcquireWitness(fieldPtr(field.Zero()))
		for i := 0; i < width; i++ {
			if i+n < width {
				out[i] = srcBits[i+n]
			} else {
				m.Retain(zero)
				out[i] = zero
			}
		}
		_ = m.Release(zero)
		for _, dropped := range srcBits[:n] {
			_ = m.Release(dropped)
		}
	case decode.OpI32ShrS, decode.OpI64ShrS:
		sign := srcBits[width-1]
		for i := 0; i < width; i++ {
			if i+n < width {
				out[i] = srcBits[i+n]
			} else {
				m.Retain(sign)
				out[i] = sign
			}
		}
		for _, dropped := range srcBits[:n] {
			_ = m.Release(dropped)
		}
	case decode.OpI32Rotl, decode.OpI64Rotl:
		for i := 0; i < width; i++ {
			out[i] = srcBits[(i-n+width)%width]
		}
	case decode.OpI32Rotr, decode.OpI64Rotr:
		for i := 0; i < width; i++ {
			out[i] = srcBits[(i+n)%width]
		}
	}
	return backend.Compose(m, witness.NewBitBundle(out))
}
