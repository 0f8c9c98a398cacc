// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package hostabi

import (
	"math/big"

	"github.com/ligetron/zkvm/backend"
	"github.com/ligetron/zkvm/field"
	"github.com/ligetron/zkvm/vm"
	"github.com/ligetron/zkvm/witness"
)

// bn254Fr is the scalar field host module: one handle per operand, read
// and written through guest-memory addresses holding an arena index.
// Guest call sites push their arguments left-to-right and declare
// parameters in that same order; the calling convention therefore pops
// them in reverse. Modular add/sub/neg are unconstrained linear
// combinations (package backend's ConstrainLinear/ConstrainAffine read
// operand values without attaching them), so operands stay usable for
// later calls with no explicit retain. Multiplication and the assertion
// primitives attach to the quadratic/linear rows; the manager clones on
// conflict, so reusing an operand across multiple constrained calls
// never needs host-side bookkeeping either.
type bn254Fr struct{}

func newBN254Fr() *bn254Fr { return &bn254Fr{} }

func (b *bn254Fr) Lookup(fieldName string) (vm.HostFunction, bool) {
	fn, ok := bn254FrTable[fieldName]
	return fn, ok
}

var bn254FrTable = map[string]vm.HostFunction{
	"alloc": bn254Alloc,
	"free":  bn254Free,
	"set":   bn254Set,
	"copy":  bn254Copy,
	"print": bn254Print,

	"addmod": bn254Addmod,
	"submod": bn254Submod,
	"negmod": bn254Negmod,
	"mulmod": bn254Mulmod,
	"divmod": bn254Divmod,
	"invmod": bn254Invmod,
	"powmod": bn254Powmod,

	"eqmod": bn254Eqmod,

	"assert_equal":    bn254AssertEqual,
	"assert_linear":   bn254AssertLinear,
	"assert_quadratic": bn254AssertQuadratic,
	"assert_mul":      bn254AssertQuadratic,

	"to_bits": bn254ToBits,
}

func init() { Register("bn254fr", newBN254Fr()) }

func bn254Alloc(in *vm.Interpreter) vm.Outcome {
	addr := popAddr(in)
	h := in.Manager.AcquireInstance()
	if err := writeHandle(in.Module.Memory(), addr, h); err != nil {
		return vm.Trap(err)
	}
	return vm.Ok
}

func bn254Free(in *vm.Interpreter) vm.Outcome {
	addr := popAddr(in)
	h, err := readHandle(in.Module.Memory(), addr)
	if err != nil {
		return vm.Trap(err)
	}
	if err := in.Manager.Release(h); err != nil {
		return vm.Trap(err)
	}
	return vm.Ok
}

func bn254Set(in *vm.Interpreter) vm.Outcome {
	value := in.PopConcrete()
	addr := popAddr(in)
	mem := in.Module.Memory()

	old, err := readHandle(mem, addr)
	if err != nil {
		return vm.Trap(err)
	}
	val := field.FromUint64(value)
	fresh := in.Manager.AcquireWitness(&val)
	_ = in.Manager.Release(old)
	if err := writeHandle(mem, addr, fresh); err != nil {
		return vm.Trap(err)
	}
	return vm.Ok
}

func bn254Copy(in *vm.Interpreter) vm.Outcome {
	dstAddr := popAddr(in)
	srcAddr := popAddr(in)
	mem := in.Module.Memory()

	src, err := readHandle(mem, srcAddr)
	if err != nil {
		return vm.Trap(err)
	}
	in.Manager.Retain(src)
	old, err := readHandle(mem, dstAddr)
	if err != nil {
		return vm.Trap(err)
	}
	_ = in.Manager.Release(old)
	if err := writeHandle(mem, dstAddr, src); err != nil {
		return vm.Trap(err)
	}
	return vm.Ok
}

func bn254Print(in *vm.Interpreter) vm.Outcome {
	addr := popAddr(in)
	h, err := readHandle(in.Module.Memory(), addr)
	if err != nil {
		return vm.Trap(err)
	}
	_ = in.Manager.Value(h) // read-only: the guest's bn254fr_print is a debug aid with no circuit effect.
	return vm.Ok
}

// loadBinaryOperands pops (out, a, b) addresses per the reverse-of-
// declaration convention and resolves a's and b's handles.
func loadBinaryOperands(in *vm.Interpreter) (outAddr int, ha, hb witness.Handle, err error) {
	bAddr := popAddr(in)
	aAddr := popAddr(in)
	outAddr = popAddr(in)
	mem := in.Module.Memory()
	if ha, err = readHandle(mem, aAddr); err != nil {
		return
	}
	hb, err = readHandle(mem, bAddr)
	return
}

func writeResult(in *vm.Interpreter, outAddr int, result witness.Handle) vm.Outcome {
	mem := in.Module.Memory()
	old, err := readHandle(mem, outAddr)
	if err != nil {
		return vm.Trap(err)
	}
	_ = in.Manager.Release(old)
	if err := writeHandle(mem, outAddr, result); err != nil {
		return vm.Trap(err)
	}
	return vm.Ok
}

func bn254Addmod(in *vm.Interpreter) vm.Outcome {
	outAddr, ha, hb, err := loadBinaryOperands(in)
	if err != nil {
		return vm.Trap(err)
	}
	return writeResult(in, outAddr, backend.Add(in.Manager, ha, hb))
}

func bn254Submod(in *vm.Interpreter) vm.Outcome {
	outAddr, ha, hb, err := loadBinaryOperands(in)
	if err != nil {
		return vm.Trap(err)
	}
	return writeResult(in, outAddr, backend.Sub(in.Manager, ha, hb))
}

func bn254Mulmod(in *vm.Interpreter) vm.Outcome {
	outAddr, ha, hb, err := loadBinaryOperands(in)
	if err != nil {
		return vm.Trap(err)
	}
	return writeResult(in, outAddr, backend.Mul(in.Manager, ha, hb))
}

func bn254Negmod(in *vm.Interpreter) vm.Outcome {
	aAddr := popAddr(in)
	outAddr := popAddr(in)
	ha, err := readHandle(in.Module.Memory(), aAddr)
	if err != nil {
		return vm.Trap(err)
	}
	return writeResult(in, outAddr, backend.Neg(in.Manager, ha))
}

func bn254Divmod(in *vm.Interpreter) vm.Outcome {
	outAddr, ha, hb, err := loadBinaryOperands(in)
	if err != nil {
		return vm.Trap(err)
	}
	if in.Manager.Value(hb).IsZero() {
		return vm.Trap(backend.ErrDivideByZero)
	}
	quotientVal, err := in.Manager.Value(ha).Div(in.Manager.Value(hb))
	if err != nil {
		return vm.Trap(err)
	}
	quotient := in.Manager.AcquireWitness(&quotientVal)
	product := backend.Mul(in.Manager, quotient, hb)
	resAcc, resA, cerr := in.Manager.ConstrainEqual(product, ha)
	if cerr != nil {
		return vm.Trap(cerr)
	}
	_ = in.Manager.Release(resAcc)
	if resA != ha {
		_ = in.Manager.Release(resA)
	}
	return writeResult(in, outAddr, quotient)
}

func bn254Invmod(in *vm.Interpreter) vm.Outcome {
	aAddr := popAddr(in)
	outAddr := popAddr(in)
	ha, err := readHandle(in.Module.Memory(), aAddr)
	if err != nil {
		return vm.Trap(err)
	}
	aVal := in.Manager.Value(ha)
	if aVal.IsZero() {
		return vm.Trap(backend.ErrDivideByZero)
	}
	invVal, err := aVal.Inv()
	if err != nil {
		return vm.Trap(err)
	}
	inv := in.Manager.AcquireWitness(&invVal)
	product := backend.Mul(in.Manager, inv, ha)
	checked, cerr := in.Manager.ConstrainConstant(product, field.One())
	if cerr != nil {
		return vm.Trap(cerr)
	}
	_ = in.Manager.Release(checked)
	return writeResult(in, outAddr, inv)
}

// powmod is not range-constrained against a square-and-multiply
// circuit; exponentiation is host-computed and the result re-enters
// the witness arena as a fresh unconstrained value, consistent with
// the other arena-level "allocate a new value" operations.
func bn254Powmod(in *vm.Interpreter) vm.Outcome {
	exp := in.PopConcrete()
	aAddr := popAddr(in)
	outAddr := popAddr(in)
	ha, err := readHandle(in.Module.Memory(), aAddr)
	if err != nil {
		return vm.Trap(err)
	}
	result := in.Manager.Value(ha).Pow(new(big.Int).SetUint64(exp))
	h := in.Manager.AcquireWitness(&result)
	return writeResult(in, outAddr, h)
}

func bn254Eqmod(in *vm.Interpreter) vm.Outcome {
	bAddr := popAddr(in)
	aAddr := popAddr(in)
	mem := in.Module.Memory()
	ha, err := readHandle(mem, aAddr)
	if err != nil {
		return vm.Trap(err)
	}
	hb, err := readHandle(mem, bAddr)
	if err != nil {
		return vm.Trap(err)
	}
	eq := in.Manager.Value(ha).Equal(in.Manager.Value(hb))
	word := uint64(0)
	if eq {
		word = 1
	}
	in.Stack.Push(vm.I32(uint32(word)))
	return vm.Ok
}

func bn254AssertEqual(in *vm.Interpreter) vm.Outcome {
	bAddr := popAddr(in)
	aAddr := popAddr(in)
	mem := in.Module.Memory()
	ha, err := readHandle(mem, aAddr)
	if err != nil {
		return vm.Trap(err)
	}
	hb, err := readHandle(mem, bAddr)
	if err != nil {
		return vm.Trap(err)
	}
	resA, resB, cerr := in.Manager.ConstrainEqual(ha, hb)
	if cerr != nil {
		return vm.Trap(cerr)
	}
	if resA != ha {
		_ = in.Manager.Release(resA)
	}
	if resB != hb {
		_ = in.Manager.Release(resB)
	}
	return vm.Ok
}

// assert_linear(c,a,b) asserts c == a+b.
func bn254AssertLinear(in *vm.Interpreter) vm.Outcome {
	cAddr, ha, hb, err := loadBinaryOperands(in)
	if err != nil {
		return vm.Trap(err)
	}
	hc, err := readHandle(in.Module.Memory(), cAddr)
	if err != nil {
		return vm.Trap(err)
	}
	sum := backend.Add(in.Manager, ha, hb)
	resSum, resC, cerr := in.Manager.ConstrainEqual(sum, hc)
	if cerr != nil {
		return vm.Trap(cerr)
	}
	_ = in.Manager.Release(resSum)
	if resC != hc {
		_ = in.Manager.Release(resC)
	}
	return vm.Ok
}

// assert_quadratic(c,a,b) asserts c == a*b; assert_mul is an alias of
// this same entry point under the guest-facing name the scenario tests
// use.
func bn254AssertQuadratic(in *vm.Interpreter) vm.Outcome {
	cAddr, ha, hb, err := loadBinaryOperands(in)
	if err != nil {
		return vm.Trap(err)
	}
	hc, err := readHandle(in.Module.Memory(), cAddr)
	if err != nil {
		return vm.Trap(err)
	}
	product := backend.Mul(in.Manager, ha, hb)
	resProduct, resC, cerr := in.Manager.ConstrainEqual(product, hc)
	if cerr != nil {
		return vm.Trap(cerr)
	}
	_ = in.Manager.Release(resProduct)
	if resC != hc {
		_ = in.Manager.Release(resC)
	}
	return vm.Ok
}

// to_bits decomposes the field element at addr into
// field.Modulus().BitLen() (254) boolean-constrained slots and writes
// their handles consecutively
// starting at outBase.
func bn254ToBits(in *vm.Interpreter) vm.Outcome {
	outBase := popAddr(in)
	addr := popAddr(in)
	ha, err := readHandle(in.Module.Memory(), addr)
	if err != nil {
		return vm.Trap(err)
	}
	width := field.Modulus().BitLen()
	bundle := backend.Decompose(in.Manager, ha, width)
	mem := in.Module.Memory()
	for i := 0; i < bundle.Len(); i++ {
		if err := writeHandle(mem, outBase+i*handleWordSize, bundle.At(i)); err != nil {
			return vm.Trap(err)
		}
	}
	return vm.Ok
}
