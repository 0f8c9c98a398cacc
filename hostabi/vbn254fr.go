// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package hostabi

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/ligetron/zkvm/backend"
	"github.com/ligetron/zkvm/field"
	"github.com/ligetron/zkvm/vm"
	"github.com/ligetron/zkvm/witness"
)

// vecHandle addresses one entry in vbn254Fr's vector table: a device
// vector of length l, per-element a regular witness.Handle. Witness
// arena slots are scalar, so the vector itself lives in a table local
// to this module rather than in the witness.Manager's arena; only the
// scalar elements inside it are arena-backed.
type vecHandle int32

const vecElemBytes = 32 // field.Element.Bytes() width.

// vbn254Fr is the vectorized counterpart of bn254Fr: every entry point
// takes vector handles instead of scalar ones and applies the same
// primitive elementwise. Each element still needs its own row in the
// constraint transcript, so elementwise loops here run sequentially
// against the witness manager; gpucompute's batch kernels accelerate
// the prover's own codeword arithmetic (NTT, Merkle hashing, the
// reduce-and-sum pass), not this guest-callable constraint surface.
type vbn254Fr struct {
	mu     sync.Mutex
	vecs   map[vecHandle][]witness.Handle
	nextID vecHandle
}

func newVBN254Fr() *vbn254Fr {
	return &vbn254Fr{vecs: make(map[vecHandle][]witness.Handle)}
}

func init() { Register("vbn254fr", newVBN254Fr()) }

func (v *vbn254Fr) Lookup(fieldName string) (vm.HostFunction, bool) {
	switch fieldName {
	case "alloc":
		return v.alloc, true
	case "free":
		return v.free, true
	case "len":
		return v.length, true
	case "set_bytes":
		return v.setBytes, true
	case "addmod":
		return v.binOp(backend.Add), true
	case "submod":
		return v.binOp(backend.Sub), true
	case "mulmod":
		return v.binOp(backend.Mul), true
	case "negmod":
		return v.negmod, true
	case "eqmod":
		return v.eqmod, true
	case "assert_equal":
		return v.assertEqual, true
	case "assert_quadratic", "assert_mul":
		return v.assertQuadratic, true
	}
	return nil, false
}

func (v *vbn254Fr) allocID() vecHandle {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextID++
	return v.nextID
}

func readVecHandle(mem *vm.Memory, addr int) (vecHandle, error) {
	raw, err := mem.Load(addr, handleWordSize)
	if err != nil {
		return 0, err
	}
	return vecHandle(int32(binary.LittleEndian.Uint32(raw))), nil
}

func writeVecHandle(mem *vm.Memory, addr int, h vecHandle) error {
	buf := make([]byte, handleWordSize)
	binary.LittleEndian.PutUint32(buf, uint32(int32(h)))
	return mem.Store(addr, buf, false)
}

// alloc(out_addr, length) allocates a fresh length-element vector of
// unconstrained witness slots and writes its vector handle to out_addr.
func (v *vbn254Fr) alloc(in *vm.Interpreter) vm.Outcome {
	length := int(in.PopConcrete())
	outAddr := popAddr(in)
	if length < 0 {
		return vm.Trap(fmt.Errorf("vbn254fr: negative vector length %d", length))
	}
	elems := make([]witness.Handle, length)
	for i := range elems {
		elems[i] = in.Manager.AcquireInstance()
	}
	id := v.allocID()
	v.mu.Lock()
	v.vecs[id] = elems
	v.mu.Unlock()
	if err := writeVecHandle(in.Module.Memory(), outAddr, id); err != nil {
		return vm.Trap(err)
	}
	return vm.Ok
}

func (v *vbn254Fr) lookupVec(id vecHandle) ([]witness.Handle, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	elems, ok := v.vecs[id]
	if !ok {
		return nil, fmt.Errorf("vbn254fr: unknown vector handle %d", id)
	}
	return elems, nil
}

func (v *vbn254Fr) free(in *vm.Interpreter) vm.Outcome {
	addr := popAddr(in)
	id, err := readVecHandle(in.Module.Memory(), addr)
	if err != nil {
		return vm.Trap(err)
	}
	v.mu.Lock()
	elems, ok := v.vecs[id]
	delete(v.vecs, id)
	v.mu.Unlock()
	if !ok {
		return vm.Trap(fmt.Errorf("vbn254fr: unknown vector handle %d", id))
	}
	for _, h := range elems {
		if err := in.Manager.Release(h); err != nil {
			return vm.Trap(err)
		}
	}
	return vm.Ok
}

func (v *vbn254Fr) length(in *vm.Interpreter) vm.Outcome {
	addr := popAddr(in)
	id, err := readVecHandle(in.Module.Memory(), addr)
	if err != nil {
		return vm.Trap(err)
	}
	elems, err := v.lookupVec(id)
	if err != nil {
		return vm.Trap(err)
	}
	in.Stack.Push(vm.I32(uint32(len(elems))))
	return vm.Ok
}

// setBytes(vec_addr, k, count, byte_ptr) overwrites the k-th batch of
// count elements, i.e. exactly the half-open range
// [k*count, (k+1)*count) of the vector, from count consecutive
// 32-byte field elements starting at byte_ptr. The batch is addressed
// by (k, count) rather than a raw absolute element offset so a
// mis-sized batch can never silently alias a neighboring one.
func (v *vbn254Fr) setBytes(in *vm.Interpreter) vm.Outcome {
	bytePtr := popAddr(in)
	count := int(in.PopConcrete())
	k := int(in.PopConcrete())
	vecAddr := popAddr(in)

	mem := in.Module.Memory()
	id, err := readVecHandle(mem, vecAddr)
	if err != nil {
		return vm.Trap(err)
	}
	elems, err := v.lookupVec(id)
	if err != nil {
		return vm.Trap(err)
	}
	lo := k * count
	hi := lo + count
	if count < 0 || lo < 0 || hi > len(elems) {
		return vm.Trap(fmt.Errorf("vbn254fr: set_bytes batch [%d,%d) out of range for vector of length %d", lo, hi, len(elems)))
	}
	for i := 0; i < count; i++ {
		raw, err := mem.Load(bytePtr+i*vecElemBytes, vecElemBytes)
		if err != nil {
			return vm.Trap(err)
		}
		var buf [vecElemBytes]byte
		copy(buf[:], raw)
		val := field.SetBytes(buf[:])
		fresh := in.Manager.AcquireWitness(&val)
		if err := in.Manager.Release(elems[lo+i]); err != nil {
			return vm.Trap(err)
		}
		elems[lo+i] = fresh
	}
	return vm.Ok
}

// binOp builds an elementwise entry point out of a scalar backend
// combinator shared with bn254Fr (Add, Sub, Mul), applying it pairwise
// over two equal-length vectors into a third pre-allocated vector of
// the same length.
func (v *vbn254Fr) binOp(op func(*witness.Manager, witness.Handle, witness.Handle) witness.Handle) vm.HostFunction {
	return func(in *vm.Interpreter) vm.Outcome {
		bAddr := popAddr(in)
		aAddr := popAddr(in)
		outAddr := popAddr(in)
		mem := in.Module.Memory()

		outID, err := readVecHandle(mem, outAddr)
		if err != nil {
			return vm.Trap(err)
		}
		aID, err := readVecHandle(mem, aAddr)
		if err != nil {
			return vm.Trap(err)
		}
		bID, err := readVecHandle(mem, bAddr)
		if err != nil {
			return vm.Trap(err)
		}
		out, err := v.lookupVec(outID)
		if err != nil {
			return vm.Trap(err)
		}
		a, err := v.lookupVec(aID)
		if err != nil {
			return vm.Trap(err)
		}
		b, err := v.lookupVec(bID)
		if err != nil {
			return vm.Trap(err)
		}
		if len(a) != len(b) || len(a) != len(out) {
			return vm.Trap(fmt.Errorf("vbn254fr: vector length mismatch: out=%d a=%d b=%d", len(out), len(a), len(b)))
		}
		for i := range out {
			result := op(in.Manager, a[i], b[i])
			if err := in.Manager.Release(out[i]); err != nil {
				return vm.Trap(err)
			}
			out[i] = result
		}
		return vm.Ok
	}
}

func (v *vbn254Fr) negmod(in *vm.Interpreter) vm.Outcome {
	aAddr := popAddr(in)
	outAddr := popAddr(in)
	mem := in.Module.Memory()

	outID, err := readVecHandle(mem, outAddr)
	if err != nil {
		return vm.Trap(err)
	}
	aID, err := readVecHandle(mem, aAddr)
	if err != nil {
		return vm.Trap(err)
	}
	out, err := v.lookupVec(outID)
	if err != nil {
		return vm.Trap(err)
	}
	a, err := v.lookupVec(aID)
	if err != nil {
		return vm.Trap(err)
	}
	if len(out) != len(a) {
		return vm.Trap(fmt.Errorf("vbn254fr: vector length mismatch: out=%d a=%d", len(out), len(a)))
	}
	for i := range out {
		result := backend.Neg(in.Manager, a[i])
		if err := in.Manager.Release(out[i]); err != nil {
			return vm.Trap(err)
		}
		out[i] = result
	}
	return vm.Ok
}

func (v *vbn254Fr) eqmod(in *vm.Interpreter) vm.Outcome {
	bAddr := popAddr(in)
	aAddr := popAddr(in)
	mem := in.Module.Memory()

	aID, err := readVecHandle(mem, aAddr)
	if err != nil {
		return vm.Trap(err)
	}
	bID, err := readVecHandle(mem, bAddr)
	if err != nil {
		return vm.Trap(err)
	}
	a, err := v.lookupVec(aID)
	if err != nil {
		return vm.Trap(err)
	}
	b, err := v.lookupVec(bID)
	if err != nil {
		return vm.Trap(err)
	}
	equal := len(a) == len(b)
	for i := 0; equal && i < len(a); i++ {
		if !in.Manager.Value(a[i]).Equal(in.Manager.Value(b[i])) {
			equal = false
		}
	}
	word := uint64(0)
	if equal {
		word = 1
	}
	in.Stack.Push(vm.I32(uint32(word)))
	return vm.Ok
}

func (v *vbn254Fr) assertEqual(in *vm.Interpreter) vm.Outcome {
	bAddr := popAddr(in)
	aAddr := popAddr(in)
	mem := in.Module.Memory()

	aID, err := readVecHandle(mem, aAddr)
	if err != nil {
		return vm.Trap(err)
	}
	bID, err := readVecHandle(mem, bAddr)
	if err != nil {
		return vm.Trap(err)
	}
	a, err := v.lookupVec(aID)
	if err != nil {
		return vm.Trap(err)
	}
	b, err := v.lookupVec(bID)
	if err != nil {
		return vm.Trap(err)
	}
	if len(a) != len(b) {
		return vm.Trap(fmt.Errorf("vbn254fr: vector length mismatch: a=%d b=%d", len(a), len(b)))
	}
	for i := range a {
		resA, resB, cerr := in.Manager.ConstrainEqual(a[i], b[i])
		if cerr != nil {
			return vm.Trap(cerr)
		}
		if resA != a[i] {
			_ = in.Manager.Release(resA)
		}
		if resB != b[i] {
			_ = in.Manager.Release(resB)
		}
	}
	return vm.Ok
}

// assertQuadratic(c,a,b) asserts c[i] == a[i]*b[i] for every index;
// assert_mul is the guest-facing alias scenario tests call.
func (v *vbn254Fr) assertQuadratic(in *vm.Interpreter) vm.Outcome {
	bAddr := popAddr(in)
	aAddr := popAddr(in)
	cAddr := popAddr(in)
	mem := in.Module.Memory()

	cID, err := readVecHandle(mem, cAddr)
	if err != nil {
		return vm.Trap(err)
	}
	aID, err := readVecHandle(mem, aAddr)
	if err != nil {
		return vm.Trap(err)
	}
	bID, err := readVecHandle(mem, bAddr)
	if err != nil {
		return vm.Trap(err)
	}
	c, err := v.lookupVec(cID)
	if err != nil {
		return vm.Trap(err)
	}
	a, err := v.lookupVec(aID)
	if err != nil {
		return vm.Trap(err)
	}
	b, err := v.lookupVec(bID)
	if err != nil {
		return vm.Trap(err)
	}
	if len(a) != len(b) || len(a) != len(c) {
		return vm.Trap(fmt.Errorf("vbn254fr: vector length mismatch: c=%d a=%d b=%d", len(c), len(a), len(b)))
	}
	for i := range a {
		product := backend.Mul(in.Manager, a[i], b[i])
		resProduct, resC, cerr := in.Manager.ConstrainEqual(product, c[i])
		if cerr != nil {
			return vm.Trap(cerr)
		}
		_ = in.Manager.Release(resProduct)
		if resC != c[i] {
			_ = in.Manager.Release(resC)
		}
	}
	return vm.Ok
}
