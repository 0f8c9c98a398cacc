// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package backend implements the algebraic layer the opcode interpreter
// compiles down to: a small expression DSL over witness slots (+, -,
// *, bitwise AND/NOT), bit decompose/compose, and the composite bitwise
// and division primitives (xor, xnor, eq, eqz, gt, signed and unsigned idivide_qr)
// built on top of them. Every function here takes concrete values already
// resolved in the witness manager and emits the matching linear/quadratic
// constraints as a side effect, mirroring the manager's "commit as a side
// effect of arithmetic" design.
package backend

import (
	"github.com/ligetron/zkvm/field"
	"github.com/ligetron/zkvm/witness"
)

// Add returns a+b.
func Add(m *witness.Manager, a, b witness.Handle) witness.Handle {
	return m.ConstrainLinear(a, b)
}

// Sub returns a-b.
func Sub(m *witness.Manager, a, b witness.Handle) witness.Handle {
	one := field.One()
	negOne := field.Zero().Sub(one)
	return m.ConstrainAffine(a, one, b, negOne, field.Zero())
}

// Neg returns -a.
func Neg(m *witness.Manager, a witness.Handle) witness.Handle {
	negOne := field.Zero().Sub(field.One())
	return m.ConstrainAffine(a, negOne, a, field.Zero(), field.Zero())
}

// ScaleAdd returns coeffA*a + coeffB*b + constant.
func ScaleAdd(m *witness.Manager, a witness.Handle, coeffA field.Element, b witness.Handle, coeffB field.Element, constant field.Element) witness.Handle {
	return m.ConstrainAffine(a, coeffA, b, coeffB, constant)
}

// Mul returns a*b, committed through the quadratic row pipeline.
func Mul(m *witness.Manager, a, b witness.Handle) witness.Handle {
	return m.ConstrainQuadratic(a, b)
}

// MulConstant returns a*k.
func MulConstant(m *witness.Manager, a witness.Handle, k field.Element) witness.Handle {
	return m.ConstrainQuadraticConstant(a, k)
}
