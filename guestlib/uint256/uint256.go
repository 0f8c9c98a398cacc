// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package uint256 is a thin guest-library wrapper around
// github.com/holiman/uint256: fixed-width 256-bit integer arithmetic
// for guest programs that want native big-integer math without
// routing every limb through the field host modules. It is a
// collaborator, not a redesigned component — the guest library surface
// named but explicitly not re-architected.
package uint256

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Value is a guest-visible 256-bit unsigned integer.
type Value = uint256.Int

// FromBig converts a big.Int into a Value, wrapping modulo 2^256.
func FromBig(b *big.Int) (*Value, bool) {
	return uint256.FromBig(b)
}

// FromUint64 builds a Value from a machine word.
func FromUint64(v uint64) *Value {
	return uint256.NewInt(v)
}

// Add returns a+b wrapping modulo 2^256.
func Add(a, b *Value) *Value {
	var out uint256.Int
	out.Add(a, b)
	return &out
}

// Sub returns a-b wrapping modulo 2^256.
func Sub(a, b *Value) *Value {
	var out uint256.Int
	out.Sub(a, b)
	return &out
}

// Mul returns a*b wrapping modulo 2^256.
func Mul(a, b *Value) *Value {
	var out uint256.Int
	out.Mul(a, b)
	return &out
}

// Div returns a/b, or zero if b is zero (matching EVM-style division).
func Div(a, b *Value) *Value {
	var out uint256.Int
	out.Div(a, b)
	return &out
}

// Bytes32 serializes v big-endian into a 32-byte array, the layout
// guest programs pass across the host ABI's byte-pointer operands.
func Bytes32(v *Value) [32]byte {
	return v.Bytes32()
}

// SetBytes32 parses a big-endian 32-byte array into a Value.
func SetBytes32(b [32]byte) *Value {
	var out uint256.Int
	out.SetBytes32(b[:])
	return &out
}
