// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package field provides BN254 scalar-field arithmetic for the Ligero
// transcript pipeline: modular add/sub/mul/inv/neg/pow, bitwise operations
// on the integer representative, and generation of random field elements
// from a seeded stream cipher.
package field

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Element is a BN254 scalar-field element. It wraps gnark-crypto's
// Montgomery-form representation and adds the integer-representative
// bitwise operations the interpreter's bit-decomposition machinery needs.
type Element struct {
	v fr.Element
}

var (
	// ErrDivisionByZero is returned when inverting the zero element.
	ErrDivisionByZero = errors.New("field: division by zero")
)

// Modulus returns the BN254 scalar field prime p.
func Modulus() *big.Int {
	m := fr.Modulus()
	return new(big.Int).Set(m)
}

// modulusMiddle is ⌊p/2⌋, computed once at package init.
var modulusMiddle = new(big.Int).Rsh(Modulus(), 1)

// ModulusMiddle returns ⌊p/2⌋, which partitions the field into "positive"
// and "negative" halves for signed interpretation of field elements.
func ModulusMiddle() *big.Int {
	return new(big.Int).Set(modulusMiddle)
}

// Zero returns the additive identity.
func Zero() Element { return Element{} }

// One returns the multiplicative identity.
func One() Element {
	var e Element
	e.v.SetOne()
	return e
}

// FromUint64 builds an element from a native unsigned integer.
func FromUint64(x uint64) Element {
	var e Element
	e.v.SetUint64(x)
	return e
}

// FromInt64 builds an element from a native signed integer, wrapping
// negative values into the field (p - |x|).
func FromInt64(x int64) Element {
	var e Element
	if x >= 0 {
		e.v.SetUint64(uint64(x))
		return e
	}
	e.v.SetUint64(uint64(-x))
	e.v.Neg(&e.v)
	return e
}

// FromBigInt reduces an arbitrary-width integer modulo p. This is the
// general-purpose "reduction of an arbitrary-width integer" primitive.
func FromBigInt(x *big.Int) Element {
	var e Element
	var tmp big.Int
	tmp.Mod(x, Modulus())
	e.v.SetBigInt(&tmp)
	return e
}

// BigInt returns the canonical (non-negative, < p) integer representative.
func (e Element) BigInt() *big.Int {
	var out big.Int
	e.v.BigInt(&out)
	return &out
}

// SignedBigInt returns the integer representative in the range
// (-p/2, p/2], interpreting values above ModulusMiddle as negative.
func (e Element) SignedBigInt() *big.Int {
	v := e.BigInt()
	if v.Cmp(&modulusMiddle) > 0 {
		return new(big.Int).Sub(v, Modulus())
	}
	return v
}

// IsZero reports whether e is the additive identity.
func (e Element) IsZero() bool { return e.v.IsZero() }

// Equal reports whether e and o represent the same field element.
func (e Element) Equal(o Element) bool { return e.v.Equal(&o.v) }

// Add returns e + o mod p.
func (e Element) Add(o Element) Element {
	var r Element
	r.v.Add(&e.v, &o.v)
	return r
}

// Sub returns e - o mod p.
func (e Element) Sub(o Element) Element {
	var r Element
	r.v.Sub(&e.v, &o.v)
	return r
}

// Mul returns e * o mod p.
func (e Element) Mul(o Element) Element {
	var r Element
	r.v.Mul(&e.v, &o.v)
	return r
}

// Neg returns -e mod p.
func (e Element) Neg() Element {
	var r Element
	r.v.Neg(&e.v)
	return r
}

// Inv returns the multiplicative inverse of e.
func (e Element) Inv() (Element, error) {
	if e.v.IsZero() {
		return Element{}, ErrDivisionByZero
	}
	var r Element
	r.v.Inverse(&e.v)
	return r, nil
}

// Div returns e / o mod p.
func (e Element) Div(o Element) (Element, error) {
	inv, err := o.Inv()
	if err != nil {
		return Element{}, err
	}
	return e.Mul(inv), nil
}

// Pow returns e^k mod p.
func (e Element) Pow(k *big.Int) Element {
	var r Element
	r.v.Exp(e.v, k)
	return r
}

// And returns the bitwise AND of the integer representatives, reduced mod p.
func (e Element) And(o Element) Element {
	var out big.Int
	out.And(e.BigInt(), o.BigInt())
	return FromBigInt(&out)
}

// Or returns the bitwise OR of the integer representatives, reduced mod p.
func (e Element) Or(o Element) Element {
	var out big.Int
	out.Or(e.BigInt(), o.BigInt())
	return FromBigInt(&out)
}

// Xor returns the bitwise XOR of the integer representatives, reduced mod p.
func (e Element) Xor(o Element) Element {
	var out big.Int
	out.Xor(e.BigInt(), o.BigInt())
	return FromBigInt(&out)
}

// Not returns the bitwise complement within the field's bit width (254
// bits), reduced mod p.
func (e Element) Not() Element {
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 254), big.NewInt(1))
	var out big.Int
	out.Xor(e.BigInt(), mask)
	return FromBigInt(&out)
}

// Shl returns e shifted left by n bits on its integer representative,
// reduced mod p.
func (e Element) Shl(n uint) Element {
	out := new(big.Int).Lsh(e.BigInt(), n)
	return FromBigInt(out)
}

// Shr returns e shifted right by n bits on its integer representative.
func (e Element) Shr(n uint) Element {
	out := new(big.Int).Rsh(e.BigInt(), n)
	return FromBigInt(out)
}

// Bit returns the i-th bit (0 = LSB) of the integer representative.
func (e Element) Bit(i int) uint {
	return uint(e.BigInt().Bit(i))
}

// Bytes returns the canonical big-endian byte encoding (32 bytes).
func (e Element) Bytes() [32]byte {
	return e.v.Bytes()
}

// SetBytes reduces an arbitrary-length big-endian byte string modulo p
// (gnark-crypto performs the Montgomery reduction directly).
func SetBytes(b []byte) Element {
	var e Element
	e.v.SetBytes(b)
	return e
}

// String renders the canonical decimal representative, for logging/tests.
func (e Element) String() string {
	return e.v.String()
}

// Limbs returns the element's integer representative split into four
// 64-bit words, least-significant limb first. The archive format
// serializes field elements this way rather than as canonical
// big-endian bytes.
func (e Element) Limbs() [4]uint64 {
	b := e.BigInt()
	mask := new(big.Int).SetUint64(^uint64(0))
	var out [4]uint64
	for i := range out {
		word := new(big.Int).Rsh(b, uint(64*i))
		word.And(word, mask)
		out[i] = word.Uint64()
	}
	return out
}

// FromLimbs is the inverse of Limbs: four 64-bit words, least
// significant first, reduced modulo p.
func FromLimbs(limbs [4]uint64) Element {
	acc := new(big.Int)
	for i := len(limbs) - 1; i >= 0; i-- {
		acc.Lsh(acc, 64)
		acc.Or(acc, new(big.Int).SetUint64(limbs[i]))
	}
	return FromBigInt(acc)
}
