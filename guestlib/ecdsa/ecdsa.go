// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ecdsa is a thin guest-library wrapper exposing P-256 and
// secp256k1 signature verification to guest programs, grounded on the
// curve-selection helper the corpus's ECIES precompile uses
// (getCurve: secp256k1.S256() / elliptic.P256()). Like guestlib/uint256
// this is a named collaborator, not a component this repository
// redesigns: it exists so guest programs calling into "verify my
// signature" have something concrete underneath.
package ecdsa

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"math/big"

	"github.com/luxfi/crypto/secp256k1"
)

// Curve selects which elliptic curve a verification call runs against.
type Curve byte

const (
	CurveSecp256k1 Curve = iota
	CurveP256
)

var errUnknownCurve = errors.New("guestlib/ecdsa: unknown curve")

func resolveCurve(c Curve) (elliptic.Curve, error) {
	switch c {
	case CurveSecp256k1:
		return secp256k1.S256(), nil
	case CurveP256:
		return elliptic.P256(), nil
	default:
		return nil, errUnknownCurve
	}
}

// VerifySignature checks an ECDSA signature (r, s) over digest against
// an uncompressed public key point (x, y) on the given curve.
func VerifySignature(c Curve, digest []byte, pubX, pubY, r, s *big.Int) (bool, error) {
	curve, err := resolveCurve(c)
	if err != nil {
		return false, err
	}
	pub := &ecdsa.PublicKey{Curve: curve, X: pubX, Y: pubY}
	return ecdsa.Verify(pub, digest, r, s), nil
}

// UnmarshalPoint decodes an uncompressed curve point (0x04 || X || Y).
func UnmarshalPoint(c Curve, data []byte) (x, y *big.Int, err error) {
	curve, err := resolveCurve(c)
	if err != nil {
		return nil, nil, err
	}
	x, y = elliptic.Unmarshal(curve, data)
	if x == nil {
		return nil, nil, errors.New("guestlib/ecdsa: invalid point encoding")
	}
	return x, y, nil
}
