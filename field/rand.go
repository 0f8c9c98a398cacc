// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package field

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20"
)

// Engine draws uniformly-distributed field elements from a seeded
// ChaCha20 keystream. Two engines constructed from the same 32-byte seed
// and stream label produce byte-identical sequences, which is what makes
// the three prover stages replay-deterministic (the replay
// determinism property).
type Engine struct {
	cipher *chacha20.Cipher
	ctr    uint64
}

// NewEngine builds a seeded engine. label distinguishes independent PRNG
// streams (encoding, code-test, linear-test, quadratic-test) drawn from
// the same top-level seed, by folding into the nonce.
func NewEngine(seed [32]byte, label string) *Engine {
	nonce := make([]byte, chacha20.NonceSize)
	copy(nonce, []byte(label))
	c, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce)
	if err != nil {
		// seed/nonce are fixed-size and constructed above; this cannot fail.
		panic(fmt.Sprintf("field: chacha20 init: %v", err))
	}
	return &Engine{cipher: c}
}

// Next draws the next field element from the keystream.
func (e *Engine) Next() Element {
	var buf [32]byte
	e.cipher.XORKeyStream(buf[:], buf[:])
	e.ctr++
	return SetBytes(buf[:])
}

// NextN draws n field elements.
func (e *Engine) NextN(n int) []Element {
	out := make([]Element, n)
	for i := range out {
		out[i] = e.Next()
	}
	return out
}

// Count returns the number of elements drawn so far.
func (e *Engine) Count() uint64 { return e.ctr }

// DeriveSeed folds a 32-byte root seed and a numeric index into a fresh
// 32-byte seed, used to give each of the four PRNG streams (encoding,
// code-test, linear-test, quadratic-test) an independent but
// deterministic seed from one top-level configuration seed.
func DeriveSeed(root [32]byte, index uint64) [32]byte {
	var buf [40]byte
	copy(buf[:32], root[:])
	binary.LittleEndian.PutUint64(buf[32:], index)
	return SetBytes(buf[:]).Bytes()
}
