// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package field

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
)

// Domain wraps a gnark-crypto NTT domain of a fixed power-of-two size and
// performs forward/inverse transforms on field.Element slices of exactly
// that size. It is the building block the Encoder composes to implement
// the row_size -> padded_row_size -> encoding_size pipeline.
type Domain struct {
	size int
	d    *fft.Domain
}

// NewDomain precomputes roots of unity for a transform of the given
// power-of-two size.
func NewDomain(size int) *Domain {
	if size <= 0 || size&(size-1) != 0 {
		panic(fmt.Sprintf("field: domain size %d is not a power of two", size))
	}
	return &Domain{size: size, d: fft.NewDomain(uint64(size))}
}

// Size returns the domain's cardinality.
func (d *Domain) Size() int { return d.size }

// Forward evaluates the length-size coefficient vector in at the domain's
// roots of unity, returning the codeword (evaluation) form.
func (d *Domain) Forward(in []Element) []Element {
	if len(in) != d.size {
		panic(fmt.Sprintf("field: Forward expects %d elements, got %d", d.size, len(in)))
	}
	buf := toFr(in)
	d.d.FFT(buf, fft.DIF)
	fft.BitReverse(buf)
	return fromFr(buf)
}

// Inverse is the exact inverse of Forward: given a codeword, recovers the
// coefficient vector.
func (d *Domain) Inverse(in []Element) []Element {
	if len(in) != d.size {
		panic(fmt.Sprintf("field: Inverse expects %d elements, got %d", d.size, len(in)))
	}
	buf := toFr(in)
	fft.BitReverse(buf)
	d.d.FFTInverse(buf, fft.DIT)
	return fromFr(buf)
}

func toFr(in []Element) []fr.Element {
	out := make([]fr.Element, len(in))
	for i, e := range in {
		out[i] = e.v
	}
	return out
}

func fromFr(in []fr.Element) []Element {
	out := make([]Element, len(in))
	for i, e := range in {
		out[i] = Element{v: e}
	}
	return out
}

// Encoder implements the three-domain NTT encoding pipeline:
// roots of unity for a row of length k (padded_row_size), 2k (used by the mask
// rows), and n = 4k (the final codeword length).
type Encoder struct {
	K, TwoK, N *Domain
}

// NewEncoder builds an Encoder for a given padded_row_size (k).
// encoding_size n is fixed at 4k.
func NewEncoder(paddedRowSize int) *Encoder {
	return &Encoder{
		K:    NewDomain(paddedRowSize),
		TwoK: NewDomain(2 * paddedRowSize),
		N:    NewDomain(4 * paddedRowSize),
	}
}

// EncodeRow zero-pads a length-k message row to length n and evaluates it
// at the n roots of unity, producing the codeword the transcript sinks
// operate on.
func (e *Encoder) EncodeRow(row []Element) []Element {
	if len(row) != e.K.Size() {
		panic(fmt.Sprintf("field: EncodeRow expects %d elements, got %d", e.K.Size(), len(row)))
	}
	padded := make([]Element, e.N.Size())
	copy(padded, row)
	return e.N.Forward(padded)
}

// EncodeMask interprets a length-2k vector (e.g. the linear or quadratic
// mask pattern) as a vector directly in the 2k domain,
// pulls it back to coefficient form, zero-extends to n, and evaluates
// it — the "2k -> n NTT" the mask construction relies on so that the
// first l = k - sample_size positions of its inverse vanish.
func (e *Encoder) EncodeMask(mask []Element) []Element {
	if len(mask) != e.TwoK.Size() {
		panic(fmt.Sprintf("field: EncodeMask expects %d elements, got %d", e.TwoK.Size(), len(mask)))
	}
	coeffs := e.TwoK.Inverse(mask)
	padded := make([]Element, e.N.Size())
	copy(padded, coeffs)
	return e.N.Forward(padded)
}

// DecodeRow inverts EncodeRow's transform, returning the length-n
// coefficient vector (the first k entries are the original message row).
func (e *Encoder) DecodeRow(codeword []Element) []Element {
	return e.N.Inverse(codeword)
}
