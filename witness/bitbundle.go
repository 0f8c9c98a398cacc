// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package witness

// BitBundle is an ordered collection of bit-constrained slots produced by
// a bit-decompose operation (LSB first) and consumed by bit-compose or
// per-bit opcodes. Bits are released in reverse acquisition order:
// the interpreter's operand stack discipline keeps to this in practice
// (a decomposed value is always pushed and popped as a unit), and
// ReleaseAll releases MSB first. The bundle does not check the order of
// releases made through other paths.
type BitBundle struct {
	bits []Handle
}

// NewBitBundle wraps bit handles ordered LSB first.
func NewBitBundle(bits []Handle) *BitBundle {
	cp := make([]Handle, len(bits))
	copy(cp, bits)
	return &BitBundle{bits: cp}
}

// Len returns the number of bits in the bundle.
func (b *BitBundle) Len() int { return len(b.bits) }

// At returns the handle for bit i (0 = LSB).
func (b *BitBundle) At(i int) Handle { return b.bits[i] }

// Handles returns the bundle's handles, LSB first.
func (b *BitBundle) Handles() []Handle {
	out := make([]Handle, len(b.bits))
	copy(out, b.bits)
	return out
}

// ReleaseAll releases every bit in the bundle in MSB-to-LSB order,
// mirroring the order a stack-discipline interpreter would pop them in
// after pushing them LSB first during decompose.
func (b *BitBundle) ReleaseAll(m *Manager) error {
	for i := len(b.bits) - 1; i >= 0; i-- {
		if err := m.Release(b.bits[i]); err != nil {
			return err
		}
	}
	b.bits = nil
	return nil
}
