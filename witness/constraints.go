// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package witness

import "github.com/ligetron/zkvm/field"

// cloneSlot duplicates a slot's current value/random pair into a fresh
// arena entry. Used whenever a handle that is already attached to one
// row stream needs to additionally participate in another constraint:
// rather than rewiring the original (which some other live reference may
// still depend on), we clone it and attach the clone.
func (m *Manager) cloneSlot(h Handle) Handle {
	src := m.entry(h)
	clone := m.allocSlot()
	dst := m.entry(clone)
	dst.isWitness = src.isWitness
	dst.value = src.value
	dst.random = src.random
	dst.hasRandom = src.hasRandom
	dst.refcount = 1
	return clone
}

func (m *Manager) ensureLinearAttachment(h Handle) Handle {
	e := m.entry(h)
	switch e.attachment {
	case attachNone:
		e.attachment = attachLinear
		return h
	case attachLinear:
		return h
	default: // attachQuadratic: already spoken for, clone instead of rewiring.
		clone := m.cloneSlot(h)
		m.entry(clone).attachment = attachLinear
		return clone
	}
}

func (m *Manager) ensureQuadraticAttachment(h Handle, q QuadHandle, cell int) Handle {
	e := m.entry(h)
	if e.attachment == attachNone {
		e.attachment = attachQuadratic
		e.quad = q
		e.quadCell = cell
		return h
	}
	clone := m.cloneSlot(h)
	ce := m.entry(clone)
	ce.attachment = attachQuadratic
	ce.quad = q
	ce.quadCell = cell
	return clone
}

// ConstrainConstant asserts slot carries the public value k: it overwrites
// the slot's value (recording a mismatch for a witness slot whose value
// was already set differently), strips any random component (a known
// constant needs no blinding), and attaches it to the linear row.
func (m *Manager) ConstrainConstant(h Handle, k field.Element) (Handle, error) {
	e := m.entry(h)
	if e.isWitness && !e.value.IsZero() && !e.value.Equal(k) {
		return invalidHandle, ErrConstraintUnsafe
	}
	e.value = k
	e.hasRandom = false
	return m.ensureLinearAttachment(h), nil
}

// ConstrainEqual asserts a.value == b.value, synchronizing their random
// components so both rows carry matching blinding, then attaches both to
// the linear row.
func (m *Manager) ConstrainEqual(a, b Handle) (Handle, Handle, error) {
	ea, eb := m.entry(a), m.entry(b)
	if ea.isWitness && eb.isWitness && !ea.value.Equal(eb.value) {
		return invalidHandle, invalidHandle, ErrConstraintUnsafe
	}
	if ea.hasRandom && !eb.hasRandom {
		eb.random = ea.random
		eb.hasRandom = true
	} else if eb.hasRandom && !ea.hasRandom {
		ea.random = eb.random
		ea.hasRandom = true
	}
	return m.ensureLinearAttachment(a), m.ensureLinearAttachment(b), nil
}

// ConstrainLinear computes a fresh slot holding a.value + b.value (with
// matching propagated random component) and attaches it to the linear
// row. This is the two-operand convenience form; weighted combinations
// go through ConstrainAffine.
func (m *Manager) ConstrainLinear(a, b Handle) Handle {
	ea, eb := m.entry(a), m.entry(b)
	out := m.allocSlot()
	eo := m.entry(out)
	eo.isWitness = ea.isWitness || eb.isWitness
	eo.value = ea.value.Add(eb.value)
	if ea.hasRandom || eb.hasRandom {
		eo.hasRandom = true
		eo.random = ea.random.Add(eb.random)
	}
	eo.refcount = 1
	return m.ensureLinearAttachment(out)
}

// ConstrainAffine computes coeffA*a + coeffB*b + constant, propagating
// random components under the same affine map, and attaches the result
// to the linear row. This is the general form backend's expression DSL
// compiles weighted sums (e.g. bit-decompose's powers-of-two) down to.
func (m *Manager) ConstrainAffine(a Handle, coeffA field.Element, b Handle, coeffB field.Element, constant field.Element) Handle {
	ea, eb := m.entry(a), m.entry(b)
	out := m.allocSlot()
	eo := m.entry(out)
	eo.isWitness = ea.isWitness || eb.isWitness
	eo.value = ea.value.Mul(coeffA).Add(eb.value.Mul(coeffB)).Add(constant)
	if ea.hasRandom || eb.hasRandom {
		eo.hasRandom = true
		eo.random = ea.random.Mul(coeffA).Add(eb.random.Mul(coeffB))
	}
	eo.refcount = 1
	return m.ensureLinearAttachment(out)
}

// newQuadTriple allocates a quadratic slot and the three handles wired to
// its L/R/O cells, each derived from an existing value without consuming
// its own refcount bookkeeping (callers still own l, r, o separately).
func (m *Manager) newQuadTriple(lVal, rVal, oVal field.Element, witness bool) (QuadHandle, Handle, Handle, Handle) {
	q := m.allocQuad()
	l := m.allocSlot()
	r := m.allocSlot()
	o := m.allocSlot()
	for i, h := range [3]Handle{l, r, o} {
		e := m.entry(h)
		e.isWitness = witness
		e.refcount = 1
		e.attachment = attachQuadratic
		e.quad = q
		e.quadCell = i
	}
	m.entry(l).value = lVal
	m.entry(r).value = rVal
	m.entry(o).value = oVal
	return q, l, r, o
}

// ConstrainQuadratic commits x, y, and a freshly computed out = x*y
// into a single quadratic triple so the quadratic test downstream can
// check L*R = O for this row cell. Returns the out handle. The caller
// keeps its references to x and y: releasing each closes its cell of the
// triple. An operand already attached elsewhere is cloned onto the
// triple instead, and that clone is released here, closing its cell.
func (m *Manager) ConstrainQuadratic(x, y Handle) Handle {
	ex, ey := m.entry(x), m.entry(y)
	product := ex.value.Mul(ey.value)
	q := m.allocQuad()

	lx := m.ensureQuadraticAttachment(x, q, 0)
	ry := m.ensureQuadraticAttachment(y, q, 1)
	if lx != x {
		_ = m.Release(lx)
	}
	if ry != y {
		_ = m.Release(ry)
	}

	out := m.allocSlot()
	eo := m.entry(out)
	eo.isWitness = ex.isWitness || ey.isWitness
	eo.value = product
	eo.refcount = 1
	eo.attachment = attachQuadratic
	eo.quad = q
	eo.quadCell = 2
	return out
}

// ConstrainQuadraticConstant commits out = x*k through the same quadratic
// pipeline, using a fresh public instance slot holding k as the R
// operand so the row bookkeeping is uniform regardless of whether the
// right-hand side is a witness or a known constant.
func (m *Manager) ConstrainQuadraticConstant(x Handle, k field.Element) Handle {
	kSlot := m.allocSlot()
	ke := m.entry(kSlot)
	ke.isWitness = false
	ke.value = k
	ke.refcount = 1
	return m.ConstrainQuadratic(x, kSlot)
}

// ConstrainBit asserts b ∈ {0, 1} by committing the quadratic identity
// b*b = b: it clones b into three cells of one quadratic triple so the
// downstream L*R = O check enforces b*b - b = 0.
func (m *Manager) ConstrainBit(b Handle) error {
	eb := m.entry(b)
	if eb.isWitness {
		v := eb.value
		if !v.IsZero() && !v.Equal(field.One()) {
			return ErrConstraintUnsafe
		}
	}
	q := m.allocQuad()
	l := m.cloneSlot(b)
	r := m.cloneSlot(b)
	o := m.cloneSlot(b)
	for i, h := range [3]Handle{l, r, o} {
		e := m.entry(h)
		e.attachment = attachQuadratic
		e.quad = q
		e.quadCell = i
	}
	for _, h := range [3]Handle{l, r, o} {
		if err := m.Release(h); err != nil {
			return err
		}
	}
	return nil
}
