// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package witness implements the pooled witness manager: it owns an arena
// of field-element slots and quadratic triples, accumulates linear and
// quadratic constraints as a side effect of arithmetic, and lazily emits
// transcript rows to a Sink when a slot's reference count reaches zero.
//
// Slots and quadratic triples are addressed by arena index rather than by
// pointer. This is a deliberate re-architecture away from the source's
// reference-counted smart pointers with re-entrant custom deleters
// the arena performs commit-on-release at the
// point a handle's refcount reaches zero, and two free lists give O(1)
// acquire/release without per-opcode allocation.
package witness

import (
	"errors"
	"fmt"

	"github.com/ligetron/zkvm/field"
)

// Handle addresses a slot in the manager's arena. Handles are arena
// indices starting at 0 (the first slot acquired is handle 0); only
// negative values (invalidHandle) are never valid.
type Handle int32

const invalidHandle Handle = -1

// QuadHandle addresses a quadratic triple in the manager's arena.
type QuadHandle int32

const invalidQuadHandle QuadHandle = -1

// attachment records what happens to a slot's value when its refcount
// reaches zero.
type attachmentKind uint8

const (
	attachNone attachmentKind = iota
	attachLinear
	attachQuadratic
)

type slotEntry struct {
	inUse      bool
	isWitness  bool
	value      field.Element
	random     field.Element
	hasRandom  bool
	refcount   int
	attachment attachmentKind
	quad       QuadHandle
	quadCell   int // 0=L, 1=R, 2=O, valid when attachment == attachQuadratic
}

type quadEntry struct {
	inUse  bool
	cells  [3]Handle
	closed [3]bool
}

// MaskKind distinguishes the three synthetic blinding rows appended at
// finalize.
type MaskKind uint8

const (
	MaskCode MaskKind = iota
	MaskLinear
	MaskQuadratic
)

// Sink is the polymorphic transcript consumer a Manager is wired to. The
// three concrete implementations (Merkle-commit, reduce-and-sum, sample)
// live in package prove.
type Sink interface {
	CommitLinear(row, randRow []field.Element) error
	CommitQuadratic(l, r, o []field.Element) error
	CommitMask(kind MaskKind, row, randRow []field.Element) error
}

// Policy gates which randomness streams and constraint checks a given
// stage actually needs. The three prover stages in package prove all
// run with both checks enabled.
type Policy struct {
	LinearCheck    bool
	QuadraticCheck bool
}

var DefaultPolicy = Policy{LinearCheck: true, QuadraticCheck: true}

// Errors.
var (
	ErrSlotLeak         = errors.New("witness: slot leaked past finalize")
	ErrQuadSlotLeak     = errors.New("witness: quadratic slot leaked past finalize")
	ErrDoubleRelease    = errors.New("witness: slot released with zero refcount")
	ErrAlreadyAttached  = errors.New("witness: slot already attached")
	ErrQuadCellFilled   = errors.New("witness: quadratic cell already filled")
	ErrInvalidHandle    = errors.New("witness: invalid handle")
	ErrBundleLIFOOrder  = errors.New("witness: bit bundle released out of LIFO order")
	ErrConstraintUnsafe = errors.New("witness: constraint inconsistency detected before emission")
)

// Manager owns the slot/quadratic-triple arenas, the three row-in-flight
// buffers, and the constant_sum accumulator.
type Manager struct {
	slots     []slotEntry
	freeSlots []Handle

	quads     []quadEntry
	freeQuads []QuadHandle

	policy Policy
	sink   Sink

	rowSize       int // l: message slots per row
	sampleSize    int
	paddedRowSize int // k = rowSize + sampleSize

	linearRow     []field.Element
	linearRandRow []field.Element
	linearPos     int

	quadLRow []field.Element
	quadRRow []field.Element
	quadORow []field.Element
	quadPos  int

	constantSum field.Element

	codeEngine      *field.Engine
	linearEngine    *field.Engine
	quadraticEngine *field.Engine

	finalized bool
}

// New builds a Manager bound to sink, with row_size message slots per
// row and the given sample_size trailing randomness padding.
func New(sink Sink, rowSize, sampleSize int, seed [32]byte, policy Policy) *Manager {
	m := &Manager{
		sink:          sink,
		policy:        policy,
		rowSize:       rowSize,
		sampleSize:    sampleSize,
		paddedRowSize: rowSize + sampleSize,
	}
	m.linearRow = make([]field.Element, 0, rowSize)
	m.linearRandRow = make([]field.Element, 0, rowSize)
	m.quadLRow = make([]field.Element, 0, rowSize)
	m.quadRRow = make([]field.Element, 0, rowSize)
	m.quadORow = make([]field.Element, 0, rowSize)

	m.codeEngine = field.NewEngine(seed, "code")
	m.linearEngine = field.NewEngine(seed, "linear")
	m.quadraticEngine = field.NewEngine(seed, "quadratic")
	return m
}

// ---- arena bookkeeping ----

func (m *Manager) allocSlot() Handle {
	if n := len(m.freeSlots); n > 0 {
		h := m.freeSlots[n-1]
		m.freeSlots = m.freeSlots[:n-1]
		m.slots[h] = slotEntry{inUse: true}
		return h
	}
	m.slots = append(m.slots, slotEntry{inUse: true})
	return Handle(len(m.slots) - 1)
}

func (m *Manager) allocQuad() QuadHandle {
	if n := len(m.freeQuads); n > 0 {
		h := m.freeQuads[n-1]
		m.freeQuads = m.freeQuads[:n-1]
		m.quads[h] = quadEntry{inUse: true, cells: [3]Handle{invalidHandle, invalidHandle, invalidHandle}}
		return h
	}
	m.quads = append(m.quads, quadEntry{inUse: true, cells: [3]Handle{invalidHandle, invalidHandle, invalidHandle}})
	return QuadHandle(len(m.quads) - 1)
}

func (m *Manager) entry(h Handle) *slotEntry {
	if h < 0 || int(h) >= len(m.slots) || !m.slots[h].inUse {
		panic(fmt.Sprintf("%v: handle %d", ErrInvalidHandle, h))
	}
	return &m.slots[h]
}

// ---- acquisition ----

// AcquireInstance returns a fresh slot marked non-witness (a public
// constant-like value), zero-valued, with a zeroed random component when
// the linear check is enabled.
func (m *Manager) AcquireInstance() Handle {
	h := m.allocSlot()
	e := m.entry(h)
	e.isWitness = false
	e.refcount = 1
	if m.policy.LinearCheck {
		e.hasRandom = true
	}
	return h
}

// AcquireWitness returns a fresh witness slot, optionally pre-initialized
// to v.
func (m *Manager) AcquireWitness(v *field.Element) Handle {
	h := m.allocSlot()
	e := m.entry(h)
	e.isWitness = true
	e.refcount = 1
	if v != nil {
		e.value = *v
	}
	if m.policy.LinearCheck {
		e.hasRandom = true
	}
	return h
}

// Retain increments a slot's refcount (used when a value is duplicated
// onto the operand stack without materializing a fresh witness).
func (m *Manager) Retain(h Handle) {
	m.entry(h).refcount++
}

// Value returns the slot's current field value.
func (m *Manager) Value(h Handle) field.Element {
	return m.entry(h).value
}

// IsWitness reports whether the slot participates in constraints.
func (m *Manager) IsWitness(h Handle) bool {
	return m.entry(h).isWitness
}

// ---- release / row commit ----

// Release decrements a slot's refcount. When it reaches zero, the slot's
// attached constraint is committed into the appropriate row stream and
// the slot is returned to the free list.
func (m *Manager) Release(h Handle) error {
	e := m.entry(h)
	if e.refcount <= 0 {
		return ErrDoubleRelease
	}
	e.refcount--
	if e.refcount > 0 {
		return nil
	}
	switch e.attachment {
	case attachLinear, attachNone:
		if err := m.commitLinearCell(e); err != nil {
			return err
		}
	case attachQuadratic:
		if err := m.closeQuadCell(h, e); err != nil {
			return err
		}
	}
	m.freeSlot(h)
	return nil
}

func (m *Manager) freeSlot(h Handle) {
	m.slots[h] = slotEntry{}
	m.freeSlots = append(m.freeSlots, h)
}

func (m *Manager) commitLinearCell(e *slotEntry) error {
	m.linearRow = append(m.linearRow, e.value)
	rnd := e.random
	if !e.hasRandom {
		rnd = field.Zero()
	}
	m.linearRandRow = append(m.linearRandRow, rnd)
	if len(m.linearRow) == m.rowSize {
		return m.flushLinearRow()
	}
	return nil
}

func (m *Manager) flushLinearRow() error {
	row := padTo(m.linearRow, m.paddedRowSize, field.Zero())
	rnd := padRandom(m.linearRandRow, m.paddedRowSize, m.linearEngine, m.policy.LinearCheck)
	m.linearRow = m.linearRow[:0]
	m.linearRandRow = m.linearRandRow[:0]
	return m.sink.CommitLinear(row, rnd)
}

func (m *Manager) closeQuadCell(h Handle, e *slotEntry) error {
	q := &m.quads[e.quad]
	if q.closed[e.quadCell] {
		return ErrQuadCellFilled
	}
	q.closed[e.quadCell] = true
	q.cells[e.quadCell] = h // retained only for bookkeeping until arena slot reused
	cellValue := e.value
	switch e.quadCell {
	case 0:
		m.quadLRow = append(m.quadLRow, cellValue)
	case 1:
		m.quadRRow = append(m.quadRRow, cellValue)
	case 2:
		m.quadORow = append(m.quadORow, cellValue)
	}
	if q.closed[0] && q.closed[1] && q.closed[2] {
		*q = quadEntry{}
		m.freeQuads = append(m.freeQuads, e.quad)
	}
	if len(m.quadLRow) == m.rowSize && len(m.quadRRow) == m.rowSize && len(m.quadORow) == m.rowSize {
		return m.flushQuadRow()
	}
	return nil
}

func (m *Manager) flushQuadRow() error {
	l := padTo(m.quadLRow, m.paddedRowSize, field.Zero())
	r := padTo(m.quadRRow, m.paddedRowSize, field.One())
	o := padTo(m.quadORow, m.paddedRowSize, field.Zero())
	m.quadLRow = m.quadLRow[:0]
	m.quadRRow = m.quadRRow[:0]
	m.quadORow = m.quadORow[:0]
	return m.sink.CommitQuadratic(l, r, o)
}

func padTo(row []field.Element, size int, fill field.Element) []field.Element {
	out := make([]field.Element, size)
	copy(out, row)
	for i := len(row); i < size; i++ {
		out[i] = fill
	}
	return out
}

func padRandom(row []field.Element, size int, engine *field.Engine, enabled bool) []field.Element {
	out := make([]field.Element, size)
	copy(out, row)
	for i := len(row); i < size; i++ {
		if enabled {
			out[i] = engine.Next()
		}
	}
	return out
}

// Finalize flushes any partial linear/quadratic rows (zero-padding the
// data portion, random-padding the remainder), emits the three mask
// rows, and verifies the pool has no leaked slots.
func (m *Manager) Finalize() error {
	if m.finalized {
		return nil
	}
	m.finalized = true

	if len(m.linearRow) > 0 {
		if err := m.flushLinearRow(); err != nil {
			return err
		}
	}
	if len(m.quadLRow) > 0 || len(m.quadRRow) > 0 || len(m.quadORow) > 0 {
		if err := m.flushQuadRow(); err != nil {
			return err
		}
	}

	if err := m.emitCodeMask(); err != nil {
		return err
	}
	if err := m.emitLinearMask(); err != nil {
		return err
	}
	if err := m.emitQuadraticMask(); err != nil {
		return err
	}

	for _, s := range m.slots {
		if s.inUse {
			return ErrSlotLeak
		}
	}
	for _, q := range m.quads {
		if q.inUse && (q.closed[0] || q.closed[1] || q.closed[2]) {
			return ErrQuadSlotLeak
		}
	}
	return nil
}

func (m *Manager) emitCodeMask() error {
	row := m.codeEngine.NextN(m.paddedRowSize)
	rand := padRandom(nil, m.paddedRowSize, m.linearEngine, false)
	return m.sink.CommitMask(MaskCode, row, rand)
}

// emitLinearMask builds the [0, rand, 0, rand, ..., 0, -Σrand] pattern of
// length 2k and hands it to the sink at that length, unchanged; the
// 2k->n NTT itself happens inside the encoder, downstream of the Manager.
func (m *Manager) emitLinearMask() error {
	pattern := make([]field.Element, 2*m.paddedRowSize)
	sum := field.Zero()
	for i := 0; i+1 < len(pattern); i += 2 {
		r := m.linearEngine.Next()
		pattern[i] = field.Zero()
		pattern[i+1] = r
		sum = sum.Add(r)
	}
	pattern[len(pattern)-1] = sum.Neg()
	rand := padRandom(nil, len(pattern), m.linearEngine, false)
	return m.sink.CommitMask(MaskLinear, pattern, rand)
}

func (m *Manager) emitQuadraticMask() error {
	pattern := make([]field.Element, 2*m.paddedRowSize)
	sum := field.Zero()
	for i := 0; i+1 < len(pattern); i += 2 {
		r := m.quadraticEngine.Next()
		pattern[i] = field.Zero()
		pattern[i+1] = r
		sum = sum.Add(r)
	}
	pattern[len(pattern)-1] = sum.Neg()
	rand := padRandom(nil, len(pattern), m.quadraticEngine, false)
	return m.sink.CommitMask(MaskQuadratic, pattern, rand)
}

// ConstantSum returns the running constant_sum accumulator.
func (m *Manager) ConstantSum() field.Element { return m.constantSum }

// ConstsumAdd accumulates k into constant_sum.
func (m *Manager) ConstsumAdd(k field.Element) { m.constantSum = m.constantSum.Add(k) }

// ConstsumSub subtracts k from constant_sum.
func (m *Manager) ConstsumSub(k field.Element) { m.constantSum = m.constantSum.Sub(k) }

// WitnessAddRandom adds r to a slot's random component in place.
func (m *Manager) WitnessAddRandom(h Handle, r field.Element) {
	e := m.entry(h)
	e.hasRandom = true
	e.random = e.random.Add(r)
}

// WitnessSubRandom subtracts r from a slot's random component in place.
func (m *Manager) WitnessSubRandom(h Handle, r field.Element) {
	e := m.entry(h)
	e.hasRandom = true
	e.random = e.random.Sub(r)
}

// GenerateLinearRandom draws a fresh linear-test random, gated by policy.
func (m *Manager) GenerateLinearRandom() field.Element {
	if !m.policy.LinearCheck {
		return field.Zero()
	}
	return m.linearEngine.Next()
}

// GenerateQuadraticRandom draws a fresh quadratic-test random, gated by
// policy.
func (m *Manager) GenerateQuadraticRandom() field.Element {
	if !m.policy.QuadraticCheck {
		return field.Zero()
	}
	return m.quadraticEngine.Next()
}

// GenerateCodeRandom draws a fresh code-test random.
func (m *Manager) GenerateCodeRandom() field.Element {
	return m.codeEngine.Next()
}
