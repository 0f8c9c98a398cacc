// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import "fmt"

const pageSize = 64 * 1024

// byteInterval is a half-open byte range [Lo, Hi).
type byteInterval struct {
	Lo, Hi int
}

func (iv byteInterval) overlaps(o byteInterval) bool { return iv.Lo < o.Hi && o.Lo < iv.Hi }
func (iv byteInterval) contains(i int) bool          { return i >= iv.Lo && i < iv.Hi }
func (iv byteInterval) empty() bool                  { return iv.Lo >= iv.Hi }

// Memory is a linear memory of size a multiple of the WASM page size
// (64 KiB), plus the set of byte ranges currently holding witness data
// (the secret-byte interval set).
type Memory struct {
	data   []byte
	secret []byteInterval
}

// NewMemory allocates a zeroed memory of the given page count.
func NewMemory(pages int) *Memory {
	return &Memory{data: make([]byte, pages*pageSize)}
}

// Pages returns the current size in 64 KiB pages.
func (m *Memory) Pages() int { return len(m.data) / pageSize }

// Grow appends delta pages, returning the previous page count, or -1 if
// unable to grow (mirrors memory.grow's WASM return convention).
func (m *Memory) Grow(delta int) int {
	prev := m.Pages()
	if delta < 0 {
		return -1
	}
	m.data = append(m.data, make([]byte, delta*pageSize)...)
	return prev
}

func (m *Memory) checkBounds(offset, length int) error {
	if offset < 0 || length < 0 || offset+length > len(m.data) {
		return fmt.Errorf("%w: offset %d length %d size %d", ErrOutOfBounds, offset, length, len(m.data))
	}
	return nil
}

// IsSecret reports whether any byte in [offset, offset+length) overlaps
// a witness-marked interval.
func (m *Memory) IsSecret(offset, length int) bool {
	q := byteInterval{offset, offset + length}
	for _, iv := range m.secret {
		if iv.overlaps(q) {
			return true
		}
	}
	return false
}

// MarkSecret flags [offset, offset+length) as holding witness data.
func (m *Memory) MarkSecret(offset, length int) {
	if length <= 0 {
		return
	}
	m.secret = append(m.secret, byteInterval{offset, offset + length})
	m.secret = coalesce(m.secret)
}

// MarkPublic clears the secret flag over [offset, offset+length),
// splitting any interval that only partially overlaps it.
func (m *Memory) MarkPublic(offset, length int) {
	if length <= 0 {
		return
	}
	q := byteInterval{offset, offset + length}
	var out []byteInterval
	for _, iv := range m.secret {
		if !iv.overlaps(q) {
			out = append(out, iv)
			continue
		}
		if iv.Lo < q.Lo {
			out = append(out, byteInterval{iv.Lo, q.Lo})
		}
		if iv.Hi > q.Hi {
			out = append(out, byteInterval{q.Hi, iv.Hi})
		}
	}
	m.secret = out
}

func coalesce(ivs []byteInterval) []byteInterval {
	if len(ivs) < 2 {
		return ivs
	}
	sortIntervals(ivs)
	out := ivs[:1]
	for _, iv := range ivs[1:] {
		last := &out[len(out)-1]
		if iv.Lo <= last.Hi {
			if iv.Hi > last.Hi {
				last.Hi = iv.Hi
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

func sortIntervals(ivs []byteInterval) {
	for i := 1; i < len(ivs); i++ {
		for j := i; j > 0 && ivs[j].Lo < ivs[j-1].Lo; j-- {
			ivs[j], ivs[j-1] = ivs[j-1], ivs[j]
		}
	}
}

// Load reads length bytes at offset.
func (m *Memory) Load(offset, length int) ([]byte, error) {
	if err := m.checkBounds(offset, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, m.data[offset:offset+length])
	return out, nil
}

// Store writes b at offset, updating the secret-interval set according
// to whether the written value is concrete (clears) or witness-derived
// (marks secret) — callers pass secret=true when the source stack value
// was a witness/bits value.
func (m *Memory) Store(offset int, b []byte, secret bool) error {
	if err := m.checkBounds(offset, len(b)); err != nil {
		return err
	}
	copy(m.data[offset:offset+len(b)], b)
	if secret {
		m.MarkSecret(offset, len(b))
	} else {
		m.MarkPublic(offset, len(b))
	}
	return nil
}

// Copy implements memory.copy semantics: it moves length bytes from src
// to dst (handling overlap like memmove) and propagates the secret
// interval set by translating the portion of the source's secret
// intervals that fell inside [src, src+length) by (dst-src), after
// first clearing any previously-secret destination range.
func (m *Memory) Copy(dst, src, length int) error {
	if err := m.checkBounds(src, length); err != nil {
		return err
	}
	if err := m.checkBounds(dst, length); err != nil {
		return err
	}
	buf := make([]byte, length)
	copy(buf, m.data[src:src+length])
	copy(m.data[dst:dst+length], buf)

	srcRange := byteInterval{src, src + length}
	delta := dst - src

	var translated []byteInterval
	for _, iv := range m.secret {
		inter := intersect(iv, srcRange)
		if inter.empty() {
			continue
		}
		translated = append(translated, byteInterval{inter.Lo + delta, inter.Hi + delta})
	}

	m.MarkPublic(dst, length)
	for _, iv := range translated {
		m.MarkSecret(iv.Lo, iv.Hi-iv.Lo)
	}
	return nil
}

// Fill implements memory.fill: writes length copies of b at dst and
// clears the destination's secret flag (the fill value is concrete).
func (m *Memory) Fill(dst int, b byte, length int) error {
	if err := m.checkBounds(dst, length); err != nil {
		return err
	}
	for i := 0; i < length; i++ {
		m.data[dst+i] = b
	}
	m.MarkPublic(dst, length)
	return nil
}

func intersect(a, b byteInterval) byteInterval {
	lo := a.Lo
	if b.Lo > lo {
		lo = b.Lo
	}
	hi := a.Hi
	if b.Hi < hi {
		hi = b.Hi
	}
	return byteInterval{lo, hi}
}
