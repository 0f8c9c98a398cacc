// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package archive (de)serializes the proof archive: the little-endian
// binary stream a prove.Proof is persisted as, carrying the Stage 1
// Merkle root, the Stage 2 seed, the three encoded aggregate
// codewords, the Merkle decommit, and the Stage 3 sampled-column
// table, in that order.
package archive

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ligetron/zkvm/field"
)

// MerkleDecommit is the authentication-path bundle the verifier needs
// to check that the sampled columns really are leaves of the committed
// tree: the sample indices, one authentication path per index (root to
// leaf sibling digests), and the leaf digest itself at each index.
type MerkleDecommit struct {
	Indices []int
	Paths   [][][32]byte
	Leaves  [][32]byte
}

// Archive is the fully decoded proof archive.
type Archive struct {
	// Root is the Stage 1 Merkle root.
	Root [32]byte
	// Seed is the Stage 2 Fiat-Shamir seed: SHA-256 of the three
	// encoded aggregate rows.
	Seed [32]byte

	CodeAggregate      []field.Element
	LinearAggregate    []field.Element
	QuadraticAggregate []field.Element

	Decommit MerkleDecommit

	// Columns holds one sampled column per committed row, each of
	// length sample_size.
	Columns [][]field.Element
}

// Write serializes a into the five-part binary layout.
func Write(w io.Writer, a *Archive) error {
	if err := writeDigest(w, a.Root); err != nil {
		return fmt.Errorf("archive: write root: %w", err)
	}
	if err := writeDigest(w, a.Seed); err != nil {
		return fmt.Errorf("archive: write seed: %w", err)
	}
	for _, agg := range [][]field.Element{a.CodeAggregate, a.LinearAggregate, a.QuadraticAggregate} {
		if err := writeElementVector(w, agg); err != nil {
			return fmt.Errorf("archive: write aggregate: %w", err)
		}
	}
	if err := writeDecommit(w, a.Decommit); err != nil {
		return fmt.Errorf("archive: write decommit: %w", err)
	}
	if err := writeUint32(w, uint32(len(a.Columns))); err != nil {
		return fmt.Errorf("archive: write column count: %w", err)
	}
	for _, col := range a.Columns {
		if err := writeElementVector(w, col); err != nil {
			return fmt.Errorf("archive: write column: %w", err)
		}
	}
	return nil
}

// Read parses an Archive from its binary layout.
func Read(r io.Reader) (*Archive, error) {
	a := &Archive{}
	var err error
	if a.Root, err = readDigest(r); err != nil {
		return nil, fmt.Errorf("archive: read root: %w", err)
	}
	if a.Seed, err = readDigest(r); err != nil {
		return nil, fmt.Errorf("archive: read seed: %w", err)
	}
	if a.CodeAggregate, err = readElementVector(r); err != nil {
		return nil, fmt.Errorf("archive: read code aggregate: %w", err)
	}
	if a.LinearAggregate, err = readElementVector(r); err != nil {
		return nil, fmt.Errorf("archive: read linear aggregate: %w", err)
	}
	if a.QuadraticAggregate, err = readElementVector(r); err != nil {
		return nil, fmt.Errorf("archive: read quadratic aggregate: %w", err)
	}
	if a.Decommit, err = readDecommit(r); err != nil {
		return nil, fmt.Errorf("archive: read decommit: %w", err)
	}
	count, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("archive: read column count: %w", err)
	}
	a.Columns = make([][]field.Element, count)
	for i := range a.Columns {
		if a.Columns[i], err = readElementVector(r); err != nil {
			return nil, fmt.Errorf("archive: read column %d: %w", i, err)
		}
	}
	return a, nil
}

func writeDecommit(w io.Writer, d MerkleDecommit) error {
	if err := writeUint32(w, uint32(len(d.Indices))); err != nil {
		return err
	}
	for _, idx := range d.Indices {
		if err := writeUint32(w, uint32(idx)); err != nil {
			return err
		}
	}
	for _, path := range d.Paths {
		if err := writeUint32(w, uint32(len(path))); err != nil {
			return err
		}
		for _, digest := range path {
			if err := writeDigest(w, digest); err != nil {
				return err
			}
		}
	}
	for _, leaf := range d.Leaves {
		if err := writeDigest(w, leaf); err != nil {
			return err
		}
	}
	return nil
}

func readDecommit(r io.Reader) (MerkleDecommit, error) {
	var d MerkleDecommit
	n, err := readUint32(r)
	if err != nil {
		return d, err
	}
	d.Indices = make([]int, n)
	for i := range d.Indices {
		v, err := readUint32(r)
		if err != nil {
			return d, err
		}
		d.Indices[i] = int(v)
	}
	d.Paths = make([][][32]byte, n)
	for i := range d.Paths {
		depth, err := readUint32(r)
		if err != nil {
			return d, err
		}
		path := make([][32]byte, depth)
		for j := range path {
			if path[j], err = readDigest(r); err != nil {
				return d, err
			}
		}
		d.Paths[i] = path
	}
	d.Leaves = make([][32]byte, n)
	for i := range d.Leaves {
		if d.Leaves[i], err = readDigest(r); err != nil {
			return d, err
		}
	}
	return d, nil
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeDigest(w io.Writer, d [32]byte) error {
	_, err := w.Write(d[:])
	return err
}

func readDigest(r io.Reader) ([32]byte, error) {
	var d [32]byte
	_, err := io.ReadFull(r, d[:])
	return d, err
}

// writeElement serializes one field element as its four 64-bit limbs,
// least significant limb first (not the canonical big-endian form).
func writeElement(w io.Writer, e field.Element) error {
	limbs := e.Limbs()
	var buf [32]byte
	for i, limb := range limbs {
		binary.LittleEndian.PutUint64(buf[i*8:], limb)
	}
	_, err := w.Write(buf[:])
	return err
}

func readElement(r io.Reader) (field.Element, error) {
	var buf [32]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return field.Element{}, err
	}
	var limbs [4]uint64
	for i := range limbs {
		limbs[i] = binary.LittleEndian.Uint64(buf[i*8:])
	}
	return field.FromLimbs(limbs), nil
}

func writeElementVector(w io.Writer, v []field.Element) error {
	if err := writeUint32(w, uint32(len(v))); err != nil {
		return err
	}
	for _, e := range v {
		if err := writeElement(w, e); err != nil {
			return err
		}
	}
	return nil
}

func readElementVector(r io.Reader) ([]field.Element, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	out := make([]field.Element, n)
	for i := range out {
		if out[i], err = readElement(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}
