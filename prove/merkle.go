// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prove

import (
	"crypto/sha256"
	"fmt"
)

// merkleTree is a binary hash tree over a power-of-two number of leaf
// digests, built bottom-up with a plain sha256(left||right) combiner.
type merkleTree struct {
	levels [][][32]byte // levels[0] = leaves, levels[len-1] = {root}
}

func buildMerkleTree(leaves [][32]byte) (*merkleTree, error) {
	if len(leaves) == 0 || len(leaves)&(len(leaves)-1) != 0 {
		return nil, fmt.Errorf("prove: merkle tree needs a power-of-two leaf count, got %d", len(leaves))
	}
	t := &merkleTree{levels: [][][32]byte{leaves}}
	cur := leaves
	for len(cur) > 1 {
		next := make([][32]byte, len(cur)/2)
		for i := range next {
			next[i] = hashPair(cur[2*i], cur[2*i+1])
		}
		t.levels = append(t.levels, next)
		cur = next
	}
	return t, nil
}

func hashPair(a, b [32]byte) [32]byte {
	h := sha256.New()
	h.Write(a[:])
	h.Write(b[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Root returns the tree's root digest.
func (t *merkleTree) Root() [32]byte {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Path returns the sibling digest at each level on the way from leaf
// index to the root, root-exclusive, leaf-first.
func (t *merkleTree) Path(index int) [][32]byte {
	path := make([][32]byte, 0, len(t.levels)-1)
	idx := index
	for level := 0; level < len(t.levels)-1; level++ {
		sibling := idx ^ 1
		path = append(path, t.levels[level][sibling])
		idx /= 2
	}
	return path
}

// verifyMerklePath recomputes the root from leaf, its index, and an
// authentication path, and checks it against root.
func verifyMerklePath(root [32]byte, index int, leaf [32]byte, path [][32]byte) bool {
	cur := leaf
	idx := index
	for _, sibling := range path {
		if idx%2 == 0 {
			cur = hashPair(cur, sibling)
		} else {
			cur = hashPair(sibling, cur)
		}
		idx /= 2
	}
	return cur == root
}
