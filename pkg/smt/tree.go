// Copyright 2026 Subspace Registry Project
//
// Sparse Merkle Tree - a depth-256 authenticated dictionary keyed by
// 32-byte (256-bit) hashes, the local in-process stand-in for an
// external, opaque sparse-Merkle database. Precomputed default-subtree hashes let
// absence be proven without touching unrelated branches, the same
// defaulting trick bwesterb-go-xmssmt's subtree cache addressing and
// iotaledger-trie.go's sparse structures rely on, adapted here to a
// plain binary trie keyed by 256-bit hashes rather than a
// Patricia/byte-trie.

package smt

import (
	"sort"
	"sync"

	"github.com/certen/subspace-registry/pkg/hashutil"
	"github.com/certen/subspace-registry/pkg/subtree"
)

// Depth is the number of branching levels between the root and a leaf:
// every key is exactly 256 bits, so every leaf sits at this depth.
const Depth = 256

// defaultHash[d] is the root hash of a completely empty subtree of
// depth d (d branching levels below it). defaultHash[0] is the hash of
// an empty leaf slot; defaultHash[Depth] is the root of a fully empty
// tree. Computed once at package init by repeated SHA-256(d, d).
var defaultHash [Depth + 1]hashutil.Hash

func init() {
	defaultHash[0] = hashutil.Sum(nil)
	for d := 1; d <= Depth; d++ {
		prev := defaultHash[d-1]
		defaultHash[d] = hashutil.Concat(prev[:], prev[:])
	}
}

// EmptyRoot is the root hash of a tree with no leaves.
func EmptyRoot() hashutil.Hash {
	return defaultHash[Depth]
}

// Tree is an in-memory sparse Merkle tree over 32-byte Owner leaves.
type Tree struct {
	mu     sync.RWMutex
	leaves map[[32]byte][32]byte
}

// New returns an empty Tree.
func New() *Tree {
	return &Tree{leaves: make(map[[32]byte][32]byte)}
}

// Set records value at key, inserting or overwriting it.
func (t *Tree) Set(key, value [32]byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.leaves[key] = value
}

// Get returns the value at key and whether it is present.
func (t *Tree) Get(key [32]byte) ([32]byte, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.leaves[key]
	return v, ok
}

// Root returns the tree's current root hash.
func (t *Tree) Root() hashutil.Hash {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return rootOf(t.sortedEntriesLocked(), 0)
}

type entry struct {
	key   [32]byte
	value [32]byte
}

func (t *Tree) sortedEntriesLocked() []entry {
	out := make([]entry, 0, len(t.leaves))
	for k, v := range t.leaves {
		out = append(out, entry{key: k, value: v})
	}
	sort.Slice(out, func(i, j int) bool { return lessKey(out[i].key, out[j].key) })
	return out
}

func lessKey(a, b [32]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func bitAt(key [32]byte, i int) int {
	byteIdx := i / 8
	shift := 7 - uint(i%8)
	return int((key[byteIdx] >> shift) & 1)
}

// rootOf computes the root hash of the subtree containing exactly
// entries, bitIndex bits below the root (i.e. at depth Depth-bitIndex).
func rootOf(entries []entry, bitIndex int) hashutil.Hash {
	if len(entries) == 0 {
		return defaultHash[Depth-bitIndex]
	}
	if bitIndex == Depth {
		return hashutil.Sum(entries[0].value[:])
	}
	left, right := splitEntries(entries, bitIndex)
	lh := rootOf(left, bitIndex+1)
	rh := rootOf(right, bitIndex+1)
	return hashutil.Concat(lh[:], rh[:])
}

func splitEntries(entries []entry, bitIndex int) (left, right []entry) {
	i := sort.Search(len(entries), func(i int) bool { return bitAt(entries[i].key, bitIndex) == 1 })
	return entries[:i], entries[i:]
}

// Prove returns a SubTree covering exactly keys: for each, either its
// current (key, value) pair if present in the tree, or a recorded
// absence. It also records the minimal set of sibling hashes ("fringe")
// needed to recompute the root after keys' leaves are mutated or
// inserted - branches that are genuinely empty are left for the
// subtree to derive from its own default-hash table rather than being
// listed explicitly.
func (t *Tree) Prove(keys [][32]byte) *subtree.SubTree {
	t.mu.RLock()
	defer t.mu.RUnlock()

	proveKeys := make([][32]byte, len(keys))
	copy(proveKeys, keys)
	sort.Slice(proveKeys, func(i, j int) bool { return lessKey(proveKeys[i], proveKeys[j]) })

	b := subtree.NewBuilder()
	var prefix [32]byte
	prove(t.sortedEntriesLocked(), proveKeys, 0, prefix, b)
	return b.Build()
}

// prove walks the tree in lockstep with the keys being proven, emitting
// leaves for every key reached at depth Depth and a fringe hash for any
// sibling subtree that contains none of the proven keys but is not the
// default (empty) subtree.
func prove(entries []entry, proveKeys [][32]byte, bitIndex int, prefix [32]byte, b *subtree.Builder) hashutil.Hash {
	if len(proveKeys) == 0 {
		h := rootOf(entries, bitIndex)
		if h != defaultHash[Depth-bitIndex] {
			b.AddFringe(bitIndex, prefix, h)
		}
		return h
	}

	if bitIndex == Depth {
		key := proveKeys[0]
		var value [32]byte
		present := false
		for _, e := range entries {
			if e.key == key {
				value = e.value
				present = true
				break
			}
		}
		b.AddLeaf(key, value, present)
		if present {
			return hashutil.Sum(value[:])
		}
		return defaultHash[0]
	}

	leftEntries, rightEntries := splitEntries(entries, bitIndex)
	leftKeys, rightKeys := splitKeys(proveKeys, bitIndex)

	leftPrefix, rightPrefix := prefix, prefix
	setBit(&rightPrefix, bitIndex)

	lh := prove(leftEntries, leftKeys, bitIndex+1, leftPrefix, b)
	rh := prove(rightEntries, rightKeys, bitIndex+1, rightPrefix, b)
	return hashutil.Concat(lh[:], rh[:])
}

func splitKeys(keys [][32]byte, bitIndex int) (left, right [][32]byte) {
	i := sort.Search(len(keys), func(i int) bool { return bitAt(keys[i], bitIndex) == 1 })
	return keys[:i], keys[i:]
}

func setBit(buf *[32]byte, i int) {
	byteIdx := i / 8
	shift := 7 - uint(i%8)
	buf[byteIdx] |= 1 << shift
}
