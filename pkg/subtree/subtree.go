// Copyright 2026 Subspace Registry Project
//
// Subtree - the authenticated sparse-Merkle proof fragment a guest
// input carries: a bundle of the leaves a batch touches plus the
// minimal sibling hashes needed to recompute the root, supporting
// in-place leaf mutation and absence-proved insertion. Built to be
// genuinely correct for multi-leaf batched proofs rather than a toy
// stub, since pkg/guest depends on it for every transition it proves.

package subtree

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/certen/subspace-registry/pkg/hashutil"
)

// ErrKeyExists is returned by Insert when the key already has a present
// leaf - the guest maps this to GuestErrorKind KeyExists.
var ErrKeyExists = errors.New("subtree: key already exists")

// ErrIncompleteProof is returned by Insert when key was never included
// in the proof this SubTree was built from - the guest maps this to
// GuestErrorKind IncompleteSubTree.
var ErrIncompleteProof = errors.New("subtree: key not covered by this proof")

// depth is the number of branching levels between the root and a leaf;
// kept in lockstep with pkg/smt.Depth but not imported from it, so this
// package stands alone as the reference decoder for bytes produced by
// any conforming proof source.
const depth = 256

var defaultHash [depth + 1]hashutil.Hash

func init() {
	defaultHash[0] = hashutil.Sum(nil)
	for d := 1; d <= depth; d++ {
		prev := defaultHash[d-1]
		defaultHash[d] = hashutil.Concat(prev[:], prev[:])
	}
}

func bitAt(key [32]byte, i int) int {
	byteIdx := i / 8
	shift := 7 - uint(i%8)
	return int((key[byteIdx] >> shift) & 1)
}

// leafState is the proof's record for one included key.
type leafState struct {
	key     [32]byte
	value   [32]byte
	present bool
}

// fringeRecord is a sibling hash fixed by the proof, recorded for
// re-encoding; the node tree below carries the authoritative copy used
// by Root.
type fringeRecord struct {
	depth  int
	prefix [32]byte
	hash   hashutil.Hash
}

// node is one point in the proof's explicit, sparse node tree: either a
// fringe stub (fixed hash, subtree never touched), a leaf (depth ==
// depth), or an internal branch with up to two children. A nil child
// stands for a subtree this proof asserts is genuinely empty (default).
type node struct {
	fringeHash *hashutil.Hash
	leaf       *leafState
	left       *node
	right      *node
}

func (n *node) hash(d int) hashutil.Hash {
	if n == nil {
		return defaultHash[depth-d]
	}
	if n.fringeHash != nil {
		return *n.fringeHash
	}
	if d == depth {
		if n.leaf != nil && n.leaf.present {
			return hashutil.Sum(n.leaf.value[:])
		}
		return defaultHash[0]
	}
	lh := n.left.hash(d + 1)
	rh := n.right.hash(d + 1)
	return hashutil.Concat(lh[:], rh[:])
}

// SubTree is a constructed authenticated proof fragment. Build one via
// Builder (for a freshly computed proof) or Decode (for bytes received
// over the wire).
type SubTree struct {
	root   *node
	leaves []*leafState // sorted ascending by key
	byKey  map[[32]byte]*leafState
	fringe []fringeRecord
}

// Root returns the subtree's current root hash, recomputed bottom-up
// from its leaves and fringe hashes.
func (st *SubTree) Root() hashutil.Hash {
	return st.root.hash(0)
}

// LeafIterator walks a SubTree's present leaves in ascending key order.
type LeafIterator struct {
	items []*leafState
	idx   int
}

// IterMut returns an iterator over the leaves present when it is called
// (found present by the proof, or added since by Insert), in ascending
// key order - the guest zips this against the batch's update entries.
func (st *SubTree) IterMut() *LeafIterator {
	items := make([]*leafState, 0, len(st.leaves))
	for _, l := range st.leaves {
		if l.present {
			items = append(items, l)
		}
	}
	return &LeafIterator{items: items}
}

// Next returns the next present leaf's key and a pointer to its value
// (mutate it in place to apply an update), or ok=false once exhausted.
func (it *LeafIterator) Next() (key [32]byte, value *[32]byte, ok bool) {
	if it.idx >= len(it.items) {
		return [32]byte{}, nil, false
	}
	l := it.items[it.idx]
	it.idx++
	return l.key, &l.value, true
}

// Insert records value at key as a brand-new leaf, establishing the
// key's prior absence. It fails with ErrKeyExists if key already has a
// present leaf, or ErrIncompleteProof if key was never part of this
// proof at all.
func (st *SubTree) Insert(key, value [32]byte) error {
	l, ok := st.byKey[key]
	if !ok {
		return ErrIncompleteProof
	}
	if l.present {
		return ErrKeyExists
	}
	l.value = value
	l.present = true
	return nil
}

// Builder assembles a SubTree one leaf/fringe record at a time, in the
// shape pkg/smt.Tree.Prove (or any other conforming proof producer)
// emits.
type Builder struct {
	root   *node
	leaves []*leafState
	byKey  map[[32]byte]*leafState
	fringe []fringeRecord
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{root: &node{}, byKey: make(map[[32]byte]*leafState)}
}

// AddLeaf records key's state as found by the proof: value and present
// if the tree it was drawn from had a leaf there, zero/false otherwise.
func (b *Builder) AddLeaf(key, value [32]byte, present bool) {
	n := b.descend(key, depth)
	l := &leafState{key: key, value: value, present: present}
	n.leaf = l
	b.leaves = append(b.leaves, l)
	b.byKey[key] = l
}

// AddFringe records the fixed hash of the sibling subtree rooted at
// depth bits below the root, reached by following prefix's first depth
// bits from the root.
func (b *Builder) AddFringe(depth int, prefix [32]byte, hash hashutil.Hash) {
	n := b.descend(prefix, depth)
	h := hash
	n.fringeHash = &h
	b.fringe = append(b.fringe, fringeRecord{depth: depth, prefix: prefix, hash: hash})
}

func (b *Builder) descend(path [32]byte, toDepth int) *node {
	n := b.root
	for d := 0; d < toDepth; d++ {
		if bitAt(path, d) == 0 {
			if n.left == nil {
				n.left = &node{}
			}
			n = n.left
		} else {
			if n.right == nil {
				n.right = &node{}
			}
			n = n.right
		}
	}
	return n
}

// Build finalizes the SubTree, sorting its leaves ascending by key.
func (b *Builder) Build() *SubTree {
	sort.Slice(b.leaves, func(i, j int) bool { return lessKey(b.leaves[i].key, b.leaves[j].key) })
	return &SubTree{root: b.root, leaves: b.leaves, byKey: b.byKey, fringe: b.fringe}
}

func lessKey(a, b [32]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Encode serializes st into the self-delimiting binary form Decode
// reads back: a leaf count and leaf records, then a fringe count and
// fringe records.
func (st *SubTree) Encode() []byte {
	out := make([]byte, 0, 2+len(st.leaves)*65+2+len(st.fringe)*65)

	var countBuf [2]byte
	binary.LittleEndian.PutUint16(countBuf[:], uint16(len(st.leaves)))
	out = append(out, countBuf[:]...)
	for _, l := range st.leaves {
		out = append(out, l.key[:]...)
		if l.present {
			out = append(out, 1)
		} else {
			out = append(out, 0)
		}
		out = append(out, l.value[:]...)
	}

	binary.LittleEndian.PutUint16(countBuf[:], uint16(len(st.fringe)))
	out = append(out, countBuf[:]...)
	for _, f := range st.fringe {
		out = append(out, byte(f.depth))
		out = append(out, f.prefix[:]...)
		out = append(out, f.hash[:]...)
	}

	return out
}

// Decode parses the binary form Encode produces, returning the
// reconstructed SubTree and the number of bytes it consumed from data
// so the caller can slice the remaining wire batch starting at that
// offset - mirroring bincode::decode_from_slice's (value, read_size)
// pair the original guest relies on (original_source/program/src/
// guest.rs).
func Decode(data []byte) (*SubTree, int, error) {
	if len(data) < 2 {
		return nil, 0, fmt.Errorf("subtree: truncated leaf count")
	}
	offset := 0
	leafCount := int(binary.LittleEndian.Uint16(data[offset : offset+2]))
	offset += 2

	b := NewBuilder()
	for i := 0; i < leafCount; i++ {
		if len(data)-offset < 65 {
			return nil, 0, fmt.Errorf("subtree: truncated leaf record %d", i)
		}
		var key, value [32]byte
		copy(key[:], data[offset:offset+32])
		offset += 32
		present := data[offset] != 0
		offset++
		copy(value[:], data[offset:offset+32])
		offset += 32
		b.AddLeaf(key, value, present)
	}

	if len(data)-offset < 2 {
		return nil, 0, fmt.Errorf("subtree: truncated fringe count")
	}
	fringeCount := int(binary.LittleEndian.Uint16(data[offset : offset+2]))
	offset += 2

	for i := 0; i < fringeCount; i++ {
		if len(data)-offset < 65 {
			return nil, 0, fmt.Errorf("subtree: truncated fringe record %d", i)
		}
		d := int(data[offset])
		offset++
		var prefix [32]byte
		copy(prefix[:], data[offset:offset+32])
		offset += 32
		var h hashutil.Hash
		copy(h[:], data[offset:offset+32])
		offset += 32
		b.AddFringe(d, prefix, h)
	}

	return b.Build(), offset, nil
}
