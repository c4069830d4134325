// Copyright 2026 Subspace Registry Project

package smt

import (
	"testing"

	"github.com/certen/subspace-registry/pkg/hashutil"
)

func TestEmptyTreeRootIsDefault(t *testing.T) {
	tr := New()
	if tr.Root() != EmptyRoot() {
		t.Fatal("empty tree root should equal EmptyRoot()")
	}
}

func TestSingleLeafRootMatchesScenario1(t *testing.T) {
	tr := New()
	key := hashutil.SumString("n")
	var owner [32]byte // all-zero owner, a fresh registration's simplest case

	tr.Set([32]byte(key), owner)

	got := tr.Root()
	want := hashutil.Sum(owner[:])
	for d := 0; d < Depth; d++ {
		if bitAt([32]byte(key), Depth-1-d) == 0 {
			want = hashutil.Concat(want[:], defaultHash[d][:])
		} else {
			want = hashutil.Concat(defaultHash[d][:], want[:])
		}
	}
	if got != want {
		t.Fatalf("single-leaf root mismatch:\ngot  %x\nwant %x", got, want)
	}
}

func TestProveAbsentKeyAllowsInsertAfterwards(t *testing.T) {
	tr := New()
	key := [32]byte(hashutil.SumString("fresh"))

	st := tr.Prove([][32]byte{key})
	if st.Root() != tr.Root() {
		t.Fatalf("proof root %x should match tree root %x before mutation", st.Root(), tr.Root())
	}

	var owner [32]byte
	owner[0] = 0xAA
	if err := st.Insert(key, owner); err != nil {
		t.Fatalf("insert: %v", err)
	}

	tr.Set(key, owner)
	if st.Root() != tr.Root() {
		t.Fatalf("post-insert proof root %x should match tree root %x", st.Root(), tr.Root())
	}
}

func TestProveMultipleKeysMutateIndependently(t *testing.T) {
	tr := New()
	k1 := [32]byte(hashutil.SumString("alice"))
	k2 := [32]byte(hashutil.SumString("bob"))
	k3 := [32]byte(hashutil.SumString("carol"))

	var o1, o2, o3 [32]byte
	o1[0], o2[0], o3[0] = 1, 2, 3
	tr.Set(k1, o1)
	tr.Set(k2, o2)
	tr.Set(k3, o3)

	// Prove only k1 and k2, leaving k3 as an unrelated, uncovered leaf
	// whose hash must be supplied as a fringe.
	st := tr.Prove([][32]byte{k1, k2})
	if st.Root() != tr.Root() {
		t.Fatalf("proof root should match full tree root before mutation")
	}

	it := st.IterMut()
	seen := map[[32]byte]bool{}
	for {
		key, value, ok := it.Next()
		if !ok {
			break
		}
		seen[key] = true
		var newOwner [32]byte
		newOwner[0] = value[0] + 100
		*value = newOwner
	}
	if len(seen) != 2 || !seen[k1] || !seen[k2] {
		t.Fatalf("expected exactly k1 and k2 to be iterated, got %v", seen)
	}

	tr.Set(k1, [32]byte{101})
	tr.Set(k2, [32]byte{102})

	if st.Root() != tr.Root() {
		t.Fatalf("mutated proof root %x should match updated tree root %x", st.Root(), tr.Root())
	}
}

func TestProveRejectsDoubleRegistration(t *testing.T) {
	tr := New()
	key := [32]byte(hashutil.SumString("dup"))

	st := tr.Prove([][32]byte{key})
	var owner [32]byte
	if err := st.Insert(key, owner); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := st.Insert(key, owner); err == nil {
		t.Fatal("expected ErrKeyExists on second insert")
	}
}

func TestProveRejectsUncoveredKey(t *testing.T) {
	tr := New()
	key := [32]byte(hashutil.SumString("covered"))
	uncovered := [32]byte(hashutil.SumString("not-covered"))

	st := tr.Prove([][32]byte{key})
	var owner [32]byte
	if err := st.Insert(uncovered, owner); err == nil {
		t.Fatal("expected ErrIncompleteProof for a key outside the proof")
	}
}
