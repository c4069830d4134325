// Copyright 2026 Subspace Registry Project

package subtree

import (
	"testing"

	"github.com/certen/subspace-registry/pkg/hashutil"
)

func TestBuilderLeafOnlyRootMatchesDefaultSiblings(t *testing.T) {
	key := [32]byte(hashutil.SumString("solo"))
	var owner [32]byte
	owner[0] = 7

	b := NewBuilder()
	b.AddLeaf(key, owner, true)
	st := b.Build()

	want := hashutil.Sum(owner[:])
	for d := 0; d < depth; d++ {
		if bitAt(key, depth-1-d) == 0 {
			want = hashutil.Concat(want[:], defaultHash[d][:])
		} else {
			want = hashutil.Concat(defaultHash[d][:], want[:])
		}
	}

	if st.Root() != want {
		t.Fatalf("root mismatch:\ngot  %x\nwant %x", st.Root(), want)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	k1 := [32]byte(hashutil.SumString("a"))
	k2 := [32]byte(hashutil.SumString("b"))
	var o1, o2 [32]byte
	o1[0], o2[0] = 1, 2

	b := NewBuilder()
	b.AddLeaf(k1, o1, true)
	b.AddLeaf(k2, [32]byte{}, false)

	var prefix [32]byte
	prefix[0] = 0x80
	b.AddFringe(1, prefix, hashutil.SumString("fringe"))

	orig := b.Build()
	encoded := orig.Encode()

	decoded, consumed, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if consumed != len(encoded) {
		t.Fatalf("consumed = %d, want %d", consumed, len(encoded))
	}
	if decoded.Root() != orig.Root() {
		t.Fatalf("decoded root %x != original root %x", decoded.Root(), orig.Root())
	}
}

func TestDecodeWithTrailingBytesReportsConsumedPrefix(t *testing.T) {
	k := [32]byte(hashutil.SumString("x"))
	b := NewBuilder()
	b.AddLeaf(k, [32]byte{9}, true)
	encoded := b.Build().Encode()

	trailer := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	full := append(append([]byte{}, encoded...), trailer...)

	_, consumed, err := Decode(full)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if consumed != len(encoded) {
		t.Fatalf("consumed = %d, want %d (trailer must be left for the caller)", consumed, len(encoded))
	}
}

func TestDecodeTruncatedInputErrors(t *testing.T) {
	if _, _, err := Decode([]byte{0x01}); err == nil {
		t.Fatal("expected error decoding a 1-byte input")
	}

	k := [32]byte(hashutil.SumString("y"))
	b := NewBuilder()
	b.AddLeaf(k, [32]byte{1}, true)
	encoded := b.Build().Encode()

	if _, _, err := Decode(encoded[:len(encoded)-10]); err == nil {
		t.Fatal("expected error decoding a truncated leaf record")
	}
}

func TestInsertAndIterMut(t *testing.T) {
	present := [32]byte(hashutil.SumString("present"))
	absent := [32]byte(hashutil.SumString("absent"))
	var ownerPresent [32]byte
	ownerPresent[0] = 5

	b := NewBuilder()
	b.AddLeaf(present, ownerPresent, true)
	b.AddLeaf(absent, [32]byte{}, false)
	st := b.Build()

	it := st.IterMut()
	key, value, ok := it.Next()
	if !ok || key != present {
		t.Fatalf("expected only the present leaf to iterate, got key=%x ok=%v", key, ok)
	}
	if *value != ownerPresent {
		t.Fatalf("value mismatch: got %x want %x", *value, ownerPresent)
	}
	if _, _, ok := it.Next(); ok {
		t.Fatal("expected iterator exhausted after the one present leaf")
	}

	var newOwner [32]byte
	newOwner[0] = 55
	if err := st.Insert(absent, newOwner); err != nil {
		t.Fatalf("insert into previously absent leaf: %v", err)
	}
	if err := st.Insert(present, newOwner); err == nil {
		t.Fatal("expected ErrKeyExists inserting over a present leaf")
	}
}
