// Copyright 2026 Subspace Registry Project

package wire

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func buildFrame(subspaceHash, owner [32]byte, witness []byte) []byte {
	length := entryMinLen + len(witness)
	out := make([]byte, 2+length)
	binary.LittleEndian.PutUint16(out[:2], uint16(length))
	copy(out[2:34], subspaceHash[:])
	copy(out[34:66], owner[:])
	copy(out[66:], witness)
	return out
}

func TestHeaderVersionSpaceHash(t *testing.T) {
	var spaceHash [32]byte
	copy(spaceHash[:], bytes.Repeat([]byte{0xAB}, 32))

	header := append([]byte{0x00}, spaceHash[:]...)
	r := NewReader(header)

	if r.Version() != 0 {
		t.Fatalf("version = %d, want 0", r.Version())
	}
	if r.SpaceHash() != spaceHash {
		t.Fatalf("space hash mismatch: got %x want %x", r.SpaceHash(), spaceHash)
	}
	if !bytes.Equal(r.Header(), header) {
		t.Fatalf("header mismatch: got %x want %x", r.Header(), header)
	}
}

func TestIterYieldsEntriesInOrder(t *testing.T) {
	var h1, h2, o1, o2 [32]byte
	h1[0], h2[0] = 1, 2
	o1[0], o2[0] = 11, 22

	f1 := buildFrame(h1, o1, nil)
	f2 := buildFrame(h2, o2, []byte{0x00, 1, 2, 3})

	body := append(append([]byte{}, f1...), f2...)
	header := append([]byte{0x00}, make([]byte, 32)...)
	r := NewReader(append(header, body...))

	it := r.Iter()

	e1, ok := it.Next()
	if !ok {
		t.Fatal("expected first entry")
	}
	if e1.SubspaceHash != h1 || e1.Owner != o1 || len(e1.Witness) != 0 {
		t.Fatalf("first entry mismatch: %+v", e1)
	}

	e2, ok := it.Next()
	if !ok {
		t.Fatal("expected second entry")
	}
	if e2.SubspaceHash != h2 || e2.Owner != o2 {
		t.Fatalf("second entry mismatch: %+v", e2)
	}
	if !bytes.Equal(e2.Witness, []byte{0x00, 1, 2, 3}) {
		t.Fatalf("second witness mismatch: %x", e2.Witness)
	}

	if _, ok := it.Next(); ok {
		t.Fatal("expected iterator exhausted")
	}
}

func TestIterStopsOnTooFewBytesRemaining(t *testing.T) {
	it := &BodyIterator{data: []byte{0x01}}
	if _, ok := it.Next(); ok {
		t.Fatal("expected false with fewer than 2 bytes remaining")
	}
}

func TestIterStopsOnLengthUnderMinimum(t *testing.T) {
	var buf [2 + 63]byte
	binary.LittleEndian.PutUint16(buf[:2], 63)
	it := &BodyIterator{data: buf[:]}
	if _, ok := it.Next(); ok {
		t.Fatal("expected false when declared length is under 64")
	}
}

func TestIterStopsOnTruncatedFrame(t *testing.T) {
	var h, o [32]byte
	full := buildFrame(h, o, []byte{0x00, 1, 2})
	// Truncate the frame so the declared length exceeds what remains.
	truncated := full[:len(full)-5]
	it := &BodyIterator{data: truncated}
	if _, ok := it.Next(); ok {
		t.Fatal("expected false on a truncated frame, not a panic or error")
	}
}

func TestIterEmptyBody(t *testing.T) {
	header := append([]byte{0x00}, make([]byte, 32)...)
	r := NewReader(header)
	it := r.Iter()
	if _, ok := it.Next(); ok {
		t.Fatal("expected no entries for an empty body")
	}
}
