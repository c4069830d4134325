// Copyright 2026 Subspace Registry Project

package nametx

import (
	"encoding/json"
	"testing"
)

func TestNewIsRegistration(t *testing.T) {
	tx := New("alice", [32]byte{1})
	if !tx.IsRegistration() {
		t.Fatal("fresh transaction should be a registration")
	}
	if _, ok := tx.Signature(); ok {
		t.Fatal("fresh transaction should not carry a signature")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	tx := New("bob", [32]byte{2, 3, 4})
	tx.Witness = append([]byte{byte(WitnessSignatureECDSA)}, make([]byte, 64)...)

	raw, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Transaction
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.Name != tx.Name || got.Owner != tx.Owner {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, tx)
	}
	if string(got.Witness) != string(tx.Witness) {
		t.Fatalf("witness round trip mismatch: got %x want %x", got.Witness, tx.Witness)
	}
	if got.Key() != tx.Key() {
		t.Fatalf("subspace key round trip mismatch")
	}
}

func TestJSONOmitsEmptyWitness(t *testing.T) {
	tx := New("carol", [32]byte{5})
	raw, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal to map: %v", err)
	}
	if _, present := m["witness"]; present {
		t.Fatal("empty witness should be omitted from JSON")
	}
}
