// Copyright 2026 Subspace Registry Project

package regbatch

import (
	"testing"

	"github.com/certen/subspace-registry/pkg/nametx"
)

func TestStagingRoundTrip(t *testing.T) {
	a := New()
	if err := a.Add(nametx.New("alice", [32]byte{1}), nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	saved, err := SaveStaging(map[string]*Builder{"space-a": a})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadStaging(saved)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	b, ok := loaded["space-a"]
	if !ok {
		t.Fatal("expected space-a in loaded staging")
	}
	if b.Len() != 1 {
		t.Fatalf("expected 1 transaction, got %d", b.Len())
	}
	if b.txs[0].Name != "alice" {
		t.Fatalf("expected name alice, got %s", b.txs[0].Name)
	}
}

func TestStagingRejectsDuplicateName(t *testing.T) {
	raw := []byte(`{
		"space-a": {
			"version": 0,
			"transactions": [
				{"name": "alice", "owner": "0100000000000000000000000000000000000000000000000000000000000000"},
				{"name": "alice", "owner": "0200000000000000000000000000000000000000000000000000000000000000"}
			]
		}
	}`)

	if _, err := LoadStaging(raw); err == nil {
		t.Fatal("expected duplicate name to fail staging load")
	}
}
