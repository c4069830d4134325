// Copyright 2026 Subspace Registry Project

package store

import (
	"path/filepath"
	"testing"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/certen/subspace-registry/pkg/hashutil"
	"github.com/certen/subspace-registry/pkg/smt"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db := dbm.NewMemDB()
	lockPath := filepath.Join(t.TempDir(), "store.lock")
	s, err := Open(db, lockPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func TestOpenEmptyDBHasEmptyRoot(t *testing.T) {
	s := openTestStore(t)
	snap := s.BeginRead()
	st := snap.Prove(nil)
	if st.Root() != smt.EmptyRoot() {
		t.Fatal("fresh store should prove an empty root")
	}
}

func TestWriteTxCommitPersistsAcrossSnapshots(t *testing.T) {
	s := openTestStore(t)
	key := [32]byte(hashutil.SumString("n"))
	var owner [32]byte
	owner[0] = 1

	tx, err := s.BeginWrite()
	if err != nil {
		t.Fatalf("begin write: %v", err)
	}
	tx.Insert(key, owner)
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	snap := s.BeginRead()
	st := snap.Prove([][32]byte{key})
	it := st.IterMut()
	gotKey, gotValue, ok := it.Next()
	if !ok || gotKey != key || *gotValue != owner {
		t.Fatalf("expected committed leaf to be provable, got ok=%v key=%x", ok, gotKey)
	}
}

func TestWriteTxCommitReopensWithSameData(t *testing.T) {
	db := dbm.NewMemDB()
	lockPath := filepath.Join(t.TempDir(), "store.lock")
	s, err := Open(db, lockPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	key := [32]byte(hashutil.SumString("n"))
	var owner [32]byte
	owner[0] = 7

	tx, err := s.BeginWrite()
	if err != nil {
		t.Fatalf("begin write: %v", err)
	}
	tx.Insert(key, owner)
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	reopened, err := Open(db, filepath.Join(t.TempDir(), "other.lock"))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.BeginRead().Prove(nil).Root() != s.BeginRead().Prove(nil).Root() {
		t.Fatal("reopened store should reconstruct the same root from the DB")
	}
}

func TestBeginWriteRejectsConcurrentWriter(t *testing.T) {
	s := openTestStore(t)

	tx1, err := s.BeginWrite()
	if err != nil {
		t.Fatalf("begin write: %v", err)
	}
	if _, err := s.BeginWrite(); err == nil {
		t.Fatal("expected second BeginWrite to fail while the first is outstanding")
	}
	if err := tx1.Discard(); err != nil {
		t.Fatalf("discard: %v", err)
	}

	tx2, err := s.BeginWrite()
	if err != nil {
		t.Fatalf("begin write after discard: %v", err)
	}
	if err := tx2.Discard(); err != nil {
		t.Fatalf("discard: %v", err)
	}
}

func TestDiscardDoesNotPersist(t *testing.T) {
	s := openTestStore(t)
	key := [32]byte(hashutil.SumString("n"))
	var owner [32]byte
	owner[0] = 1

	tx, err := s.BeginWrite()
	if err != nil {
		t.Fatalf("begin write: %v", err)
	}
	tx.Insert(key, owner)
	if err := tx.Discard(); err != nil {
		t.Fatalf("discard: %v", err)
	}

	if s.BeginRead().Prove(nil).Root() != smt.EmptyRoot() {
		t.Fatal("discarded writes must not affect the store's root")
	}
}

func TestCommitOrDiscardTwiceErrors(t *testing.T) {
	s := openTestStore(t)
	tx, err := s.BeginWrite()
	if err != nil {
		t.Fatalf("begin write: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := tx.Commit(); err == nil {
		t.Fatal("expected second Commit to error")
	}
}
