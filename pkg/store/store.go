// Copyright 2026 Subspace Registry Project
//
// Persistent Subtree Store - the concrete backing for what would
// otherwise be an opaque external store: a durable, single-writer
// sparse Merkle tree over one space's subspace keys. Generalized from
// pkg/kvdb.KVAdapter (a thin wrapper over a cometbft-db DB) and
// pkg/database/client.go's connection/teardown-error-aggregation
// style, adapted here from a generic key-value façade to a
// tree-shaped Snapshot/WriteTx contract.

package store

import (
	"fmt"
	"os"
	"sync"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/hashicorp/go-multierror"
	"github.com/nightlyone/lockfile"

	"github.com/certen/subspace-registry/pkg/smt"
	"github.com/certen/subspace-registry/pkg/subtree"
)

// Store is the durable backing for one space's tree: every leaf lives
// in db as a 32-byte key -> 32-byte value pair, mirrored into an
// in-memory smt.Tree for fast proving. Writes are serialized across
// process boundaries by a lock file rather than just an in-process
// mutex, since two separate registry daemons could otherwise be
// pointed at the same data directory.
type Store struct {
	mu   sync.RWMutex
	db   dbm.DB
	tree *smt.Tree
	lock lockfile.Lockfile
}

// Open loads every leaf from db into an in-memory tree. lockPath names
// the lock file BeginWrite acquires to enforce single-writer access;
// it does not need to exist yet.
func Open(db dbm.DB, lockPath string) (*Store, error) {
	lock, err := lockfile.New(lockPath)
	if err != nil {
		return nil, fmt.Errorf("store: lockfile %s: %w", lockPath, err)
	}

	tree := smt.New()
	iter, err := db.Iterator(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open iterator: %w", err)
	}
	defer iter.Close()

	for ; iter.Valid(); iter.Next() {
		k, v := iter.Key(), iter.Value()
		if len(k) != 32 || len(v) != 32 {
			continue
		}
		var key, value [32]byte
		copy(key[:], k)
		copy(value[:], v)
		tree.Set(key, value)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("store: iterate leaves: %w", err)
	}

	return &Store{db: db, tree: tree, lock: lock}, nil
}

// Snapshot is a read-only handle on the store's tree. It shares the
// store's in-memory tree rather than copying it: Prove reads the
// entries present when Prove is called, so writes committed after
// BeginRead are visible to a Snapshot taken before them.
type Snapshot struct {
	tree *smt.Tree
}

// BeginRead returns a Snapshot over the store's current state.
func (s *Store) BeginRead() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Snapshot{tree: s.tree}
}

// Prove returns the SubTree proof covering keys, suitable as the
// encoded-subtree half of a pkg/guest input.
func (snap *Snapshot) Prove(keys [][32]byte) *subtree.SubTree {
	return snap.tree.Prove(keys)
}

// WriteTx is an exclusive write handle obtained from BeginWrite.
// Exactly one of Commit or Discard must be called to release the
// underlying lock file.
type WriteTx struct {
	store   *Store
	pending map[[32]byte][32]byte
	done    bool
}

// BeginWrite acquires the store's write lock and returns a WriteTx for
// staging leaf insertions. It fails immediately if another writer (in
// this process or another) already holds the lock.
func (s *Store) BeginWrite() (*WriteTx, error) {
	// TryLock treats a lock file holding this process's own PID as
	// re-acquirable, so an outstanding writer in this process is
	// rejected here first.
	if owner, err := s.lock.GetOwner(); err == nil && owner.Pid == os.Getpid() {
		return nil, fmt.Errorf("store: acquire write lock: %w", lockfile.ErrBusy)
	}
	if err := s.lock.TryLock(); err != nil {
		return nil, fmt.Errorf("store: acquire write lock: %w", err)
	}
	return &WriteTx{store: s, pending: make(map[[32]byte][32]byte)}, nil
}

// Insert stages a leaf write. Staged writes are only visible through
// Prove after Commit.
func (tx *WriteTx) Insert(key, value [32]byte) {
	tx.pending[key] = value
}

// Commit writes every staged leaf to the DB in one batch, applies the
// same writes to the in-memory tree, and releases the write lock. A
// failed batch write and a failed lock release are both possible in
// the same Commit call; they are aggregated with go-multierror rather
// than one silently shadowing the other, the same teardown pattern
// pkg/database/client.go's connection cleanup follows.
func (tx *WriteTx) Commit() error {
	if tx.done {
		return fmt.Errorf("store: write transaction already finished")
	}
	tx.done = true

	var result *multierror.Error

	tx.store.mu.Lock()
	if err := tx.writeBatchLocked(); err != nil {
		result = multierror.Append(result, err)
	} else {
		for key, value := range tx.pending {
			tx.store.tree.Set(key, value)
		}
	}
	tx.store.mu.Unlock()

	if err := tx.store.lock.Unlock(); err != nil {
		result = multierror.Append(result, fmt.Errorf("store: release write lock: %w", err))
	}

	return result.ErrorOrNil()
}

func (tx *WriteTx) writeBatchLocked() error {
	batch := tx.store.db.NewBatch()
	defer batch.Close()

	for key, value := range tx.pending {
		if err := batch.Set(key[:], value[:]); err != nil {
			return fmt.Errorf("store: batch set: %w", err)
		}
	}
	if err := batch.WriteSync(); err != nil {
		return fmt.Errorf("store: batch write: %w", err)
	}
	return nil
}

// Discard abandons every staged write and releases the write lock
// without touching the DB or the in-memory tree.
func (tx *WriteTx) Discard() error {
	if tx.done {
		return fmt.Errorf("store: write transaction already finished")
	}
	tx.done = true
	if err := tx.store.lock.Unlock(); err != nil {
		return fmt.Errorf("store: release write lock: %w", err)
	}
	return nil
}
