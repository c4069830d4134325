// Copyright 2026 Subspace Registry Project
//
// Batch Builder - collects transactions for one space, enforces
// per-batch name uniqueness, signs transfers, sorts canonically and
// emits the wire-format batch. Generalized from the validator
// codebase's per-validator activeBatch accumulation
// (pkg/batch/collector.go) to per-space subspace-name collection.

package regbatch

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"

	"github.com/certen/subspace-registry/pkg/hashutil"
	"github.com/certen/subspace-registry/pkg/nametx"
	"github.com/certen/subspace-registry/pkg/sigsuite"
	"github.com/certen/subspace-registry/pkg/wire"
)

// ErrDuplicateName is returned by Add/Merge when a name is already
// present in the builder.
var ErrDuplicateName = errors.New("regbatch: duplicate name")

// ErrVersionMismatch is returned by Merge when the two builders carry
// different wire versions.
var ErrVersionMismatch = errors.New("regbatch: version mismatch")

// ErrAlreadyBuilt is returned by any operation on a Builder whose Build
// has already run, mirroring the original Rust build(self) consuming
// semantics.
var ErrAlreadyBuilt = errors.New("regbatch: builder already built")

// Signer bundles the data needed to produce a transfer-authorization
// signature: the space the transaction belongs to, and the current
// owner's private key.
type Signer struct {
	Space string
	Key   sigsuite.PrivateKey
}

// Builder accumulates Transactions for a single space.
type Builder struct {
	version uint8
	txs     []*nametx.Transaction
	seen    map[[32]byte]struct{}
	built   bool
}

// New returns an empty Builder at wire version 0.
func New() *Builder {
	return &Builder{
		version: 0,
		seen:    make(map[[32]byte]struct{}),
	}
}

// Version reports the builder's wire version.
func (b *Builder) Version() uint8 {
	return b.version
}

// Len reports how many transactions are currently staged.
func (b *Builder) Len() int {
	return len(b.txs)
}

// Add stages tx, rejecting it with ErrDuplicateName if its name is
// already present. When signer is non-nil, Add computes the 97-byte
// transfer-authorization pre-image and writes 0x00 ‖ sig(64)
// into tx.Witness, overwriting any bytes already there.
func (b *Builder) Add(tx *nametx.Transaction, signer *Signer) error {
	if b.built {
		return ErrAlreadyBuilt
	}

	key := [32]byte(tx.Key())
	if _, dup := b.seen[key]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateName, tx.Name)
	}

	if signer != nil {
		sig, err := signTransfer(b.version, signer.Space, tx, signer.Key)
		if err != nil {
			return err
		}
		tx.Witness = append([]byte{byte(nametx.WitnessSignatureECDSA)}, sig[:]...)
	}

	b.seen[key] = struct{}{}
	b.txs = append(b.txs, tx)
	return nil
}

// signTransfer builds the 97-byte transfer-authorization pre-image
// (version ‖ SHA-256(space) ‖ SHA-256(tx.Name) ‖ tx.Owner) and signs it
// with key.
func signTransfer(version uint8, space string, tx *nametx.Transaction, key sigsuite.PrivateKey) ([64]byte, error) {
	var preimage [97]byte
	preimage[0] = version
	spaceHash := sha256.Sum256([]byte(space))
	copy(preimage[1:33], spaceHash[:])
	nameHash := tx.Key()
	copy(preimage[33:65], nameHash[:])
	copy(preimage[65:97], tx.Owner[:])

	digest := sha256.Sum256(preimage[:])
	return sigsuite.Sign(key, digest)
}

// Merge folds other into b, re-adding every one of its transactions.
// The version must match. On a duplicate-name conflict, b is left in
// whatever partial state the re-adds reached - callers that need
// atomicity should Merge into a fresh Builder.
func (b *Builder) Merge(other *Builder) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	if b.version != other.version {
		return fmt.Errorf("%w: %d != %d", ErrVersionMismatch, b.version, other.version)
	}
	for _, tx := range other.txs {
		if err := b.Add(tx, nil); err != nil {
			return err
		}
	}
	return nil
}

// sortedTxs returns b.txs ordered per the canonical sort:
// non-empty-witness entries first, then empty-witness entries; each
// group ascending by subspace key. The sort is stable so that entries
// that only differ by add-order still compare equal and preserve their
// relative position.
func (b *Builder) sortedTxs() []*nametx.Transaction {
	out := make([]*nametx.Transaction, len(b.txs))
	copy(out, b.txs)
	sort.SliceStable(out, func(i, j int) bool {
		iUpdate := !out[i].IsRegistration()
		jUpdate := !out[j].IsRegistration()
		if iUpdate != jUpdate {
			return iUpdate
		}
		ki, kj := out[i].Key(), out[j].Key()
		return lessHash(ki, kj)
	})
	return out
}

func lessHash(a, b hashutil.Hash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Build emits the wire-format batch for space, sorting
// canonically immediately before serialization. Build consumes the
// builder: subsequent calls to Add, Merge or Build return
// ErrAlreadyBuilt.
func (b *Builder) Build(space string) ([]byte, error) {
	if b.built {
		return nil, ErrAlreadyBuilt
	}
	b.built = true

	spaceHash := sha256.Sum256([]byte(space))

	out := make([]byte, 0, wire.HeaderSize)
	out = append(out, b.version)
	out = append(out, spaceHash[:]...)

	for _, tx := range b.sortedTxs() {
		key := tx.Key()
		length := 64 + len(tx.Witness)
		out = append(out, byte(length), byte(length>>8))
		out = append(out, key[:]...)
		out = append(out, tx.Owner[:]...)
		out = append(out, tx.Witness...)
	}

	return out, nil
}
