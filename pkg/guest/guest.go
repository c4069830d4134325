// Copyright 2026 Subspace Registry Project
//
// Guest Verifier - the zero-knowledge guest's pure state-transition
// function: (subtree, batch) -> (new_root, commitment). Grounded on
// original_source/program/src/guest.rs's run/handle_tx_set/
// handle_transition, reshaped into Go's explicit-error-return idiom in
// place of Rust's Result<_, GuestError>.

package guest

import (
	"crypto/sha256"
	"fmt"

	"github.com/certen/subspace-registry/pkg/commitment"
	"github.com/certen/subspace-registry/pkg/sigsuite"
	"github.com/certen/subspace-registry/pkg/subtree"
	"github.com/certen/subspace-registry/pkg/wire"
)

// GuestErrorKind enumerates the seven fatal-per-batch error kinds a
// guest run can produce. Carried in a *GuestError rather than bare
// sentinel values so pkg/metrics can label a run's failure by kind
// without string matching; callers unwrap to *GuestError (errors.As)
// and compare its Kind.
type GuestErrorKind int

const (
	ExpectedPublicKey GuestErrorKind = iota
	UnalignedSubTree
	InvalidSignature
	UnsupportedWitness
	WitnessRequired
	KeyExists
	IncompleteSubTree
)

func (k GuestErrorKind) String() string {
	switch k {
	case ExpectedPublicKey:
		return "ExpectedPublicKey"
	case UnalignedSubTree:
		return "UnalignedSubTree"
	case InvalidSignature:
		return "InvalidSignature"
	case UnsupportedWitness:
		return "UnsupportedWitness"
	case WitnessRequired:
		return "WitnessRequired"
	case KeyExists:
		return "KeyExists"
	case IncompleteSubTree:
		return "IncompleteSubTree"
	default:
		return "Unknown"
	}
}

// GuestError is fatal for the batch it occurred in; a successful Run
// is itself the evidence that none occurred.
type GuestError struct {
	Kind GuestErrorKind
	Msg  string
}

func (e *GuestError) Error() string {
	return fmt.Sprintf("guest: %s: %s", e.Kind, e.Msg)
}

func newErr(kind GuestErrorKind, format string, args ...interface{}) *GuestError {
	return &GuestError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Run processes each input in order, producing one Commitment per
// input. Each input is encoded_subtree ‖ wire_batch; subtree.Decode
// reports how many bytes it consumed so the batch can be sliced
// starting at that offset.
func Run(inputs [][]byte) ([]commitment.Commitment, error) {
	out := make([]commitment.Commitment, 0, len(inputs))
	for i, in := range inputs {
		c, err := runOne(in)
		if err != nil {
			return nil, fmt.Errorf("guest: input %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func runOne(input []byte) (commitment.Commitment, error) {
	st, consumed, err := subtree.Decode(input)
	if err != nil {
		return commitment.Commitment{}, fmt.Errorf("decode subtree: %w", err)
	}
	initialRoot := st.Root()

	batch := input[consumed:]
	r := wire.NewReader(batch)
	version := r.Version() // currently unchecked; reserved for future wire revisions
	space := r.SpaceHash()

	if err := applyBatch(st, r.Iter(), version, space); err != nil {
		return commitment.Commitment{}, err
	}

	finalRoot := st.Root()
	return commitment.Commitment{
		Space:       space,
		InitialRoot: initialRoot,
		FinalRoot:   finalRoot,
	}, nil
}

// applyBatch zips the subtree's present leaves against the batch's
// entries in sorted-key lockstep, applying handleTransition to each
// pair; any batch entries left over once one side runs dry are
// registrations, inserted into the subtree.
func applyBatch(st *subtree.SubTree, it *wire.BodyIterator, version uint8, space [32]byte) error {
	leafIt := st.IterMut()

	leafKey, leafValue, leafOK := leafIt.Next()
	entry, entryOK := it.Next()

	for leafOK && entryOK {
		if err := handleTransition(version, space, leafKey, leafValue, entry); err != nil {
			return err
		}
		leafKey, leafValue, leafOK = leafIt.Next()
		entry, entryOK = it.Next()
	}

	for entryOK {
		if err := st.Insert(entry.SubspaceHash, entry.Owner); err != nil {
			return mapInsertErr(err)
		}
		entry, entryOK = it.Next()
	}

	return nil
}

func mapInsertErr(err error) error {
	switch err {
	case subtree.ErrKeyExists:
		return newErr(KeyExists, "key already present in subtree")
	case subtree.ErrIncompleteProof:
		return newErr(IncompleteSubTree, "subtree proof does not cover inserted key")
	default:
		return err
	}
}

// handleTransition converts an existing leaf from its current owner to
// tx.Owner, verifying the current owner's signature over the 97-byte
// transfer-authorization pre-image pkg/regbatch.Builder.Add signs.
// Preconditions are checked in a fixed order so the error kind reported
// for a malformed transition is deterministic.
func handleTransition(version uint8, space [32]byte, leafKey [32]byte, leafValue *[32]byte, tx wire.Entry) error {
	if leafKey != tx.SubspaceHash {
		return newErr(UnalignedSubTree, "subtree leaf key %x does not match next update %x", leafKey, tx.SubspaceHash)
	}

	// leafValue is always exactly 32 bytes by Go's type system
	// ([32]byte); a size check on it can only meaningfully fail here at
	// the point ParsePublicKey rejects it as not a valid compressed point.

	if len(tx.Witness) == 0 {
		return newErr(WitnessRequired, "existing leaf %x updated with an empty witness", leafKey)
	}
	if tx.Witness[0] != 0x00 {
		return newErr(UnsupportedWitness, "witness tag %#x not supported", tx.Witness[0])
	}

	pub, err := sigsuite.ParsePublicKey(*leafValue)
	if err != nil {
		return newErr(ExpectedPublicKey, "leaf value is not a valid compressed secp256k1 point: %v", err)
	}

	if len(tx.Witness) != 65 {
		return newErr(InvalidSignature, "witness length %d, want 65", len(tx.Witness))
	}
	var sig [64]byte
	copy(sig[:], tx.Witness[1:])

	digest := transferDigest(version, space, leafKey, tx.Owner)
	if !sigsuite.VerifyWithKey(pub, digest, sig) {
		return newErr(InvalidSignature, "signature did not verify")
	}

	*leafValue = tx.Owner
	return nil
}

// transferDigest computes SHA-256 of the 97-byte transfer-authorization
// pre-image: version(1) ‖ space(32) ‖ leafKey(32) ‖ newOwner(32).
func transferDigest(version uint8, space, leafKey, newOwner [32]byte) [32]byte {
	var preimage [97]byte
	preimage[0] = version
	copy(preimage[1:33], space[:])
	copy(preimage[33:65], leafKey[:])
	copy(preimage[65:97], newOwner[:])
	return sha256.Sum256(preimage[:])
}
