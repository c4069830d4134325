// Copyright 2026 Subspace Registry Project
//
// Transaction Model - in-memory record of one subspace change
// A transaction either registers a previously-absent name (empty witness)
// or updates (transfers/renews) an existing one, authorized by a witness.

package nametx

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/certen/subspace-registry/pkg/hashutil"
)

// WitnessTag identifies the shape of the authorization bytes carried in a
// Transaction's Witness field. Modeled as a tagged sum so future witness
// kinds can be added without reshaping the wire format.
type WitnessTag byte

const (
	// WitnessSignatureECDSA tags a 64-byte r||s ECDSA signature.
	WitnessSignatureECDSA WitnessTag = 0x00
)

// SignatureWitnessSize is the total byte length of a WitnessSignatureECDSA
// witness: 1 tag byte followed by a 64-byte fixed-size signature.
const SignatureWitnessSize = 1 + 64

// Transaction is one subspace change: register a previously-absent name, or
// transfer/renew an existing one.
type Transaction struct {
	Name    string
	Owner   [32]byte
	Witness []byte

	// key is the cached subspace key SHA-256(Name). It is an
	// implementation convenience and is never serialized.
	key hashutil.Hash
}

// New constructs a registration Transaction: witness starts empty.
func New(name string, owner [32]byte) *Transaction {
	return &Transaction{
		Name:  name,
		Owner: owner,
		key:   hashutil.SumString(name),
	}
}

// Key returns the cached subspace key SHA-256(Name), computing it lazily if
// the Transaction was built by hand (e.g. via JSON decode) rather than New.
func (t *Transaction) Key() hashutil.Hash {
	if t.key.IsZero() && t.Name != "" {
		t.key = hashutil.SumString(t.Name)
	}
	return t.key
}

// IsRegistration reports whether this transaction registers a previously
// absent name (no witness) as opposed to updating an existing one.
func (t *Transaction) IsRegistration() bool {
	return len(t.Witness) == 0
}

// Signature returns the 64-byte ECDSA signature carried in the witness, if
// the witness is present and tagged WitnessSignatureECDSA.
func (t *Transaction) Signature() (sig [64]byte, ok bool) {
	if len(t.Witness) != SignatureWitnessSize {
		return sig, false
	}
	if WitnessTag(t.Witness[0]) != WitnessSignatureECDSA {
		return sig, false
	}
	copy(sig[:], t.Witness[1:])
	return sig, true
}

// jsonTransaction mirrors the staging format: name as a string, owner
// as hex, witness as base64 and omitted entirely when empty.
type jsonTransaction struct {
	Name    string `json:"name"`
	Owner   string `json:"owner"`
	Witness string `json:"witness,omitempty"`
}

// MarshalJSON implements the staging encoding.
func (t Transaction) MarshalJSON() ([]byte, error) {
	jt := jsonTransaction{
		Name:  t.Name,
		Owner: hex.EncodeToString(t.Owner[:]),
	}
	if len(t.Witness) > 0 {
		jt.Witness = base64.StdEncoding.EncodeToString(t.Witness)
	}
	return json.Marshal(jt)
}

// UnmarshalJSON implements the staging decoding.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var jt jsonTransaction
	if err := json.Unmarshal(data, &jt); err != nil {
		return err
	}

	ownerBytes, err := hex.DecodeString(jt.Owner)
	if err != nil {
		return fmt.Errorf("nametx: invalid owner hex: %w", err)
	}
	if len(ownerBytes) != 32 {
		return fmt.Errorf("nametx: owner must be 32 bytes, got %d", len(ownerBytes))
	}

	var witness []byte
	if jt.Witness != "" {
		witness, err = base64.StdEncoding.DecodeString(jt.Witness)
		if err != nil {
			return fmt.Errorf("nametx: invalid witness base64: %w", err)
		}
	}

	t.Name = jt.Name
	copy(t.Owner[:], ownerBytes)
	t.Witness = witness
	t.key = hashutil.SumString(jt.Name)
	return nil
}
