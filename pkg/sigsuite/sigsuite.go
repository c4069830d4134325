// Copyright 2026 Subspace Registry Project
//
// Signature Suite - ECDSA over secp256k1 with SHA-256 prehash.
// Owners are encoded as the 32-byte x-coordinate of a compressed SEC1
// public key whose y is even (tag 0x02); signatures are the fixed
// 64-byte r||s form. Built on the validator codebase's own secp256k1
// dependency (go-ethereum/crypto), generalized here from Ethereum
// address derivation to the registry's owner/signature encoding.

package sigsuite

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// CompressedTag is the SEC1 compression tag this protocol assumes: only
// public keys with an even y-coordinate (tag 0x02) are representable as a
// 32-byte Owner.
const CompressedTag = 0x02

// ErrOddYOwner is returned when a public key's compressed form does not
// start with CompressedTag - its y-coordinate is odd and so it cannot be
// represented as a 32-byte Owner under this protocol.
var ErrOddYOwner = errors.New("sigsuite: public key has odd y, not representable as a 32-byte owner")

// PrivateKey wraps a secp256k1 signing key.
type PrivateKey struct {
	key *ecdsa.PrivateKey
}

// GenerateKey produces a new random secp256k1 key pair.
func GenerateKey() (PrivateKey, error) {
	key, err := gethcrypto.GenerateKey()
	if err != nil {
		return PrivateKey{}, fmt.Errorf("sigsuite: generate key: %w", err)
	}
	return PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes parses a 32-byte big-endian secp256k1 scalar.
func PrivateKeyFromBytes(b []byte) (PrivateKey, error) {
	key, err := gethcrypto.ToECDSA(b)
	if err != nil {
		return PrivateKey{}, fmt.Errorf("sigsuite: parse private key: %w", err)
	}
	return PrivateKey{key: key}, nil
}

// Bytes returns the raw 32-byte big-endian scalar.
func (p PrivateKey) Bytes() []byte {
	return gethcrypto.FromECDSA(p.key)
}

// Owner returns the 32-byte x-only Owner encoding of this key's public
// key. It fails with ErrOddYOwner if the key's y-coordinate is odd.
func (p PrivateKey) Owner() ([32]byte, error) {
	return compressedToOwner(gethcrypto.CompressPubkey(&p.key.PublicKey))
}

// Sign produces the fixed 64-byte r||s ECDSA signature over digest. The
// underlying secp256k1 implementation already returns canonical low-S
// signatures with deterministic (RFC 6979) nonces.
func Sign(key PrivateKey, digest [32]byte) ([64]byte, error) {
	var out [64]byte
	sig, err := gethcrypto.Sign(digest[:], key.key)
	if err != nil {
		return out, fmt.Errorf("sigsuite: sign: %w", err)
	}
	// gethcrypto.Sign returns a 65-byte recoverable signature (r||s||v);
	// the wire format only ever carries r||s.
	if len(sig) != 65 {
		return out, fmt.Errorf("sigsuite: unexpected signature length %d", len(sig))
	}
	copy(out[:], sig[:64])
	return out, nil
}

// ParsePublicKey reconstructs the canonical 33-byte compressed SEC1 public
// key by re-prepending CompressedTag to ownerX, then parses it
// as a secp256k1 point. Callers that need to distinguish "not a valid
// point" from "signature did not verify" (pkg/guest does) should
// call this before VerifyWithKey.
func ParsePublicKey(ownerX [32]byte) (*ecdsa.PublicKey, error) {
	compressed := ownerToCompressed(ownerX)
	pubKey, err := gethcrypto.DecompressPubkey(compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPublicKey, err)
	}
	return pubKey, nil
}

// VerifyWithKey checks that sig is a valid ECDSA signature over digest by
// pub, an already-parsed public key (see ParsePublicKey).
func VerifyWithKey(pub *ecdsa.PublicKey, digest [32]byte, sig [64]byte) bool {
	pubBytes := gethcrypto.CompressPubkey(pub)
	return gethcrypto.VerifySignature(pubBytes, digest[:], sig[:])
}

// Verify checks that sig is a valid ECDSA signature over digest by the
// owner whose x-only encoding is ownerX, re-prepending the compression
// tag to recover the canonical 33-byte public key.
func Verify(ownerX [32]byte, digest [32]byte, sig [64]byte) (bool, error) {
	pub, err := ParsePublicKey(ownerX)
	if err != nil {
		return false, err
	}
	return VerifyWithKey(pub, digest, sig), nil
}

// ErrBadPublicKey is returned when the reconstructed compressed public
// key does not correspond to a valid secp256k1 point.
var ErrBadPublicKey = errors.New("sigsuite: not a valid secp256k1 public key")

func ownerToCompressed(ownerX [32]byte) []byte {
	out := make([]byte, 33)
	out[0] = CompressedTag
	copy(out[1:], ownerX[:])
	return out
}

func compressedToOwner(compressed []byte) ([32]byte, error) {
	var owner [32]byte
	if len(compressed) != 33 {
		return owner, fmt.Errorf("sigsuite: expected 33-byte compressed key, got %d", len(compressed))
	}
	if compressed[0] != CompressedTag {
		return owner, ErrOddYOwner
	}
	copy(owner[:], compressed[1:])
	return owner, nil
}
