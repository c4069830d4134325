// Copyright 2026 Subspace Registry Project
//
// Hashing primitives shared across the registry core.
// Every hash in this protocol is plain SHA-256 with no salt or
// personalization; this package exists so every package names the same
// 32-byte type instead of passing around bare []byte.

package hashutil

import "crypto/sha256"

// Size is the fixed length of every hash in this protocol.
const Size = 32

// Hash is a 32-byte SHA-256 digest.
type Hash [Size]byte

// Sum returns the SHA-256 digest of b.
func Sum(b []byte) Hash {
	return Hash(sha256.Sum256(b))
}

// SumString is a convenience wrapper for hashing names and space names.
func SumString(s string) Hash {
	return Sum([]byte(s))
}

// Concat hashes the concatenation of parts without an intermediate
// allocation for each part - used for internal Merkle node combination
// and default-hash derivation in pkg/smt and pkg/subtree.
func Concat(parts ...[]byte) Hash {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out Hash
	h.Sum(out[:0])
	return out
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Bytes returns a copy of the hash as a byte slice.
func (h Hash) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, h[:])
	return out
}
