// Copyright 2026 Subspace Registry Project
//
// Commitment - the public journal record {space, initial_root,
// final_root} a guest run produces.

package commitment

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/certen/subspace-registry/pkg/hashutil"
)

// Size is the fixed byte length of a Commitment's binary encoding:
// three concatenated 32-byte hashes.
const Size = 32 * 3

// Commitment is the public journal triple a guest run proves: the
// space identifier and the Merkle root before and after its batch was
// applied. Space equals SHA-256(space_name) by construction throughout
// this package's callers - the guest copies it straight from the
// batch's own header (wire.Reader.SpaceHash), which pkg/regbatch.
// Builder.Build computed the same way - so Space and the batch's own
// header hash never diverge, without a separate runtime check here.
type Commitment struct {
	Space       hashutil.Hash
	InitialRoot hashutil.Hash
	FinalRoot   hashutil.Hash
}

// Encode serializes c as Space ‖ InitialRoot ‖ FinalRoot, 96 bytes.
func (c Commitment) Encode() []byte {
	out := make([]byte, 0, Size)
	out = append(out, c.Space[:]...)
	out = append(out, c.InitialRoot[:]...)
	out = append(out, c.FinalRoot[:]...)
	return out
}

// Decode parses the Size-byte fixed encoding Encode produces.
func Decode(b []byte) (Commitment, error) {
	if len(b) != Size {
		return Commitment{}, fmt.Errorf("commitment: expected %d bytes, got %d", Size, len(b))
	}
	var c Commitment
	copy(c.Space[:], b[0:32])
	copy(c.InitialRoot[:], b[32:64])
	copy(c.FinalRoot[:], b[64:96])
	return c, nil
}

type jsonCommitment struct {
	Space       string `json:"space"`
	InitialRoot string `json:"initial_root"`
	FinalRoot   string `json:"final_root"`
}

// MarshalJSON encodes each field as hex.
func (c Commitment) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonCommitment{
		Space:       hex.EncodeToString(c.Space[:]),
		InitialRoot: hex.EncodeToString(c.InitialRoot[:]),
		FinalRoot:   hex.EncodeToString(c.FinalRoot[:]),
	})
}

// UnmarshalJSON decodes the hex fields MarshalJSON writes.
func (c *Commitment) UnmarshalJSON(data []byte) error {
	var jc jsonCommitment
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}
	fields := []struct {
		name string
		hex  string
		out  *hashutil.Hash
	}{
		{"space", jc.Space, &c.Space},
		{"initial_root", jc.InitialRoot, &c.InitialRoot},
		{"final_root", jc.FinalRoot, &c.FinalRoot},
	}
	for _, f := range fields {
		b, err := hex.DecodeString(f.hex)
		if err != nil {
			return fmt.Errorf("commitment: invalid %s hex: %w", f.name, err)
		}
		if len(b) != hashutil.Size {
			return fmt.Errorf("commitment: %s must be %d bytes, got %d", f.name, hashutil.Size, len(b))
		}
		copy(f.out[:], b)
	}
	return nil
}