// Copyright 2026 Subspace Registry Project
//
// Staging - a human-editable JSON format, one Builder per space,
// mirroring the format the original subspacer registry tool persists
// as uncommitted.json (original_source/registry/src/main.rs,
// load_builders/save_builders), without resurrecting the CLI or its
// working-directory layout.

package regbatch

import (
	"encoding/json"
	"fmt"

	"github.com/certen/subspace-registry/pkg/nametx"
)

// jsonBuilder mirrors the staging Builder shape: a version and its
// ordered transaction list.
type jsonBuilder struct {
	Version      uint8                `json:"version"`
	Transactions []*nametx.Transaction `json:"transactions"`
}

// MarshalJSON implements the staging encoding for one Builder.
func (b *Builder) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonBuilder{
		Version:      b.version,
		Transactions: b.txs,
	})
}

// UnmarshalJSON implements the staging decoding for one Builder,
// rejecting duplicate names within it.
func (b *Builder) UnmarshalJSON(data []byte) error {
	var jb jsonBuilder
	if err := json.Unmarshal(data, &jb); err != nil {
		return err
	}

	b.version = jb.Version
	b.seen = make(map[[32]byte]struct{})
	b.txs = nil
	b.built = false

	for _, tx := range jb.Transactions {
		key := [32]byte(tx.Key())
		if _, dup := b.seen[key]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateName, tx.Name)
		}
		b.seen[key] = struct{}{}
		b.txs = append(b.txs, tx)
	}
	return nil
}

// LoadStaging parses the staging document: a mapping from space name to
// its Builder.
func LoadStaging(data []byte) (map[string]*Builder, error) {
	var raw map[string]*Builder
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("regbatch: parse staging: %w", err)
	}
	return raw, nil
}

// SaveStaging serializes builders into the staging document.
func SaveStaging(builders map[string]*Builder) ([]byte, error) {
	out, err := json.MarshalIndent(builders, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("regbatch: marshal staging: %w", err)
	}
	return out, nil
}
