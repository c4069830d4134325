// Copyright 2026 Subspace Registry Project
//
// Proving-Framework Boundary - the opaque external collaborator that
// consumes serialized guest inputs and emits a sealed journal. The
// real subspacer this protocol is modeled on runs its guest under risc0_zkvm
// (original_source/methods/guest/src/main.rs); this repo does not ship
// that proving backend (see DESIGN.md) and instead exposes the
// Prover interface plus LocalProver, an in-process stand-in that runs
// pkg/guest directly and wraps its output in a Journal with no receipt.

package prover

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/certen/subspace-registry/pkg/commitment"
	"github.com/certen/subspace-registry/pkg/guest"
)

// Journal is the sealed output of a proving run: the public commitments
// the guest produced, plus an opaque proof receipt. A real zkVM backend
// would populate Receipt with its proof bytes; LocalProver leaves it
// empty.
type Journal struct {
	RunID       string
	Commitments []commitment.Commitment
	Receipt     []byte
}

// Prover seals a set of guest inputs into a Journal.
type Prover interface {
	Prove(ctx context.Context, inputs [][]byte) (*Journal, error)
}

// LocalProver runs the guest's state-transition function in-process and
// wraps the result in a Journal with an empty Receipt. It is not a
// substitute for a real proof: nothing attests that the commitments it
// reports actually came from a faithful guest execution, which is the
// entire point a real zkVM receipt would provide. Suitable for
// integration tests and the demonstration binary only.
type LocalProver struct{}

// NewLocalProver returns a ready-to-use LocalProver.
func NewLocalProver() *LocalProver {
	return &LocalProver{}
}

// Prove runs guest.Run(inputs) and reports its commitments under a
// freshly generated run ID.
func (p *LocalProver) Prove(ctx context.Context, inputs [][]byte) (*Journal, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	commitments, err := guest.Run(inputs)
	if err != nil {
		return nil, fmt.Errorf("prover: guest run failed: %w", err)
	}

	return &Journal{
		RunID:       uuid.NewString(),
		Commitments: commitments,
		Receipt:     nil,
	}, nil
}
