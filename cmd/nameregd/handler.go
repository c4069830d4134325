// Copyright 2026 Subspace Registry Project

package main

import (
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/certen/subspace-registry/pkg/guest"
	"github.com/certen/subspace-registry/pkg/hashutil"
	"github.com/certen/subspace-registry/pkg/ledger"
	"github.com/certen/subspace-registry/pkg/metrics"
	"github.com/certen/subspace-registry/pkg/nametx"
	"github.com/certen/subspace-registry/pkg/prover"
	"github.com/certen/subspace-registry/pkg/regbatch"
	"github.com/certen/subspace-registry/pkg/store"
)

// batchServer wires one space's Store to the Prover and, optionally,
// the commitment audit ledger. It exposes a single endpoint: submit a
// batch of already-authorized transactions, prove the transition, and
// - only once the proof succeeds - apply it to the Store.
type batchServer struct {
	space   string
	store   *store.Store
	prover  prover.Prover
	ledger  *ledger.Ledger
	metrics *metrics.Metrics
}

type submitRequest struct {
	Transactions []*nametx.Transaction `json:"transactions"`
}

type submitResponse struct {
	RunID       string `json:"run_id"`
	Space       string `json:"space"`
	InitialRoot string `json:"initial_root"`
	FinalRoot   string `json:"final_root"`
}

// ServeHTTP handles POST /batches: decode the request, prove it, and
// only on success apply the same transactions to the Store.
func (s *batchServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	builder := regbatch.New()
	keys := make([][32]byte, 0, len(req.Transactions))
	for _, tx := range req.Transactions {
		if err := builder.Add(tx, nil); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		keys = append(keys, [32]byte(tx.Key()))
	}

	batchBytes, err := builder.Build(s.space)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	snap := s.store.BeginRead()
	subtreeProof := snap.Prove(keys)
	input := append(subtreeProof.Encode(), batchBytes...)

	proveStart := time.Now()
	journal, err := s.prover.Prove(r.Context(), [][]byte{input})
	if s.metrics != nil {
		s.metrics.ObserveGuestRun(time.Since(proveStart).Seconds(), err)
	}
	if err != nil {
		writeGuestError(w, err)
		return
	}
	c := journal.Commitments[0]

	if err := s.applyToStore(req.Transactions); err != nil {
		log.Printf("proof succeeded but store apply failed, store is now behind the ledger: %v", err)
		http.Error(w, "internal error applying proven batch", http.StatusInternalServerError)
		return
	}

	if s.ledger != nil {
		if err := s.ledger.RecordCommitment(r.Context(), journal.RunID, c); err != nil {
			log.Printf("failed to record commitment in ledger: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, submitResponse{
		RunID:       journal.RunID,
		Space:       hexString(c.Space),
		InitialRoot: hexString(c.InitialRoot),
		FinalRoot:   hexString(c.FinalRoot),
	})
}

func hexString(h hashutil.Hash) string {
	return hex.EncodeToString(h[:])
}

// applyToStore commits every transaction's (key, owner) pair directly:
// the prover has already verified each transition is authorized, so the
// host applies the same writes it asked the guest to verify rather than
// trying to recover them from the guest's opaque commitment.
func (s *batchServer) applyToStore(txs []*nametx.Transaction) error {
	wtx, err := s.store.BeginWrite()
	if err != nil {
		return err
	}
	for _, tx := range txs {
		wtx.Insert([32]byte(tx.Key()), tx.Owner)
	}
	return wtx.Commit()
}

func writeGuestError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	var ge *guest.GuestError
	for e := error(err); e != nil; {
		if g, ok := e.(*guest.GuestError); ok {
			ge = g
			break
		}
		unwrapper, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = unwrapper.Unwrap()
	}
	if ge == nil {
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
