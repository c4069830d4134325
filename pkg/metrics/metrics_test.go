// Copyright 2026 Subspace Registry Project

package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/certen/subspace-registry/pkg/guest"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestNewRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("new: %v", err)
	}
}

func TestObserveGuestRunLabelsErrorsByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	m.ObserveGuestRun(0.001, nil)
	if got := counterValue(t, m.GuestRuns); got != 1 {
		t.Fatalf("expected 1 run recorded, got %v", got)
	}

	ge := &guest.GuestError{Kind: guest.KeyExists, Msg: "boom"}
	m.ObserveGuestRun(0.002, ge)

	got := counterValue(t, m.GuestRunErrors.WithLabelValues("KeyExists"))
	if got != 1 {
		t.Fatalf("expected 1 KeyExists error recorded, got %v", got)
	}
}

func TestObserveGuestRunUnknownKindForPlainErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	m.ObserveGuestRun(0.001, errors.New("not a guest error"))
	if got := counterValue(t, m.GuestRunErrors.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected 1 unknown-kind error recorded, got %v", got)
	}
}

func TestObserveBatchBuildSplitsByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	m.ObserveBatchBuild(0.01, 3, 2)
	if got := counterValue(t, m.BatchTransactions.WithLabelValues("registration")); got != 3 {
		t.Fatalf("expected 3 registrations, got %v", got)
	}
	if got := counterValue(t, m.BatchTransactions.WithLabelValues("update")); got != 2 {
		t.Fatalf("expected 2 updates, got %v", got)
	}
}
