// Copyright 2026 Subspace Registry Project
//
// Metrics - Prometheus instrumentation for guest runs and batch
// building. Grounded on luxfi-consensus/metrics/metrics.go's
// Registry-holding wrapper type, expanded with the concrete counters
// and histogram this registry's core actually emits.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/certen/subspace-registry/pkg/guest"
)

// Metrics holds every collector this registry emits and the
// prometheus.Registerer they were registered against.
type Metrics struct {
	Registry prometheus.Registerer

	GuestRuns          prometheus.Counter
	GuestRunErrors     *prometheus.CounterVec
	GuestRunDuration   prometheus.Histogram
	BatchTransactions  *prometheus.CounterVec
	BatchBuildDuration prometheus.Histogram
}

// New constructs and registers every collector against reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Registry: reg,
		GuestRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "subspace_registry",
			Subsystem: "guest",
			Name:      "runs_total",
			Help:      "Total number of guest.Run invocations, regardless of outcome.",
		}),
		GuestRunErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subspace_registry",
			Subsystem: "guest",
			Name:      "run_errors_total",
			Help:      "Guest run failures, labeled by GuestErrorKind.",
		}, []string{"kind"}),
		GuestRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "subspace_registry",
			Subsystem: "guest",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of guest.Run calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		BatchTransactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subspace_registry",
			Subsystem: "regbatch",
			Name:      "transactions_total",
			Help:      "Transactions staged into a batch, labeled by kind (registration or update).",
		}, []string{"kind"}),
		BatchBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "subspace_registry",
			Subsystem: "regbatch",
			Name:      "build_duration_seconds",
			Help:      "Wall-clock duration of Builder.Build calls.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	collectors := []prometheus.Collector{
		m.GuestRuns,
		m.GuestRunErrors,
		m.GuestRunDuration,
		m.BatchTransactions,
		m.BatchBuildDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveGuestRun records the outcome of one guest.Run call.
func (m *Metrics) ObserveGuestRun(durationSeconds float64, err error) {
	m.GuestRuns.Inc()
	m.GuestRunDuration.Observe(durationSeconds)
	if err == nil {
		return
	}

	kind := "unknown"
	for e := err; e != nil; {
		if ge, ok := e.(*guest.GuestError); ok {
			kind = ge.Kind.String()
			break
		}
		unwrapper, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = unwrapper.Unwrap()
	}
	m.GuestRunErrors.WithLabelValues(kind).Inc()
}

// ObserveBatchBuild records one Builder.Build call and the transactions
// it contained, split by registration vs. update.
func (m *Metrics) ObserveBatchBuild(durationSeconds float64, registrations, updates int) {
	m.BatchBuildDuration.Observe(durationSeconds)
	m.BatchTransactions.WithLabelValues("registration").Add(float64(registrations))
	m.BatchTransactions.WithLabelValues("update").Add(float64(updates))
}
