// Package metrics exposes Prometheus counters and histograms for the
// data-entry, apportionment, and committee-session operations, grounded
// on the prometheus/client_golang stack the retrieved buildoor and
// luxfi-consensus repos both depend on. The teacher has no equivalent
// instrumentation layer (its internal/metrics held clustering-quality
// math, not application metrics — see DESIGN.md), so this package is
// built directly from the ecosystem convention rather than adapted from
// a teacher file.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EntryTransitions counts data-entry transitions by resulting status.
	// It is incremented when a first or second entry is claimed and with
	// the outcome of first-entry finalisation (e.g. first_entry_has_errors);
	// other data-entry transitions are not counted.
	EntryTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "abacus",
		Subsystem: "data_entry",
		Name:      "transitions_total",
		Help:      "Number of data entry state transitions, labelled by resulting status.",
	}, []string{"status"})

	// ValidationErrors counts validation.Diagnostic occurrences by rule
	// code, as reported by first-entry finalisation; validation run
	// elsewhere is not counted.
	ValidationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "abacus",
		Subsystem: "validation",
		Name:      "errors_total",
		Help:      "Number of validation errors raised, labelled by rule code.",
	}, []string{"code"})

	// ApportionmentDuration times one Apportion() call; apportionment
	// over large councils loops the residual-seat phase once per seat, so
	// this is the metric to watch for an unexpectedly slow run.
	ApportionmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "abacus",
		Subsystem: "apportionment",
		Name:      "duration_seconds",
		Help:      "Time to compute one seat apportionment.",
		Buckets:   prometheus.DefBuckets,
	})

	// SessionTransitions counts committee-session FSM transitions by the
	// attempted operation and whether it succeeded, so a run of rejected
	// "start" or "finish" attempts shows up as a dashboard anomaly rather
	// than only an apperr.InvalidStateTransition in a log line.
	SessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "abacus",
		Subsystem: "committee_session",
		Name:      "transitions_total",
		Help:      "Number of committee session transitions attempted, labelled by operation and outcome.",
	}, []string{"operation", "outcome"})

	// AuditChainLength is a gauge for the length of the audit log per
	// election. It is registered, but no code in this module sets it, so
	// it reports no series.
	AuditChainLength = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "abacus",
		Subsystem: "audit",
		Name:      "chain_length",
		Help:      "Number of entries in the audit log chain, labelled by election.",
	}, []string{"election"})
)
