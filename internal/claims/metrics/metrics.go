package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the claim lifecycle.
// Tracks intake, transitions, overrides, store conflicts and critical path durations.
type Metrics struct {
	ClaimsSubmitted    prometheus.Counter
	Transitions        *prometheus.CounterVec
	Overrides          *prometheus.CounterVec
	ConflictRetries    prometheus.Counter
	AuditForwardErrors prometheus.Counter
	EvaluateDuration   prometheus.Histogram
	BatchDuration      prometheus.Histogram
}

// New creates a Metrics instance registered on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the lifecycle metrics on reg.
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ClaimsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "claimguard_claims_submitted_total",
			Help: "Total number of claims accepted at intake",
		}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "claimguard_claim_transitions_total",
			Help: "Committed lifecycle transitions by action and resulting state",
		}, []string{"action", "state"}),
		Overrides: f.NewCounterVec(prometheus.CounterOpts{
			Name: "claimguard_claim_overrides_total",
			Help: "Manual overrides by action and actor role",
		}, []string{"action", "role"}),
		ConflictRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "claimguard_claim_conflict_retries_total",
			Help: "Store updates retried after a version conflict",
		}),
		AuditForwardErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "claimguard_claim_audit_forward_errors_total",
			Help: "Audit entries the sink refused at hand-off",
		}),
		EvaluateDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "claimguard_claim_evaluate_duration_seconds",
			Help:    "Duration of Evaluate including evidence gathering and persistence",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		BatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "claimguard_claim_batch_duration_seconds",
			Help:    "Duration of batch evaluations",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
		}),
	}
}

func (m *Metrics) IncrementSubmitted() {
	if m != nil {
		m.ClaimsSubmitted.Inc()
	}
}

func (m *Metrics) IncrementTransition(action, state string) {
	if m != nil {
		m.Transitions.WithLabelValues(action, state).Inc()
	}
}

func (m *Metrics) IncrementOverride(action, role string) {
	if m != nil {
		m.Overrides.WithLabelValues(action, role).Inc()
	}
}

func (m *Metrics) IncrementConflictRetry() {
	if m != nil {
		m.ConflictRetries.Inc()
	}
}

func (m *Metrics) IncrementAuditForwardError() {
	if m != nil {
		m.AuditForwardErrors.Inc()
	}
}

// ObserveEvaluate records an Evaluate duration. Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveEvaluate(start time.Time) {
	if m != nil {
		m.EvaluateDuration.Observe(time.Since(start).Seconds())
	}
}

// ObserveBatch records a BatchEvaluate duration. Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveBatch(start time.Time) {
	if m != nil {
		m.BatchDuration.Observe(time.Since(start).Seconds())
	}
}
