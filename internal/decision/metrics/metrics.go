package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the rule engine.
type Metrics struct {
	// Evidence gathering latencies by source
	EvidenceLatency *prometheus.HistogramVec

	// Degraded signals by name
	DegradedSignals *prometheus.CounterVec

	// Verdicts produced
	Verdicts *prometheus.CounterVec

	// Per-rule outcomes
	CheckOutcomes *prometheus.CounterVec

	RulePanics *prometheus.CounterVec

	EvaluateLatency prometheus.Histogram
}

// New creates a Metrics instance registered on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on reg. Tests pass a fresh registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EvidenceLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "claimguard_decision_evidence_duration_seconds",
			Help:    "Duration of evidence lookups by source",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source"}), // source: "policy", "vision"

		DegradedSignals: f.NewCounterVec(prometheus.CounterOpts{
			Name: "claimguard_decision_degraded_signals_total",
			Help: "Evidence lookups that degraded, by signal",
		}, []string{"signal"}),

		Verdicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "claimguard_decision_verdicts_total",
			Help: "Reports produced by verdict",
		}, []string{"verdict"}),

		CheckOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "claimguard_decision_check_outcomes_total",
			Help: "Rule check outcomes by rule and outcome",
		}, []string{"rule", "outcome"}),

		RulePanics: f.NewCounterVec(prometheus.CounterOpts{
			Name: "claimguard_decision_rule_panics_total",
			Help: "Rules that panicked and were recorded as warnings",
		}, []string{"rule"}),

		EvaluateLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "claimguard_decision_evaluate_duration_seconds",
			Help:    "Duration of a full rule pass",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
	}
}

// ObserveEvidenceLatency records the duration of fetching evidence from a source.
func (m *Metrics) ObserveEvidenceLatency(source string, d time.Duration) {
	if m != nil {
		m.EvidenceLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementDegraded(signal string) {
	if m != nil {
		m.DegradedSignals.WithLabelValues(signal).Inc()
	}
}

func (m *Metrics) IncrementVerdict(verdict string) {
	if m != nil {
		m.Verdicts.WithLabelValues(verdict).Inc()
	}
}

func (m *Metrics) IncrementCheckOutcome(rule, outcome string) {
	if m != nil {
		m.CheckOutcomes.WithLabelValues(rule, outcome).Inc()
	}
}

func (m *Metrics) IncrementRulePanic(rule string) {
	if m != nil {
		m.RulePanics.WithLabelValues(rule).Inc()
	}
}

// ObserveEvaluateLatency records the total evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
