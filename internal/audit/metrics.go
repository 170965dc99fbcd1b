package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the audit publisher.
type Metrics struct {
	Enqueued      prometheus.Counter
	Rejected      *prometheus.CounterVec
	Flushed       prometheus.Counter
	FlushFailures prometheus.Counter
	BreakerOpened prometheus.Counter
	QueueDepth    prometheus.Gauge
}

func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Enqueued: f.NewCounter(prometheus.CounterOpts{
			Name: "claimguard_audit_entries_enqueued_total",
			Help: "Audit entries accepted into the publisher queue",
		}),
		Rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "claimguard_audit_entries_rejected_total",
			Help: "Audit entries refused by the publisher, by reason",
		}, []string{"reason"}),
		Flushed: f.NewCounter(prometheus.CounterOpts{
			Name: "claimguard_audit_entries_flushed_total",
			Help: "Audit entries accepted by the store",
		}),
		FlushFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "claimguard_audit_flush_failures_total",
			Help: "Failed store writes; the batch stays queued",
		}),
		BreakerOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "claimguard_audit_breaker_opened_total",
			Help: "Times the store circuit breaker opened",
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "claimguard_audit_queue_depth",
			Help: "Audit entries waiting for the store",
		}),
	}
}

func (m *Metrics) incEnqueued(depth int) {
	if m == nil {
		return
	}
	m.Enqueued.Inc()
	m.QueueDepth.Set(float64(depth))
}

func (m *Metrics) incRejected(reason string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) addFlushed(n, depth int) {
	if m == nil {
		return
	}
	m.Flushed.Add(float64(n))
	m.QueueDepth.Set(float64(depth))
}

func (m *Metrics) incFlushFailure() {
	if m == nil {
		return
	}
	m.FlushFailures.Inc()
}

func (m *Metrics) incBreakerOpened() {
	if m == nil {
		return
	}
	m.BreakerOpened.Inc()
}
