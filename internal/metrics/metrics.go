// Package metrics holds the Prometheus collectors of the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nrs"

// Metrics groups every collector the server updates. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Requests          *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	TokenFailures     *prometheus.CounterVec
	SequenceConflicts prometheus.Counter
}

// New creates the collectors. They still have to be registered, see
// PrometheusCollectors.
func New() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of HTTP requests handled",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time taken to handle HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		TokenFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "token_failures_total",
			Help:      "Number of rejected bearer tokens by reason",
		}, []string{"reason"}),
		SequenceConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "module",
			Name:      "sequence_conflicts_total",
			Help:      "Number of default module name allocations that lost a race for a name",
		}),
	}
}

func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Requests,
		m.RequestDuration,
		m.TokenFailures,
		m.SequenceConflicts,
	}
}

// Register adds the collectors to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.PrometheusCollectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// TokenFailure counts a rejected token.
func (m *Metrics) TokenFailure(reason string) {
	if m == nil {
		return
	}
	m.TokenFailures.WithLabelValues(reason).Inc()
}

// SequenceConflict counts a default name allocation that lost a race.
func (m *Metrics) SequenceConflict() {
	if m == nil {
		return
	}
	m.SequenceConflicts.Inc()
}
