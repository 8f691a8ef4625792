// Package monitoring provides Prometheus metrics for the exchange lifecycle.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Exchange outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Exchange metrics
	ExchangesTotal   *prometheus.CounterVec
	ExchangeDuration *prometheus.HistogramVec

	// Session metrics
	SessionsActive prometheus.Gauge
	MessagesTotal  *prometheus.CounterVec
}

// NewMetrics creates a metrics collector registered on reg. Pass a fresh
// prometheus.NewRegistry in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ExchangesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arminapp_exchanges_total",
				Help: "Total number of message exchanges by request kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		ExchangeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arminapp_exchange_duration_seconds",
				Help:    "Message exchange duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"kind"},
		),
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "arminapp_sessions_active",
				Help: "Number of chat sessions in the registry",
			},
		),
		MessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arminapp_messages_total",
				Help: "Total number of messages appended by role",
			},
			[]string{"role"},
		),
	}
}

// ObserveExchange records one completed exchange.
func (m *Metrics) ObserveExchange(kind, outcome string, duration time.Duration) {
	m.ExchangesTotal.WithLabelValues(kind, outcome).Inc()
	m.ExchangeDuration.WithLabelValues(kind).Observe(duration.Seconds())
}
