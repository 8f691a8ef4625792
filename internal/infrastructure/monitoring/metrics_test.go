package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveExchange(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveExchange("text", OutcomeSuccess, 120*time.Millisecond)
	m.ObserveExchange("text", OutcomeFailure, 40*time.Millisecond)
	m.ObserveExchange("file", OutcomeSuccess, 2*time.Second)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ExchangesTotal.WithLabelValues("text", OutcomeSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ExchangesTotal.WithLabelValues("text", OutcomeFailure)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ExchangesTotal.WithLabelValues("file", OutcomeSuccess)))
}

func TestSessionGauge(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SessionsActive.Set(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.SessionsActive))
}
