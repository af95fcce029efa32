package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	m := New()
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, m.Register(reg))

	assert.Error(t, m.Register(reg), "registering twice must fail")
}

func TestCounters(t *testing.T) {
	m := New()

	m.TokenFailure("expired")
	m.TokenFailure("expired")
	m.SequenceConflict()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TokenFailures.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SequenceConflicts))
}

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TokenFailure("malformed")
		m.SequenceConflict()
	})
}
