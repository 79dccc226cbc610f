package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	assert.NoError(t, m.Track("conversation_bulk_action").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("conversation_bulk_action").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("conversation_bulk_action", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("conversation_bulk_action", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("conversation_bulk_action")))
}

func TestAddAffectedIgnoresNonPositive(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.AddAffected("close", 3)
	m.AddAffected("close", 0)
	m.AddAffected("close", -1)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.affected.WithLabelValues("close")))
}

func TestNilMetricsTrackerPassesErrorThrough(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("x").End(boom), boom)
	m.AddAffected("close", 1)
}
