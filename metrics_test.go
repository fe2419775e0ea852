package goduck

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.request(Many, outcomeDone, time.Now())
	m.request(Many, outcomeDone, time.Now())
	m.request(None, outcomeExecutionError, time.Now())
	m.rows(0)
	m.rows(3)
	m.chunk()

	assert.Equal(t, 2.0, metricValue(t, reg, "goduck_requests_total", map[string]string{"cardinality": "many", "outcome": "done"}))
	assert.Equal(t, 1.0, metricValue(t, reg, "goduck_requests_total", map[string]string{"cardinality": "none"}))
	assert.Equal(t, 3.0, metricValue(t, reg, "goduck_request_duration_seconds", nil))
	assert.Equal(t, 3.0, metricValue(t, reg, "goduck_rows_decoded_total", nil))
	assert.Equal(t, 1.0, metricValue(t, reg, "goduck_chunks_fetched_total", nil))

	assert.Panics(t, func() { NewMetrics(reg) }, "collectors register once per registry")
}

func TestMetrics_nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.request(One, outcomeDone, time.Now())
		m.rows(10)
		m.chunk()
	})
}
