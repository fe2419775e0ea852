package goduck

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes as recorded in goduck_requests_total.
const (
	outcomeDone           = "done"
	outcomePrepareError   = "prepare_error"
	outcomeExecutionError = "execution_error"
	outcomeDecodeError    = "decode_error"
	outcomeCanceled       = "canceled"
)

// Metrics are the bridge's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	// RequestsTotal counts finished requests by cardinality and outcome.
	RequestsTotal *prometheus.CounterVec
	// RowsDecoded counts rows sent to consumers.
	RowsDecoded prometheus.Counter
	// ChunksFetched counts chunks pulled from results.
	ChunksFetched prometheus.Counter
	// RequestDuration is the time from submission to the last message.
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goduck_requests_total",
				Help: "Total number of executed requests",
			},
			[]string{"cardinality", "outcome"},
		),
		RowsDecoded: f.NewCounter(prometheus.CounterOpts{
			Name: "goduck_rows_decoded_total",
			Help: "Total number of decoded rows",
		}),
		ChunksFetched: f.NewCounter(prometheus.CounterOpts{
			Name: "goduck_chunks_fetched_total",
			Help: "Total number of fetched data chunks",
		}),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "goduck_request_duration_seconds",
				Help:    "Request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"cardinality"},
		),
	}
}

func (m *Metrics) request(c Cardinality, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(c.String(), outcome).Inc()
	m.RequestDuration.WithLabelValues(c.String()).Observe(time.Since(start).Seconds())
}

func (m *Metrics) rows(n int) {
	if m == nil || n == 0 {
		return
	}
	m.RowsDecoded.Add(float64(n))
}

func (m *Metrics) chunk() {
	if m == nil {
		return
	}
	m.ChunksFetched.Inc()
}
