package httpclient

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts outgoing requests by method and status. Status "0" means
// no response was received.
type Metrics struct {
	reqTotal   *prometheus.CounterVec
	reqLatency *prometheus.HistogramVec
}

// NewMetrics creates client metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reqTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "asset_client_requests_total",
				Help: "Total requests sent to the asset API",
			},
			[]string{"method", "status"},
		),
		reqLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "asset_client_request_duration_seconds",
				Help:    "Asset API request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
	reg.MustRegister(m.reqTotal, m.reqLatency)
	return m
}

func (m *Metrics) observe(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.reqTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.reqLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}
