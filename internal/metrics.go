package internal

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"asset-tracker/pkg/importer"
)

const metricsNamespace = "asset_api"

// Metrics provides Prometheus metrics collection for HTTP requests and imports
type Metrics struct {
	reqTotal   *prometheus.CounterVec
	reqLatency *prometheus.HistogramVec
	importRows *prometheus.CounterVec
	registry   *prometheus.Registry
}

// NewMetrics creates a new Metrics instance with a private Prometheus registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	reqTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	reqLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	importRows := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "import_rows_total",
			Help:      "Spreadsheet rows processed by outcome",
		},
		[]string{"result"},
	)

	registry.MustRegister(reqTotal, reqLatency, importRows)

	return &Metrics{
		reqTotal:   reqTotal,
		reqLatency: reqLatency,
		importRows: importRows,
		registry:   registry,
	}
}

// Middleware returns a Chi middleware that collects metrics
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

			next.ServeHTTP(rw, r)

			path := routePattern(r)
			status := strconv.Itoa(rw.code)
			m.reqTotal.WithLabelValues(r.Method, path, status).Inc()
			m.reqLatency.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		})
	}
}

// ObserveImport records the row outcomes of one import. Dry runs are not counted.
func (m *Metrics) ObserveImport(sum importer.ImportSummary) {
	if sum.DryRun {
		return
	}
	m.importRows.WithLabelValues("inserted").Add(float64(sum.Inserted))
	m.importRows.WithLabelValues("updated").Add(float64(sum.Updated))
	m.importRows.WithLabelValues("skipped").Add(float64(sum.Skipped))
	m.importRows.WithLabelValues("error").Add(float64(sum.Errors))
}

// Handler returns an http.Handler that serves Prometheus metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
