package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gidd"

// HTTPCollector exposes Prometheus metrics for inbound HTTP requests.
type HTTPCollector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

// NewHTTPCollector constructs a collector with default histograms/counters.
func NewHTTPCollector() (*HTTPCollector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	if err := registry.Register(requestDuration); err != nil {
		return nil, err
	}

	if err := registry.Register(requestTotal); err != nil {
		return nil, err
	}

	collector := &HTTPCollector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}

	return collector, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *HTTPCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *HTTPCollector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// PipelineCollector records pipeline run outcomes and the row counts of the
// snapshot tables produced by the latest successful rebuild.
type PipelineCollector struct {
	runTotal    *prometheus.CounterVec
	runDuration prometheus.Histogram
	rowCount    *prometheus.GaugeVec
}

// NewPipelineCollector registers pipeline metrics on the HTTP collector's
// registry so one /metrics endpoint serves both.
func NewPipelineCollector(httpCollector *HTTPCollector) (*PipelineCollector, error) {
	runTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Total number of pipeline runs by final status.",
	}, []string{"status"})

	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "run_duration_seconds",
		Help:      "Duration distribution of pipeline runs.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	rowCount := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "snapshot_rows",
		Help:      "Row count per snapshot table after the latest rebuild.",
	}, []string{"table"})

	if err := httpCollector.registry.Register(runTotal); err != nil {
		return nil, err
	}

	if err := httpCollector.registry.Register(runDuration); err != nil {
		return nil, err
	}

	if err := httpCollector.registry.Register(rowCount); err != nil {
		return nil, err
	}

	collector := &PipelineCollector{
		runTotal:    runTotal,
		runDuration: runDuration,
		rowCount:    rowCount,
	}

	return collector, nil
}

// ObserveRun records one completed run.
func (c *PipelineCollector) ObserveRun(status string, elapsed time.Duration) {
	c.runTotal.WithLabelValues(status).Inc()
	c.runDuration.Observe(elapsed.Seconds())
}

// SetRowCount records the row count of one snapshot table.
func (c *PipelineCollector) SetRowCount(table string, n int) {
	c.rowCount.WithLabelValues(table).Set(float64(n))
}
