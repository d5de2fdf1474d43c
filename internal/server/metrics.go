package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "primecount"

// Metrics holds the Prometheus collectors of the server. Each instance owns a
// private registry, so several servers (or tests) can coexist in one process.
type Metrics struct {
	registry       *prometheus.Registry
	requestsTotal  *prometheus.CounterVec
	activeRequests prometheus.Gauge
	countDuration  *prometheus.HistogramVec
	primesCounted  prometheus.Counter
	handler        http.Handler
}

// NewMetrics creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Total HTTP requests by endpoint and status code.",
		}, []string{"endpoint", "status"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_requests",
			Help:      "Number of requests currently being served.",
		}),
		countDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "count_duration_seconds",
			Help:      "Duration of successful counts by algorithm.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10), // 0.5ms .. ~2m
		}, []string{"algorithm"}),
		primesCounted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "primes_counted_total",
			Help:      "Sum of the prime counts returned by /count.",
		}),
	}
	m.registry.MustRegister(
		m.requestsTotal,
		m.activeRequests,
		m.countDuration,
		m.primesCounted,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m
}

// IncrementActiveRequests marks the start of a request.
func (m *Metrics) IncrementActiveRequests() { m.activeRequests.Inc() }

// DecrementActiveRequests marks the end of a request.
func (m *Metrics) DecrementActiveRequests() { m.activeRequests.Dec() }

// RecordRequest counts a finished request.
func (m *Metrics) RecordRequest(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

// ObserveCount records the duration and result of a successful count.
func (m *Metrics) ObserveCount(algorithm string, d time.Duration, primes uint64) {
	m.countDuration.WithLabelValues(algorithm).Observe(d.Seconds())
	m.primesCounted.Add(float64(primes))
}

// WritePrometheus serves the registry in the Prometheus exposition format.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}
