package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerMetrics carries the HTTP middleware metrics plus the answer
// pipeline counters. It implements usecase.PipelineObserver.
type ServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	retrievalDuration   *prometheus.HistogramVec
	retrievalCandidates *prometheus.HistogramVec
	retrievalHitTotal   *prometheus.CounterVec
	retrievalMissTotal  *prometheus.CounterVec
	adverseTotal        *prometheus.CounterVec
	terminalTotal       *prometheus.CounterVec
}

func NewServerMetrics(service string) *ServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "faqbot",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "faqbot",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "faqbot",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	retrievalDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "faqbot",
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "Hybrid retrieval duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	retrievalCandidates := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "faqbot",
			Subsystem: "retrieval",
			Name:      "candidates",
			Help:      "Distribution of fused candidates per retrieval.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service"},
	)
	retrievalHitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "faqbot",
			Subsystem: "retrieval",
			Name:      "hit_total",
			Help:      "Total retrievals with at least one candidate.",
		},
		[]string{"service"},
	)
	retrievalMissTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "faqbot",
			Subsystem: "retrieval",
			Name:      "miss_total",
			Help:      "Total retrievals without candidates.",
		},
		[]string{"service"},
	)
	adverseTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "faqbot",
			Subsystem: "safety",
			Name:      "adverse_total",
			Help:      "Total adverse determinations by reason.",
		},
		[]string{"service", "reason"},
	)
	terminalTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "faqbot",
			Subsystem: "chat",
			Name:      "terminal_total",
			Help:      "Total chat turns by terminal outcome.",
		},
		[]string{"service", "terminal"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		retrievalDuration,
		retrievalCandidates,
		retrievalHitTotal,
		retrievalMissTotal,
		adverseTotal,
		terminalTotal,
	)

	return &ServerMetrics{
		registry:            registry,
		service:             service,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		retrievalDuration:   retrievalDuration,
		retrievalCandidates: retrievalCandidates,
		retrievalHitTotal:   retrievalHitTotal,
		retrievalMissTotal:  retrievalMissTotal,
		adverseTotal:        adverseTotal,
		terminalTotal:       terminalTotal,
	}
}

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// RetrievalDone implements usecase.PipelineObserver.
func (m *ServerMetrics) RetrievalDone(candidates int, duration time.Duration) {
	m.retrievalDuration.WithLabelValues(m.service).Observe(duration.Seconds())
	m.retrievalCandidates.WithLabelValues(m.service).Observe(float64(candidates))
	if candidates > 0 {
		m.retrievalHitTotal.WithLabelValues(m.service).Inc()
		return
	}
	m.retrievalMissTotal.WithLabelValues(m.service).Inc()
}

// AdverseDetected implements usecase.PipelineObserver.
func (m *ServerMetrics) AdverseDetected(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.adverseTotal.WithLabelValues(m.service, reason).Inc()
}

// TerminalReached implements usecase.PipelineObserver.
func (m *ServerMetrics) TerminalReached(terminal string) {
	if terminal == "" {
		terminal = "unknown"
	}
	m.terminalTotal.WithLabelValues(m.service, terminal).Inc()
}

// statusRecorder keeps Flush working so SSE responses stream through
// the middleware.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
