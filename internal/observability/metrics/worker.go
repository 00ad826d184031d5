package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics tracks snapshot rebuilds triggered by the change feed.
type WorkerMetrics struct {
	registry *prometheus.Registry
	service  string

	reloadTotal    *prometheus.CounterVec
	reloadDuration *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	reloadTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "faqbot",
			Subsystem: "worker",
			Name:      "snapshot_reload_total",
			Help:      "Total snapshot rebuilds by status.",
		},
		[]string{"service", "status"},
	)
	reloadDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "faqbot",
			Subsystem: "worker",
			Name:      "snapshot_reload_duration_seconds",
			Help:      "Snapshot rebuild duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(reloadTotal, reloadDuration)

	return &WorkerMetrics{
		registry:       registry,
		service:        service,
		reloadTotal:    reloadTotal,
		reloadDuration: reloadDuration,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) FinishReload(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.reloadTotal.WithLabelValues(m.service, status).Inc()
	m.reloadDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}
