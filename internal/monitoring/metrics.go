package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector owns the Prometheus collectors for recipe generation
type MetricsCollector struct {
	registry    *prometheus.Registry
	generations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	sessions    prometheus.Gauge
	inFlight    prometheus.Gauge
}

// NewMetricsCollector creates a collector on its own registry
func NewMetricsCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()

	generations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipegen_generations_total",
			Help: "Generation attempts by outcome kind",
		},
		[]string{"kind"},
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipegen_generation_duration_seconds",
			Help:    "Time spent waiting on the model service",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
		[]string{"kind"},
	)

	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "recipegen_active_sessions",
		Help: "Browser sessions currently held in memory",
	})

	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "recipegen_generations_in_flight",
		Help: "Generation attempts currently waiting on the model service",
	})

	registry.MustRegister(generations, duration, sessions, inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsCollector{
		registry:    registry,
		generations: generations,
		duration:    duration,
		sessions:    sessions,
		inFlight:    inFlight,
	}
}

// RecordGeneration counts one finished attempt
func (mc *MetricsCollector) RecordGeneration(kind string, d time.Duration) {
	mc.generations.WithLabelValues(kind).Inc()
	mc.duration.WithLabelValues(kind).Observe(d.Seconds())
}

// SetActiveSessions records the session store size
func (mc *MetricsCollector) SetActiveSessions(n int) {
	mc.sessions.Set(float64(n))
}

// AddInFlight moves the in-flight gauge by delta
func (mc *MetricsCollector) AddInFlight(delta float64) {
	mc.inFlight.Add(delta)
}

// Registry exposes the underlying registry, mainly for tests
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// Handler serves the registry in the Prometheus text format
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}
