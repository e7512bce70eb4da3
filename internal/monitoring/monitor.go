package monitoring

import (
	"sync"
	"time"
)

// Monitor keeps a small in-memory view of generation activity for the
// /api/v1/metrics endpoint and forwards the same events to Prometheus.
type Monitor struct {
	metrics      map[string]interface{}
	metricsMutex sync.RWMutex
	startTime    time.Time
	collector    *MetricsCollector
}

// NewMonitor creates a new monitoring instance. collector may be nil.
func NewMonitor(collector *MetricsCollector) *Monitor {
	return &Monitor{
		metrics:   make(map[string]interface{}),
		startTime: time.Now(),
		collector: collector,
	}
}

// RecordMetric records a metric value
func (m *Monitor) RecordMetric(name string, value interface{}) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics[name] = value
}

// GetMetrics returns all current metrics
func (m *Monitor) GetMetrics() map[string]interface{} {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()

	metrics := make(map[string]interface{}, len(m.metrics)+1)
	for k, v := range m.metrics {
		metrics[k] = v
	}
	metrics["uptime_seconds"] = time.Since(m.startTime).Seconds()

	return metrics
}

// RecordGeneration records the outcome of one generation attempt. kind is
// "ok" on success or the failure kind otherwise.
func (m *Monitor) RecordGeneration(kind string, d time.Duration) {
	m.metricsMutex.Lock()
	key := "generations_" + kind
	count, _ := m.metrics[key].(int)
	m.metrics[key] = count + 1
	total, _ := m.metrics["generations_total"].(int)
	m.metrics["generations_total"] = total + 1
	m.metrics["last_generation_kind"] = kind
	m.metrics["last_generation_seconds"] = d.Seconds()
	m.metrics["last_generation_at"] = time.Now().Format(time.RFC3339)
	m.metricsMutex.Unlock()

	if m.collector != nil {
		m.collector.RecordGeneration(kind, d)
	}
}

// GenerationStarted marks an attempt as in flight.
func (m *Monitor) GenerationStarted() {
	if m.collector != nil {
		m.collector.AddInFlight(1)
	}
}

// GenerationFinished undoes GenerationStarted.
func (m *Monitor) GenerationFinished() {
	if m.collector != nil {
		m.collector.AddInFlight(-1)
	}
}

// SetActiveSessions records how many browser sessions are held in memory
func (m *Monitor) SetActiveSessions(n int) {
	m.RecordMetric("active_sessions", n)
	if m.collector != nil {
		m.collector.SetActiveSessions(n)
	}
}
