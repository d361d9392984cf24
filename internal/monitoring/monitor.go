// Package monitoring keeps an in-process snapshot of recent activity for the
// /api/v1/metrics endpoint.
package monitoring

import (
	"sync"
	"time"

	"fuzzymenu/internal/cascade"
)

// Monitor collects and provides metrics for the API.
type Monitor struct {
	metrics      map[string]interface{}
	dishes       map[string]int
	total        int
	cached       int
	failed       int
	metricsMutex sync.RWMutex
	startTime    time.Time
}

// NewMonitor creates a new monitoring instance
func NewMonitor() *Monitor {
	return &Monitor{
		metrics:   make(map[string]interface{}),
		dishes:    make(map[string]int),
		startTime: time.Now(),
	}
}

// RecordMetric records a metric value
func (m *Monitor) RecordMetric(name string, value interface{}) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics[name] = value
}

// GetMetric returns a specific metric value
func (m *Monitor) GetMetric(name string) (interface{}, bool) {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()
	value, exists := m.metrics[name]
	return value, exists
}

// RecordRecommendation counts one answered request and remembers it as the
// latest result.
func (m *Monitor) RecordRecommendation(preset string, res cascade.Result, cached bool) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()

	m.total++
	if cached {
		m.cached++
	}
	m.dishes[res.DishName]++
	m.metrics["last_preset"] = preset
	m.metrics["last_result"] = res
	m.metrics["last_recommended_at"] = time.Now().Format(time.RFC3339)
}

// RecordFailure counts a request rejected by validation or inference.
func (m *Monitor) RecordFailure() {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.failed++
}

// GetMetrics returns all current metrics
func (m *Monitor) GetMetrics() map[string]interface{} {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()

	metrics := make(map[string]interface{}, len(m.metrics)+5)
	for k, v := range m.metrics {
		metrics[k] = v
	}
	dishes := make(map[string]int, len(m.dishes))
	for k, v := range m.dishes {
		dishes[k] = v
	}

	metrics["recommendations_total"] = m.total
	metrics["recommendations_cached"] = m.cached
	metrics["recommendations_failed"] = m.failed
	metrics["dishes"] = dishes
	metrics["uptime_seconds"] = time.Since(m.startTime).Seconds()

	return metrics
}

// Reset clears all metrics
func (m *Monitor) Reset() {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics = make(map[string]interface{})
	m.dishes = make(map[string]int)
	m.total, m.cached, m.failed = 0, 0, 0
}
