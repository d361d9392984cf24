package evaluation

import (
	"net/http"
	"time"

	"fuzzymenu/internal/cascade"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector owns a private prometheus registry with the
// recommendation counters and latency histogram.
type MetricsCollector struct {
	registry *prometheus.Registry
	metrics  map[string]prometheus.Collector
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()

	recommendations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuzzymenu_recommendations_total",
			Help: "Recommendations served, by preset and dish",
		},
		[]string{"preset", "dish"},
	)

	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuzzymenu_recommendation_errors_total",
			Help: "Requests rejected by validation or inference",
		},
		[]string{"preset"},
	)

	cacheHits := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuzzymenu_cache_hits_total",
			Help: "Recommendations answered from the memo",
		},
		[]string{"preset"},
	)

	latency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fuzzymenu_cascade_duration_seconds",
			Help:    "Time spent running the three inference stages",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
		[]string{"preset"},
	)

	dishIndex := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fuzzymenu_dish_index",
			Help:    "Crisp dish index before decoding",
			Buckets: prometheus.LinearBuckets(0.5, 1, 9),
		},
		[]string{"preset"},
	)

	scenarios := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fuzzymenu_scenario_passed",
			Help: "1 when the last run of a scenario produced the expected dish",
		},
		[]string{"preset", "scenario"},
	)

	metrics := map[string]prometheus.Collector{
		"recommendations": recommendations,
		"failures":        failures,
		"cache_hits":      cacheHits,
		"latency":         latency,
		"dish_index":      dishIndex,
		"scenarios":       scenarios,
	}

	for _, metric := range metrics {
		registry.MustRegister(metric)
	}

	return &MetricsCollector{
		registry: registry,
		metrics:  metrics,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// Handler serves the registry in the prometheus text format.
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}

// RecordRecommendation records a computed result and how long the cascade took.
func (mc *MetricsCollector) RecordRecommendation(preset string, res cascade.Result, elapsed time.Duration) {
	if counter, ok := mc.metrics["recommendations"].(*prometheus.CounterVec); ok {
		counter.WithLabelValues(preset, res.DishName).Inc()
	}
	if histogram, ok := mc.metrics["latency"].(*prometheus.HistogramVec); ok {
		histogram.WithLabelValues(preset).Observe(elapsed.Seconds())
	}
	if histogram, ok := mc.metrics["dish_index"].(*prometheus.HistogramVec); ok {
		histogram.WithLabelValues(preset).Observe(res.DishIndex)
	}
}

// RecordCacheHit records a result served from the memo.
func (mc *MetricsCollector) RecordCacheHit(preset string, res cascade.Result) {
	if counter, ok := mc.metrics["cache_hits"].(*prometheus.CounterVec); ok {
		counter.WithLabelValues(preset).Inc()
	}
	if counter, ok := mc.metrics["recommendations"].(*prometheus.CounterVec); ok {
		counter.WithLabelValues(preset, res.DishName).Inc()
	}
}

// RecordFailure records a rejected request.
func (mc *MetricsCollector) RecordFailure(preset string) {
	if counter, ok := mc.metrics["failures"].(*prometheus.CounterVec); ok {
		counter.WithLabelValues(preset).Inc()
	}
}

// RecordScenario records the outcome of a scenario run.
func (mc *MetricsCollector) RecordScenario(r *ScenarioResult) {
	if gauge, ok := mc.metrics["scenarios"].(*prometheus.GaugeVec); ok {
		v := 0.0
		if r.Passed {
			v = 1
		}
		gauge.WithLabelValues(r.Preset, r.Scenario).Set(v)
	}
}
