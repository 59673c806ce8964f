package cari

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for dispatch, failover, the
// search cache and browsing. It is safe for concurrent use, and a nil
// collector records nothing.
type MetricsCollector struct {
	callsTotal    *prometheus.CounterVec
	callDuration  *prometheus.HistogramVec
	callsInFlight *prometheus.GaugeVec

	attemptsTotal  *prometheus.CounterVec
	failoversTotal *prometheus.CounterVec

	circuitBreakerState *prometheus.GaugeVec
	rateLimiterTokens   *prometheus.GaugeVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheSize   *prometheus.GaugeVec

	browsePages *prometheus.CounterVec

	errorsTotal *prometheus.CounterVec
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using supplied registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(registry)
	return &MetricsCollector{
		callsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cari_calls_total",
				Help: "Total number of resolved dispatch calls",
			},
			[]string{"class", "method", "outcome"},
		),
		callDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cari_call_duration_seconds",
				Help:    "Duration of dispatch calls across all attempts in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"class", "method"},
		),
		callsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cari_calls_in_flight",
				Help: "Number of dispatch calls currently in flight",
			},
			[]string{"class"},
		),
		attemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cari_attempts_total",
				Help: "Total number of host attempts by outcome",
			},
			[]string{"host", "outcome"},
		),
		failoversTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cari_failovers_total",
				Help: "Total number of times a call moved on to the next host",
			},
			[]string{"class"},
		),
		circuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cari_circuit_breaker_state",
				Help: "Current state of the host circuit breaker (0=closed, 1=open, 2=half-open)",
			},
			[]string{"host"},
		),
		rateLimiterTokens: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cari_rate_limiter_tokens",
				Help: "Current number of available rate limiter tokens",
			},
			[]string{"limiter"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cari_search_cache_hits_total",
				Help: "Total number of search cache hits",
			},
			[]string{"index"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cari_search_cache_misses_total",
				Help: "Total number of search cache misses",
			},
			[]string{"index"},
		),
		cacheSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cari_search_cache_size",
				Help: "Current number of entries in the search cache",
			},
			[]string{"index"},
		),
		browsePages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cari_browse_pages_total",
				Help: "Total number of browse pages delivered",
			},
			[]string{"index"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cari_errors_total",
				Help: "Total number of errors delivered to callers",
			},
			[]string{"type", "class"},
		),
	}
}

// RecordCallStart increments the in-flight gauge.
func (mc *MetricsCollector) RecordCallStart(class TrafficClass) {
	if mc == nil {
		return
	}
	mc.callsInFlight.WithLabelValues(class.String()).Inc()
}

// RecordCallEnd decrements the in-flight gauge.
func (mc *MetricsCollector) RecordCallEnd(class TrafficClass) {
	if mc == nil {
		return
	}
	mc.callsInFlight.WithLabelValues(class.String()).Dec()
}

// RecordCall records the outcome and duration of a resolved call.
func (mc *MetricsCollector) RecordCall(class TrafficClass, method, outcome string, duration time.Duration) {
	if mc == nil {
		return
	}
	mc.callsTotal.WithLabelValues(class.String(), method, outcome).Inc()
	mc.callDuration.WithLabelValues(class.String(), method).Observe(duration.Seconds())
}

// RecordAttempt counts one host attempt.
func (mc *MetricsCollector) RecordAttempt(host, outcome string) {
	if mc == nil {
		return
	}
	mc.attemptsTotal.WithLabelValues(host, outcome).Inc()
}

// RecordFailover counts a move to the next host.
func (mc *MetricsCollector) RecordFailover(class TrafficClass) {
	if mc == nil {
		return
	}
	mc.failoversTotal.WithLabelValues(class.String()).Inc()
}

// RecordCircuitBreakerState sets gauge to breaker state.
func (mc *MetricsCollector) RecordCircuitBreakerState(host string, state CircuitState) {
	if mc == nil {
		return
	}
	mc.circuitBreakerState.WithLabelValues(host).Set(float64(state))
}

// RecordRateLimiterTokens sets available token gauge.
func (mc *MetricsCollector) RecordRateLimiterTokens(limiter string, tokens int) {
	if mc == nil {
		return
	}
	mc.rateLimiterTokens.WithLabelValues(limiter).Set(float64(tokens))
}

// RecordCacheHit increments cache hit counter.
func (mc *MetricsCollector) RecordCacheHit(index string) {
	if mc == nil {
		return
	}
	mc.cacheHits.WithLabelValues(index).Inc()
}

// RecordCacheMiss increments cache miss counter.
func (mc *MetricsCollector) RecordCacheMiss(index string) {
	if mc == nil {
		return
	}
	mc.cacheMisses.WithLabelValues(index).Inc()
}

// RecordCacheSize sets cache size gauge.
func (mc *MetricsCollector) RecordCacheSize(index string, size int) {
	if mc == nil {
		return
	}
	mc.cacheSize.WithLabelValues(index).Set(float64(size))
}

// RecordBrowsePage counts a page handed to a browse handler.
func (mc *MetricsCollector) RecordBrowsePage(index string) {
	if mc == nil {
		return
	}
	mc.browsePages.WithLabelValues(index).Inc()
}

// RecordError increments error counter by type.
func (mc *MetricsCollector) RecordError(errType string, class TrafficClass) {
	if mc == nil {
		return
	}
	mc.errorsTotal.WithLabelValues(errType, class.String()).Inc()
}
