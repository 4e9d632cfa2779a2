// Package metrics provides Prometheus metrics for the Vantage dashboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the Vantage service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core Business Metrics - Dashboard assembly outcomes
	dashboardsAssembled *prometheus.CounterVec
	assemblyLatency     prometheus.Histogram
	sourcesSettled      *prometheus.CounterVec

	// Upstream Metrics - Reads against the assessment platform API
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec

	// Cache Metrics - Read-through query cache behaviour
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	cacheCoalesced *prometheus.CounterVec
	cacheEvictions prometheus.Counter
	cacheEntries   prometheus.Gauge

	// Fetch Pool Metrics - Bounded fan-out capacity
	poolWorkers       prometheus.Gauge
	poolActiveWorkers prometheus.Gauge
	poolQueueDepth    prometheus.Gauge
	poolQueueCapacity prometheus.Gauge
	poolTasks         *prometheus.CounterVec
	poolTaskLatency   prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics - Detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vantage",
		subsystem:        "dashboard",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Core Business Metrics - What the aggregator is for
	m.dashboardsAssembled = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "dashboards_assembled_total",
			Help:      "Total number of dashboard view-models assembled, by outcome",
		},
		[]string{"outcome"},
	)

	m.assemblyLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "assembly_latency_milliseconds",
		Help:      "Histogram of full dashboard assembly latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.sourcesSettled = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sources_settled_total",
			Help:      "Total number of source settlements, by source and final state",
		},
		[]string{"source", "state"},
	)

	// Upstream Metrics - Reads against the assessment platform API
	m.upstreamRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream API reads, by resource and outcome",
		},
		[]string{"resource", "outcome"},
	)

	m.upstreamLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "upstream_latency_milliseconds",
			Help:      "Upstream API read latency in milliseconds, by resource",
			Buckets:   m.histogramBuckets,
		},
		[]string{"resource"},
	)

	// Cache Metrics - Read-through query cache behaviour
	m.cacheHits = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits, by resource",
		},
		[]string{"resource"},
	)

	m.cacheMisses = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses, by resource",
		},
		[]string{"resource"},
	)

	m.cacheCoalesced = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cache_coalesced_total",
			Help:      "Total number of loads joined to an in-flight load for the same key",
		},
		[]string{"resource"},
	)

	m.cacheEvictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_evictions_total",
		Help:      "Total number of cache entries evicted (expiry or capacity)",
	})

	m.cacheEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_entries",
		Help:      "Current number of live cache entries",
	})

	// Fetch Pool Metrics - Bounded fan-out capacity
	m.poolWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pool_workers",
		Help:      "Configured fetch pool worker cap",
	})

	m.poolActiveWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pool_active_workers",
		Help:      "Number of fetch pool workers currently running a task",
	})

	m.poolQueueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pool_queue_depth",
		Help:      "Current number of tasks waiting in the fetch pool queue",
	})

	m.poolQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pool_queue_capacity",
		Help:      "Maximum fetch pool queue capacity",
	})

	m.poolTasks = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "pool_tasks_total",
			Help:      "Total number of fetch pool tasks, by outcome",
		},
		[]string{"outcome"},
	)

	m.poolTaskLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pool_task_latency_milliseconds",
		Help:      "Fetch pool task execution latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// HTTP Performance Metrics - User experience indicators
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds (user experience)",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Error Metrics - Detailed error tracking
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of errors by endpoint",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Assembly Metrics Functions.

// RecordDashboardAssembled increments the assembled dashboards counter for an outcome.
// Outcomes: ok, partial, unauthorized, canceled.
func RecordDashboardAssembled(outcome string) {
	globalManager.dashboardsAssembled.WithLabelValues(outcome).Inc()
}

// RecordAssemblyLatency records full assembly latency in milliseconds.
func RecordAssemblyLatency(latencyMs float64) {
	globalManager.assemblyLatency.Observe(latencyMs)
}

// RecordSourceSettled records the final state of one dashboard source.
func RecordSourceSettled(source, state string) {
	globalManager.sourcesSettled.WithLabelValues(source, state).Inc()
}

// Upstream Metrics Functions.

// RecordUpstreamRequest increments the upstream read counter for a resource and outcome.
func RecordUpstreamRequest(resource, outcome string) {
	globalManager.upstreamRequests.WithLabelValues(resource, outcome).Inc()
}

// RecordUpstreamLatency records upstream read latency in milliseconds.
func RecordUpstreamLatency(resource string, latencyMs float64) {
	globalManager.upstreamLatency.WithLabelValues(resource).Observe(latencyMs)
}

// Cache Metrics Functions.

// RecordCacheHit increments the cache hit counter for a resource.
func RecordCacheHit(resource string) {
	globalManager.cacheHits.WithLabelValues(resource).Inc()
}

// RecordCacheMiss increments the cache miss counter for a resource.
func RecordCacheMiss(resource string) {
	globalManager.cacheMisses.WithLabelValues(resource).Inc()
}

// RecordCacheCoalesced increments the coalesced-load counter for a resource.
func RecordCacheCoalesced(resource string) {
	globalManager.cacheCoalesced.WithLabelValues(resource).Inc()
}

// RecordCacheEviction increments the cache eviction counter.
func RecordCacheEviction() {
	globalManager.cacheEvictions.Inc()
}

// UpdateCacheEntries sets the current number of live cache entries.
func UpdateCacheEntries(count int) {
	globalManager.cacheEntries.Set(float64(count))
}

// Fetch Pool Metrics Functions.

// UpdatePoolWorkers sets the configured worker cap.
func UpdatePoolWorkers(count int) {
	globalManager.poolWorkers.Set(float64(count))
}

// UpdatePoolActiveWorkers sets the number of workers currently running a task.
func UpdatePoolActiveWorkers(count int) {
	globalManager.poolActiveWorkers.Set(float64(count))
}

// UpdatePoolQueueDepth sets the current queue depth.
func UpdatePoolQueueDepth(depth int) {
	globalManager.poolQueueDepth.Set(float64(depth))
}

// UpdatePoolQueueCapacity sets the maximum queue capacity.
func UpdatePoolQueueCapacity(capacity int) {
	globalManager.poolQueueCapacity.Set(float64(capacity))
}

// RecordPoolTask increments the task counter for an outcome.
// Outcomes: completed, failed, rejected, canceled.
func RecordPoolTask(outcome string) {
	globalManager.poolTasks.WithLabelValues(outcome).Inc()
}

// RecordPoolTaskLatency records task execution latency in milliseconds.
func RecordPoolTaskLatency(latencyMs float64) {
	globalManager.poolTaskLatency.Observe(latencyMs)
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
