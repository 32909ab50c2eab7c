package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the catalyst service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Scoring
	scoreComputations *prometheus.CounterVec
	scoreValue        prometheus.Histogram
	scoringLatency    prometheus.Histogram

	// Market data provider
	providerRequests *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	earningsLookups  *prometheus.CounterVec
	seriesRefreshes  *prometheus.CounterVec
	volatilityLast   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "catalyst",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.scoreComputations = m.counterVec("score_computations_total",
		"Total number of score computations by status", "status")
	m.scoreValue = m.histogram("score_value",
		"Distribution of computed catalyst scores",
		[]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	m.scoringLatency = m.histogram("scoring_latency_milliseconds",
		"Histogram of scoring latency in milliseconds", m.histogramBuckets)

	m.providerRequests = m.counterVec("provider_requests_total",
		"Total number of market data requests by endpoint and outcome", "endpoint", "outcome")
	m.providerLatency = m.histogramVec("provider_latency_milliseconds",
		"Market data request latency in milliseconds", "endpoint")
	m.cacheLookups = m.counterVec("cache_lookups_total",
		"Cache lookups by cache name and result", "cache", "result")
	m.earningsLookups = m.counterVec("earnings_lookups_total",
		"Earnings date lookups by outcome", "outcome")
	m.seriesRefreshes = m.counterVec("series_refreshes_total",
		"Scheduled volatility series refreshes by outcome", "outcome")
	m.volatilityLast = m.gauge("volatility_index_last",
		"Last known close of the volatility index")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordScoreComputation counts a score computation by status.
func RecordScoreComputation(status string) {
	globalManager.scoreComputations.WithLabelValues(status).Inc()
}

// RecordScoreValue observes a computed score.
func RecordScoreValue(score int) {
	globalManager.scoreValue.Observe(float64(score))
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordProviderRequest records one market data request.
func RecordProviderRequest(endpoint, outcome string, latencyMs float64) {
	globalManager.providerRequests.WithLabelValues(endpoint, outcome).Inc()
	globalManager.providerLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// RecordCacheHit counts a cache hit.
func RecordCacheHit(cache string) {
	globalManager.cacheLookups.WithLabelValues(cache, "hit").Inc()
}

// RecordCacheMiss counts a cache miss.
func RecordCacheMiss(cache string) {
	globalManager.cacheLookups.WithLabelValues(cache, "miss").Inc()
}

// RecordEarningsLookup counts an earnings lookup by outcome.
func RecordEarningsLookup(outcome string) {
	globalManager.earningsLookups.WithLabelValues(outcome).Inc()
}

// RecordSeriesRefresh counts a scheduled refresh by outcome.
func RecordSeriesRefresh(outcome string) {
	globalManager.seriesRefreshes.WithLabelValues(outcome).Inc()
}

// UpdateVolatilityLast sets the last known volatility index close.
func UpdateVolatilityLast(value float64) {
	globalManager.volatilityLast.Set(value)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

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
