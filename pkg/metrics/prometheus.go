package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for additions.
const (
	OutcomePending  = "pending"
	OutcomeReady    = "ready"
	OutcomeOverflow = "overflow"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Recipe sessions
	sessionsActive  prometheus.Gauge
	sessionsCreated prometheus.Counter
	sessionsExpired prometheus.Counter
	sessionsDeleted prometheus.Counter

	// Engine operations
	initializations  prometheus.Counter
	additions        *prometheus.CounterVec
	overflowResets   prometheus.Counter
	engineResets     prometheus.Counter
	replayedRequests prometheus.Counter
	engineErrors     *prometheus.CounterVec
	selectedWeight   prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide collectors

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a Manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "caloric",
		subsystem:        "recipe",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.sessionsActive = auto.NewGauge(m.gauge("sessions_active", "Number of live recipe sessions"))
	m.sessionsCreated = auto.NewCounter(m.counter("sessions_created_total", "Total recipe sessions created"))
	m.sessionsExpired = auto.NewCounter(m.counter("sessions_expired_total", "Total sessions evicted after idling"))
	m.sessionsDeleted = auto.NewCounter(m.counter("sessions_deleted_total", "Total sessions deleted by clients"))

	m.initializations = auto.NewCounter(m.counter("initializations_total", "Total successful engine initializations"))
	m.additions = auto.NewCounterVec(m.counter("ingredient_additions_total", "Ingredient additions by outcome"), []string{"outcome"})
	m.overflowResets = auto.NewCounter(m.counter("overflow_resets_total", "Distributions rebuilt after an overflow"))
	m.engineResets = auto.NewCounter(m.counter("engine_resets_total", "Explicit resets to the uninitialized state"))
	m.replayedRequests = auto.NewCounter(m.counter("replayed_requests_total", "Additions answered from the idempotency cache"))
	m.engineErrors = auto.NewCounterVec(m.counter("engine_errors_total", "Rejected engine operations by kind"), []string{"kind"})
	m.selectedWeight = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "selected_weight",
		Help:        "Weight of the added ingredient after renormalization",
		Buckets:     []float64{0.1, 0.25, 0.5, 0.75, 1, 1.5, 2, 4},
		ConstLabels: m.constLabels,
	})

	m.httpRequests = auto.NewCounterVec(m.counter("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counter("errors_by_endpoint_total", "HTTP errors by endpoint"),
		[]string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gauge("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gauge("system_goroutine_count", "Number of goroutines"))
}

// UpdateSessionsActive sets the live session gauge.
func UpdateSessionsActive(n int) { globalManager.sessionsActive.Set(float64(n)) }

// RecordSessionCreated increments the created sessions counter.
func RecordSessionCreated() { globalManager.sessionsCreated.Inc() }

// RecordSessionExpired increments the expired sessions counter.
func RecordSessionExpired() { globalManager.sessionsExpired.Inc() }

// RecordSessionDeleted increments the deleted sessions counter.
func RecordSessionDeleted() { globalManager.sessionsDeleted.Inc() }

// RecordInitialization increments the initialization counter.
func RecordInitialization() { globalManager.initializations.Inc() }

// RecordAddition counts an addition by outcome and observes the selected weight.
func RecordAddition(outcome string, weight float64) error {
	switch outcome {
	case OutcomePending, OutcomeReady, OutcomeOverflow:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, outcome)
	}
	globalManager.additions.WithLabelValues(outcome).Inc()
	globalManager.selectedWeight.Observe(weight)
	if outcome == OutcomeOverflow {
		globalManager.overflowResets.Inc()
	}
	return nil
}

// RecordEngineReset increments the explicit reset counter.
func RecordEngineReset() { globalManager.engineResets.Inc() }

// RecordReplay increments the replayed requests counter.
func RecordReplay() { globalManager.replayedRequests.Inc() }

// RecordEngineError counts a rejected operation.
func RecordEngineError(kind string) { globalManager.engineErrors.WithLabelValues(kind).Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an HTTP error.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the registry holding the service metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
