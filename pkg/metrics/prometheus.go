// Package metrics provides Prometheus metrics for the scrollstats service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Dataset cache
	fetchesTotal  *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec
	staleServes   *prometheus.CounterVec
	rowsLoaded    *prometheus.GaugeVec
	lastLoadUnix  *prometheus.GaugeVec
	coalescedRuns *prometheus.CounterVec

	// Commands
	commandsTotal  *prometheus.CounterVec
	commandLatency *prometheus.HistogramVec
	noMatchTotal   *prometheus.CounterVec
	unavailable    *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Scheduler
	scheduledRefreshes *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // custom registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Collectors are registered on the
// configured registry (prometheus.DefaultRegisterer unless overridden).
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scrollstats",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
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

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
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
	m.fetchesTotal = m.counterVec("dataset_fetches_total",
		"Dataset fetch attempts by dataset and outcome", "dataset", "outcome")
	m.fetchLatency = m.histogramVec("dataset_fetch_duration_seconds",
		"Time spent fetching and parsing a dataset", "dataset")
	m.staleServes = m.counterVec("dataset_stale_serves_total",
		"Reads answered from a stale generation after a failed refresh", "dataset")
	m.rowsLoaded = m.gaugeVec("dataset_rows",
		"Rows in the current dataset generation", "dataset")
	m.lastLoadUnix = m.gaugeVec("dataset_last_load_timestamp_seconds",
		"Unix time of the last successful dataset load", "dataset")
	m.coalescedRuns = m.counterVec("dataset_refresh_coalesced_total",
		"Refresh calls that joined an in-flight fetch instead of starting one", "dataset")

	m.commandsTotal = m.counterVec("commands_total",
		"Commands handled by name and result", "command", "result")
	m.commandLatency = m.histogramVec("command_duration_seconds",
		"Command handling latency", "command")
	m.noMatchTotal = m.counterVec("command_no_match_total",
		"Commands that matched zero records after filtering", "command")
	m.unavailable = m.counterVec("field_unavailable_total",
		"Canonical fields that could not be resolved against a dataset header", "dataset", "field")

	m.httpRequests = m.counterVec("http_requests_total",
		"HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_seconds",
		"HTTP request latency", "endpoint", "method", "status_code")

	m.scheduledRefreshes = m.counterVec("scheduled_refreshes_total",
		"Scheduled refresh runs by result", "result")
}

// RecordFetch records one fetch attempt and its latency.
func RecordFetch(dataset, outcome string, seconds float64) {
	globalManager.fetchesTotal.WithLabelValues(dataset, outcome).Inc()
	globalManager.fetchLatency.WithLabelValues(dataset).Observe(seconds)
}

// RecordStaleServe counts a read served from stale data.
func RecordStaleServe(dataset string) {
	globalManager.staleServes.WithLabelValues(dataset).Inc()
}

// RecordCoalescedRefresh counts a refresh that shared an in-flight fetch.
func RecordCoalescedRefresh(dataset string) {
	globalManager.coalescedRuns.WithLabelValues(dataset).Inc()
}

// UpdateDatasetLoaded sets the row gauge and last-load timestamp.
func UpdateDatasetLoaded(dataset string, rows int, unix int64) {
	globalManager.rowsLoaded.WithLabelValues(dataset).Set(float64(rows))
	globalManager.lastLoadUnix.WithLabelValues(dataset).Set(float64(unix))
}

// RecordCommand records a handled command.
func RecordCommand(command, result string, seconds float64) {
	globalManager.commandsTotal.WithLabelValues(command, result).Inc()
	globalManager.commandLatency.WithLabelValues(command).Observe(seconds)
}

// RecordNoMatch counts an empty command result.
func RecordNoMatch(command string) {
	globalManager.noMatchTotal.WithLabelValues(command).Inc()
}

// RecordFieldUnavailable counts an unresolved canonical field.
func RecordFieldUnavailable(dataset, field string) {
	globalManager.unavailable.WithLabelValues(dataset, field).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string, seconds float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

// RecordScheduledRefresh records a cron-triggered refresh run.
func RecordScheduledRefresh(result string) {
	globalManager.scheduledRefreshes.WithLabelValues(result).Inc()
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
