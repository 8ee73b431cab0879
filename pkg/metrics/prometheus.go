// Package metrics provides Prometheus metrics for the squadgraph pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the pipeline reports to.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Lineup aggregation
	matchesAggregated prometheus.Counter
	recordsSkipped    *prometheus.CounterVec
	duplicateMatches  prometheus.Counter
	filesIngested     *prometheus.CounterVec

	// Graph building
	graphsBuilt       prometheus.Counter
	graphBuildLatency prometheus.Histogram

	// Dynamic scores
	transitionsComputed prometheus.Counter
	transitionsRejected *prometheus.CounterVec
	transitionLatency   prometheus.Histogram

	// Archive
	archiveGraphs      prometheus.Gauge
	archiveTransitions prometheus.Gauge

	// Outputs
	artifactsWritten *prometheus.CounterVec
	sinkWrites       *prometheus.CounterVec

	// Runs
	runsTotal   *prometheus.CounterVec
	runDuration prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

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

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps the default Go collectors out of /metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Without WithPrometheusRegistry the
// collectors are registered on the default registerer.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "squadgraph",
		subsystem:        "pipeline",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.matchesAggregated = m.counter("matches_aggregated_total",
		"Matches whose club lineup contributed to player and pair counts")
	m.recordsSkipped = m.counterVec("records_skipped_total",
		"Match records skipped during aggregation", "reason")
	m.duplicateMatches = m.counter("duplicate_matches_total",
		"Match records dropped at ingest because the fixture was already seen")
	m.filesIngested = m.counterVec("files_ingested_total",
		"Lineup files read by format", "format")

	m.graphsBuilt = m.counter("graphs_built_total", "Season graphs built")
	m.graphBuildLatency = m.histogram("graph_build_latency_milliseconds",
		"Time to validate and build one season graph", m.histogramBuckets)

	m.transitionsComputed = m.counter("transitions_computed_total", "Season transitions scored")
	m.transitionsRejected = m.counterVec("transitions_rejected_total",
		"Transitions rejected before scoring", "kind")
	m.transitionLatency = m.histogram("transition_latency_milliseconds",
		"Time to compute one transition", m.histogramBuckets)

	m.archiveGraphs = m.gauge("archive_graphs", "Season graphs held in the archive")
	m.archiveTransitions = m.gauge("archive_transitions", "Transitions cached in the archive")

	m.artifactsWritten = m.counterVec("artifacts_written_total", "Artifact files written", "kind")
	m.sinkWrites = m.counterVec("sink_writes_total", "Sink publish attempts", "sink", "status")

	m.runsTotal = m.counterVec("runs_total", "Pipeline runs by outcome", "status")
	m.runDuration = m.histogram("run_duration_milliseconds", "Wall time of a pipeline run",
		[]float64{10, 50, 100, 500, 1000, 5000, 15000, 60000, 300000})

	m.queueSize = m.gauge("queue_size", "Build jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Build jobs enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Build jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Build jobs that could not be enqueued")

	m.workerCount = m.gauge("worker_count", "Configured build workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Build workers currently processing a job")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Time a worker spends on one build job", m.histogramBuckets)
	m.workerErrorRate = m.counter("worker_errors_total", "Build jobs that failed")

	m.httpRequests = m.counterVec("http_requests_total",
		"HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Errors by component", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes in use")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordMatchAggregated counts a match that contributed to a season's counts.
func RecordMatchAggregated() { globalManager.matchesAggregated.Inc() }

// RecordRecordSkipped counts a skipped match record by reason.
func RecordRecordSkipped(reason string) { globalManager.recordsSkipped.WithLabelValues(reason).Inc() }

// RecordDuplicateMatch counts a fixture dropped as already seen.
func RecordDuplicateMatch() { globalManager.duplicateMatches.Inc() }

// RecordFileIngested counts a lineup file read in the given format.
func RecordFileIngested(format string) { globalManager.filesIngested.WithLabelValues(format).Inc() }

// RecordGraphBuilt counts a successfully built season graph.
func RecordGraphBuilt() { globalManager.graphsBuilt.Inc() }

// RecordGraphBuildLatency records graph build latency in milliseconds.
func RecordGraphBuildLatency(latencyMs float64) { globalManager.graphBuildLatency.Observe(latencyMs) }

// RecordTransitionComputed counts a scored transition.
func RecordTransitionComputed() { globalManager.transitionsComputed.Inc() }

// RecordTransitionRejected counts a transition refused before scoring.
func RecordTransitionRejected(kind string) {
	globalManager.transitionsRejected.WithLabelValues(kind).Inc()
}

// RecordTransitionLatency records transition latency in milliseconds.
func RecordTransitionLatency(latencyMs float64) { globalManager.transitionLatency.Observe(latencyMs) }

// UpdateArchiveGraphs sets the number of graphs held.
func UpdateArchiveGraphs(count int) { globalManager.archiveGraphs.Set(float64(count)) }

// UpdateArchiveTransitions sets the number of cached transitions.
func UpdateArchiveTransitions(count int) { globalManager.archiveTransitions.Set(float64(count)) }

// RecordArtifactWritten counts an artifact file by kind.
func RecordArtifactWritten(kind string) { globalManager.artifactsWritten.WithLabelValues(kind).Inc() }

// RecordSinkWrite counts a sink publish attempt.
func RecordSinkWrite(sink, status string) {
	globalManager.sinkWrites.WithLabelValues(sink, status).Inc()
}

// RecordRun counts a finished pipeline run and records its duration.
func RecordRun(status string, durationMs float64) {
	globalManager.runsTotal.WithLabelValues(status).Inc()
	globalManager.runDuration.Observe(durationMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueueRate.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeueRate.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActiveCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrorRate.Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method and type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap bytes in use.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the registry behind /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
