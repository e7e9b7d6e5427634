// Package metrics provides Prometheus metrics for the playground matching service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Selection outcome labels.
const (
	OutcomeMatched   = "matched"
	OutcomeEmptyPool = "empty_pool"
	OutcomeZeroScore = "zero_score"
	OutcomeNoContact = "no_contact"
	OutcomeAllFailed = "all_failed"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Matching
	selections        *prometheus.CounterVec
	candidatesScored  prometheus.Counter
	scoringFailures   prometheus.Counter
	rankingLatency    prometheus.Histogram
	matchScore        prometheus.Histogram
	matchesRecorded   prometheus.Counter
	persistenceErrors *prometheus.CounterVec

	// Profiles
	profilesSubmitted *prometheus.CounterVec
	candidatePool     prometheus.Gauge

	// Notifications
	notifications *prometheus.CounterVec
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	workerCount   prometheus.Gauge
	sendLatency   prometheus.Histogram

	// Storage
	storeLatency      *prometheus.HistogramVec
	storeRecords      *prometheus.GaugeVec
	errorsByComponent *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "playground",
		subsystem:        "matcher",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat collector list
	auto := promauto.With(m.registry)

	m.selections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "selections_total",
		Help:      "Seeker selections by outcome",
	}, []string{"outcome"})

	m.candidatesScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates_scored_total",
		Help:      "Seeker/candidate pairs scored",
	})

	m.scoringFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_failures_total",
		Help:      "Candidates skipped because scoring failed",
	})

	m.rankingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_latency_milliseconds",
		Help:      "Time to rank one seeker against the candidate pool",
		Buckets:   m.histogramBuckets,
	})

	m.matchScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_score",
		Help:      "Distribution of selected match scores",
		Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
	})

	m.matchesRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_recorded_total",
		Help:      "Match records persisted",
	})

	m.persistenceErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persistence_errors_total",
		Help:      "Storage failures by kind of write",
	}, []string{"kind"})

	m.profilesSubmitted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "profiles_submitted_total",
		Help:      "Profiles submitted through intake by role",
	}, []string{"role"})

	m.candidatePool = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidate_pool_size",
		Help:      "Candidates seen by the most recent ranking",
	})

	m.notifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_total",
		Help:      "Notification jobs by kind and result (sent, failed, dropped)",
	}, []string{"kind", "result"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notify_queue_size",
		Help:      "Pending notification jobs",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notify_queue_capacity",
		Help:      "Notification queue capacity",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notify_worker_count",
		Help:      "Notification delivery workers",
	})

	m.sendLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notify_send_latency_milliseconds",
		Help:      "Mail transport latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_latency_milliseconds",
		Help:      "Storage operation latency by backend and operation",
		Buckets:   m.histogramBuckets,
	}, []string{"backend", "op"})

	m.storeRecords = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_records",
		Help:      "Stored rows by kind (seeker, candidate, match)",
	}, []string{"kind"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Errors by component and kind",
	}, []string{"component", "kind"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordSelection counts one ranking outcome.
func RecordSelection(outcome string) {
	globalManager.selections.WithLabelValues(outcome).Inc()
}

// RecordCandidatesScored adds n scored pairs.
func RecordCandidatesScored(n int) {
	globalManager.candidatesScored.Add(float64(n))
}

// RecordScoringFailure counts a skipped candidate.
func RecordScoringFailure() {
	globalManager.scoringFailures.Inc()
}

// RecordRankingLatency observes one ranking pass.
func RecordRankingLatency(latencyMs float64) {
	globalManager.rankingLatency.Observe(latencyMs)
}

// RecordMatchScore observes the score of a selected match.
func RecordMatchScore(score float64) {
	globalManager.matchScore.Observe(score)
}

// RecordMatchRecorded counts a persisted match record.
func RecordMatchRecorded() {
	globalManager.matchesRecorded.Inc()
}

// RecordPersistenceError counts a storage failure ("match", "profile").
func RecordPersistenceError(kind string) {
	globalManager.persistenceErrors.WithLabelValues(kind).Inc()
}

// RecordProfileSubmitted counts an intake submission.
func RecordProfileSubmitted(role string) {
	globalManager.profilesSubmitted.WithLabelValues(role).Inc()
}

// UpdateCandidatePool sets the size of the last ranked pool.
func UpdateCandidatePool(n int) {
	globalManager.candidatePool.Set(float64(n))
}

// RecordNotification counts a notification job result.
func RecordNotification(kind, result string) {
	globalManager.notifications.WithLabelValues(kind, result).Inc()
}

// UpdateQueueSize sets the pending notification count.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the notification queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateWorkerCount sets the delivery worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordSendLatency observes one mail transport call.
func RecordSendLatency(latencyMs float64) {
	globalManager.sendLatency.Observe(latencyMs)
}

// RecordStoreLatency observes one storage operation.
func RecordStoreLatency(backend, op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(backend, op).Observe(latencyMs)
}

// UpdateStoreRecords sets the stored row count for kind.
func UpdateStoreRecords(kind string, n int) {
	globalManager.storeRecords.WithLabelValues(kind).Set(float64(n))
}

// RecordErrorByComponent counts an error for component.
func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Configure replaces the global manager with one built from opts on a fresh
// registry. Call it at startup, before metrics are recorded or served.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// GetRegistry returns the registry the global manager writes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
