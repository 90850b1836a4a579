// Package metrics provides Prometheus metrics for the Bloom sync client:
// remote request outcomes, store cache health, and the wellness gauges the
// agent exports for the signed-in user.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric the client records.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Remote boundary
	remoteRequests       *prometheus.CounterVec
	remoteRequestLatency *prometheus.HistogramVec

	// Store health
	storeRefreshes   *prometheus.CounterVec
	storeErrors      *prometheus.CounterVec
	cachedActivities prometheus.Gauge

	// Auth lifecycle
	authEvents *prometheus.CounterVec

	// Scoring
	assessmentScores prometheus.Histogram

	// Wellness gauges exported by the agent
	stressLevel   prometheus.Gauge
	focusScore    prometheus.Gauge
	activityScore prometheus.Gauge
	heartRate     prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Registry returns the registry backing the global manager, for exposing
// via promhttp.
func Registry() *prometheus.Registry {
	return customRegistry
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bloom",
		subsystem:        "client",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.remoteRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "remote_requests_total",
		Help:      "Remote data service calls by collection, operation, and outcome",
	}, []string{"collection", "operation", "outcome"})

	m.remoteRequestLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "remote_request_duration_milliseconds",
		Help:      "Latency of remote data service calls in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"collection", "operation"})

	m.storeRefreshes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_refreshes_total",
		Help:      "Successful cache refreshes by store",
	}, []string{"store"})

	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Store operations that surfaced an error, by store and operation",
	}, []string{"store", "operation"})

	m.cachedActivities = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cached_activities",
		Help:      "Number of activities currently held in the cache",
	})

	m.authEvents = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "auth_events_total",
		Help:      "Auth store events by kind (sign_up, sign_in, sign_out, ...)",
	}, []string{"event"})

	m.assessmentScores = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "assessment_score",
		Help:      "Distribution of computed stress-assessment scores",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	m.stressLevel = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stress_level",
		Help:      "Last synced stress level for the signed-in user (0-100)",
	})

	m.focusScore = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "focus_score",
		Help:      "Last synced focus score for the signed-in user (0-100)",
	})

	m.activityScore = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "activity_score",
		Help:      "Last synced activity score for the signed-in user",
	})

	m.heartRate = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "heart_rate",
		Help:      "Last synced heart rate for the signed-in user",
	})
}

// RecordRemoteRequest counts one remote call outcome.
func (m *Manager) RecordRemoteRequest(collection, operation, outcome string) {
	if !m.enabled {
		return
	}
	m.remoteRequests.WithLabelValues(collection, operation, outcome).Inc()
}

// RecordRemoteRequestDuration observes a remote call latency.
func (m *Manager) RecordRemoteRequestDuration(collection, operation string, ms float64) {
	if !m.enabled {
		return
	}
	m.remoteRequestLatency.WithLabelValues(collection, operation).Observe(ms)
}

// RecordStoreRefresh counts one successful store refresh.
func (m *Manager) RecordStoreRefresh(store string) {
	if !m.enabled {
		return
	}
	m.storeRefreshes.WithLabelValues(store).Inc()
}

// RecordStoreError counts one surfaced store error.
func (m *Manager) RecordStoreError(store, operation string) {
	if !m.enabled {
		return
	}
	m.storeErrors.WithLabelValues(store, operation).Inc()
}

// UpdateCachedActivities sets the activity cache size gauge.
func (m *Manager) UpdateCachedActivities(n int) {
	if !m.enabled {
		return
	}
	m.cachedActivities.Set(float64(n))
}

// RecordAuthEvent counts one auth lifecycle event.
func (m *Manager) RecordAuthEvent(event string) {
	if !m.enabled {
		return
	}
	m.authEvents.WithLabelValues(event).Inc()
}

// RecordAssessmentScore observes one computed assessment score.
func (m *Manager) RecordAssessmentScore(score int) {
	if !m.enabled {
		return
	}
	m.assessmentScores.Observe(float64(score))
}

// UpdateWellness sets the exported wellness gauges from a metrics snapshot.
func (m *Manager) UpdateWellness(stress, focus int, activity, heartRate float64) {
	if !m.enabled {
		return
	}
	m.stressLevel.Set(float64(stress))
	m.focusScore.Set(float64(focus))
	m.activityScore.Set(activity)
	m.heartRate.Set(heartRate)
}

// Package-level helpers recording through the global manager.

// RecordRemoteRequest counts one remote call outcome.
func RecordRemoteRequest(collection, operation, outcome string) {
	globalManager.RecordRemoteRequest(collection, operation, outcome)
}

// RecordRemoteRequestDuration observes a remote call latency.
func RecordRemoteRequestDuration(collection, operation string, ms float64) {
	globalManager.RecordRemoteRequestDuration(collection, operation, ms)
}

// RecordStoreRefresh counts one successful store refresh.
func RecordStoreRefresh(store string) {
	globalManager.RecordStoreRefresh(store)
}

// RecordStoreError counts one surfaced store error.
func RecordStoreError(store, operation string) {
	globalManager.RecordStoreError(store, operation)
}

// UpdateCachedActivities sets the activity cache size gauge.
func UpdateCachedActivities(n int) {
	globalManager.UpdateCachedActivities(n)
}

// RecordAuthEvent counts one auth lifecycle event.
func RecordAuthEvent(event string) {
	globalManager.RecordAuthEvent(event)
}

// RecordAssessmentScore observes one computed assessment score.
func RecordAssessmentScore(score int) {
	globalManager.RecordAssessmentScore(score)
}

// UpdateWellness sets the exported wellness gauges from a metrics snapshot.
func UpdateWellness(stress, focus int, activity, heartRate float64) {
	globalManager.UpdateWellness(stress, focus, activity, heartRate)
}
