package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront_sync"

// SyncMetrics records reconciliation activity: poll jobs, push events and
// store dispatches.
type SyncMetrics struct {
	duration   *prometheus.HistogramVec
	success    *prometheus.CounterVec
	failure    *prometheus.CounterVec
	pushEvents *prometheus.CounterVec
	dispatches *prometheus.CounterVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer. A nil
// registerer yields a recorder that drops everything.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Duration of reconciliation jobs in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_success_total",
		Help:      "Successful reconciliation job runs.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_failure_total",
		Help:      "Failed reconciliation job runs.",
	}, []string{"job"})
	pushEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "push_events_total",
		Help:      "Push events received, by classified type.",
	}, []string{"type"})
	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_dispatches_total",
		Help:      "Actions applied to the state store.",
	}, []string{"action", "changed"})
	reg.MustRegister(duration, success, failure, pushEvents, dispatches)
	return &SyncMetrics{
		duration:   duration,
		success:    success,
		failure:    failure,
		pushEvents: pushEvents,
		dispatches: dispatches,
	}
}

// ObserveDuration records the duration for the named job.
func (m *SyncMetrics) ObserveDuration(job string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (m *SyncMetrics) IncSuccess(job string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (m *SyncMetrics) IncFailure(job string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncPushEvent counts one push event of the given classified type.
func (m *SyncMetrics) IncPushEvent(eventType string) {
	if m == nil || m.pushEvents == nil {
		return
	}
	m.pushEvents.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// ObserveDispatch implements store.DispatchObserver.
func (m *SyncMetrics) ObserveDispatch(action string, changed bool) {
	if m == nil || m.dispatches == nil {
		return
	}
	m.dispatches.WithLabelValues(normalizeLabel(action), strconv.FormatBool(changed)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
