package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestSyncMetricsExportsJobCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewSyncMetrics(reg)
	job := "order-status-poll"
	metrics.ObserveDuration(job, 250*time.Millisecond)
	metrics.IncSuccess(job)
	metrics.IncFailure(job)
	metrics.IncFailure("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "storefront_sync_job_success_total", map[string]string{"job": job}); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "storefront_sync_job_failure_total", map[string]string{"job": "unknown"}); err != nil {
		t.Fatalf("fetch unlabeled failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1 for unknown job, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "storefront_sync_job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestSyncMetricsPushAndDispatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewSyncMetrics(reg)
	metrics.IncPushEvent("delivery_update")
	metrics.IncPushEvent("delivery_update")
	metrics.ObserveDispatch("AddNotification", true)
	metrics.ObserveDispatch("AddNotification", false)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_sync_push_events_total", map[string]string{"type": "delivery_update"}); err != nil || got != 2 {
		t.Fatalf("expected 2 push events, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_sync_store_dispatches_total", map[string]string{"action": "AddNotification", "changed": "false"}); err != nil || got != 1 {
		t.Fatalf("expected 1 no-op dispatch, got %f err=%v", got, err)
	}
}

func TestNilRegistererDropsEverything(t *testing.T) {
	metrics := NewSyncMetrics(nil)
	metrics.IncSuccess("job")
	metrics.ObserveDispatch("Logout", true)

	var nilMetrics *SyncMetrics
	nilMetrics.IncPushEvent("offer")
	nilMetrics.ObserveDuration("job", time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), map[string]string{label: value}) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
