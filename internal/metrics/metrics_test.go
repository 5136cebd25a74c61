package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"HTTPRequestsTotal", HTTPRequestsTotal},
		{"HTTPRequestDuration", HTTPRequestDuration},
		{"HTTPRequestsInFlight", HTTPRequestsInFlight},
		{"DBQueryTotal", DBQueryTotal},
		{"DBQueryDuration", DBQueryDuration},
		{"DBTransactionDuration", DBTransactionDuration},
		{"DBRowsUpserted", DBRowsUpserted},
		{"ScansTotal", ScansTotal},
		{"ScanDuration", ScanDuration},
		{"ScanItems", ScanItems},
		{"ScanInProgress", ScanInProgress},
		{"CacheLookupsTotal", CacheLookupsTotal},
		{"ScanSkippedItems", ScanSkippedItems},
		{"ThumbnailGenerationsTotal", ThumbnailGenerationsTotal},
		{"ThumbnailGenerationDuration", ThumbnailGenerationDuration},
		{"ThumbnailWorkersBusy", ThumbnailWorkersBusy},
		{"ThumbnailBytes", ThumbnailBytes},
		{"FilesystemOperationDuration", FilesystemOperationDuration},
		{"FilesystemOperationErrors", FilesystemOperationErrors},
		{"FilesystemRetryAttempts", FilesystemRetryAttempts},
		{"FilesystemStaleErrors", FilesystemStaleErrors},
		{"AppInfo", AppInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestInitializeMetricsExportsLabels(t *testing.T) {
	InitializeMetrics()

	if n := testutil.CollectAndCount(ScansTotal); n < 3 {
		t.Errorf("ScansTotal exports %d series, want >= 3", n)
	}
	if n := testutil.CollectAndCount(CacheLookupsTotal); n < 3 {
		t.Errorf("CacheLookupsTotal exports %d series, want >= 3", n)
	}
	if n := testutil.CollectAndCount(ThumbnailGenerationsTotal); n < 5 {
		t.Errorf("ThumbnailGenerationsTotal exports %d series, want >= 5", n)
	}
}

func TestFilesystemObserverRecords(t *testing.T) {
	obs := NewFilesystemObserver()

	beforeErrs := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("readdir"))
	obs.ObserveOperation("readdir", 0.001, errors.New("permission denied"))
	obs.ObserveOperation("readdir", 0.001, nil)
	afterErrs := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("readdir"))
	if afterErrs-beforeErrs != 1 {
		t.Errorf("readdir errors increased by %v, want 1", afterErrs-beforeErrs)
	}

	beforeRetries := testutil.ToFloat64(FilesystemRetryAttempts.WithLabelValues("stat"))
	obs.ObserveRetryAttempt("stat")
	if got := testutil.ToFloat64(FilesystemRetryAttempts.WithLabelValues("stat")) - beforeRetries; got != 1 {
		t.Errorf("stat retries increased by %v, want 1", got)
	}

	beforeStale := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("stat"))
	obs.ObserveStaleError("stat")
	if got := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("stat")) - beforeStale; got != 1 {
		t.Errorf("stale errors increased by %v, want 1", got)
	}
}

func TestMetricNamesPrefixed(t *testing.T) {
	collectors := []prometheus.Collector{
		ScansTotal, CacheLookupsTotal, ThumbnailGenerationsTotal, DBQueryTotal, HTTPRequestsTotal,
	}
	for _, c := range collectors {
		ch := make(chan *prometheus.Desc, 4)
		c.Describe(ch)
		close(ch)
		for desc := range ch {
			if !strings.Contains(desc.String(), `fqName: "gallery_viewer_`) {
				t.Errorf("metric not prefixed with gallery_viewer_: %s", desc.String())
			}
		}
	}
}
