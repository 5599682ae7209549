package playgate

import (
	"context"
	"testing"
	"time"
)

func TestMetricsDisabledEngineStaysZero(t *testing.T) {
	te := newTestEngine(t, func(_ *Builder, cfg *Config) {
		cfg.Metrics.Enabled = false
	})
	te.oracle.Grant("0xviewer")

	if _, err := te.IssuePlaybackAuthorization(context.Background(), PlaybackRequest{PlaybackID: "abc", UserAddress: "0xviewer", ClientAddr: "ip"}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	snap := te.MetricsSnapshot()
	if got := snap.Counters[MetricPlaybackIssued]; got != 0 {
		t.Fatalf("expected disabled metrics to stay zero, got %d", got)
	}
}

func TestMetricsPlaybackOutcomes(t *testing.T) {
	te := newTestEngine(t)
	te.oracle.Grant("0xviewer")
	ctx := context.Background()

	_, _ = te.IssuePlaybackAuthorization(ctx, PlaybackRequest{UserAddress: "0xviewer", ClientAddr: "ip"})
	_, _ = te.IssuePlaybackAuthorization(ctx, PlaybackRequest{PlaybackID: "abc", ClientAddr: "ip"})
	_, _ = te.IssuePlaybackAuthorization(ctx, PlaybackRequest{PlaybackID: "abc", UserAddress: "0xstranger", ClientAddr: "ip"})
	_, _ = te.IssuePlaybackAuthorization(ctx, PlaybackRequest{PlaybackID: "abc", UserAddress: "0xviewer", ClientAddr: "ip"})
	_, _ = te.VerifyPlaybackAuthorization(ctx, "not-a-token")

	snap := te.MetricsSnapshot()
	want := map[MetricID]uint64{
		MetricPlaybackInvalidInput:    1,
		MetricPlaybackUnauthenticated: 1,
		MetricPlaybackForbidden:       1,
		MetricPlaybackIssued:          1,
		MetricPlaybackVerifyFailed:    1,
	}
	for id, n := range want {
		if got := snap.Counters[id]; got != n {
			t.Errorf("metric %d: expected %d, got %d", id, n, got)
		}
	}

	var observed uint64
	for _, c := range snap.Histograms[MetricSignLatency] {
		observed += c
	}
	if observed != 1 {
		t.Fatalf("expected one latency observation, got %d", observed)
	}
	if snap.HistogramSums[MetricSignLatency] <= 0 || snap.HistogramSums[MetricSignLatency] > time.Minute {
		t.Fatalf("implausible latency sum %v", snap.HistogramSums[MetricSignLatency])
	}
}

func TestNilEngineMetricsSnapshot(t *testing.T) {
	var e *Engine
	snap := e.MetricsSnapshot()
	if snap.Counters == nil || snap.Histograms == nil {
		t.Fatal("expected empty maps from nil engine")
	}
}
