package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/playgate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

type fakeSource struct {
	snapshot playgate.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() playgate.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                      { return f.dropped }

func gather(t *testing.T, src fakeSource) map[string]*dto.MetricFamily {
	t.Helper()
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollectorFromSource(src)); err != nil {
		t.Fatalf("register: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestCollectorDisabledMetricsOnlyAuditDropped(t *testing.T) {
	families := gather(t, fakeSource{
		snapshot: playgate.MetricsSnapshot{
			Counters:   map[playgate.MetricID]uint64{},
			Histograms: map[playgate.MetricID][]uint64{},
		},
	})
	if len(families) != 1 || families["playgate_audit_dropped_total"] == nil {
		t.Fatalf("expected only the audit dropped counter, got %d families", len(families))
	}
}

func TestCollectorCountersAndHistogram(t *testing.T) {
	families := gather(t, fakeSource{
		snapshot: playgate.MetricsSnapshot{
			Counters: map[playgate.MetricID]uint64{
				playgate.MetricPlaybackIssued: 7,
				playgate.MetricRateLimitHit:   2,
			},
			Histograms: map[playgate.MetricID][]uint64{
				playgate.MetricSignLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
			HistogramSums: map[playgate.MetricID]time.Duration{
				playgate.MetricSignLatency: 1500 * time.Millisecond,
			},
		},
		dropped: 3,
	})

	if got := families["playgate_playback_issued_total"].GetMetric()[0].GetCounter().GetValue(); got != 7 {
		t.Fatalf("expected issued 7, got %v", got)
	}
	if got := families["playgate_rate_limit_hit_total"].GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected rate limit hits 2, got %v", got)
	}
	if got := families["playgate_audit_dropped_total"].GetMetric()[0].GetCounter().GetValue(); got != 3 {
		t.Fatalf("expected dropped 3, got %v", got)
	}

	h := families["playgate_sign_latency_seconds"].GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 36 {
		t.Fatalf("expected 36 samples, got %d", h.GetSampleCount())
	}
	if h.GetSampleSum() != 1.5 {
		t.Fatalf("expected sum 1.5s, got %v", h.GetSampleSum())
	}
	b := h.GetBucket()
	if len(b) != 7 || b[0].GetUpperBound() != 0.005 || b[0].GetCumulativeCount() != 1 || b[6].GetCumulativeCount() != 28 {
		t.Fatalf("unexpected buckets %v", b)
	}
}

func TestHandlerServesEngineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollectorFromSource(fakeSource{
		snapshot: playgate.MetricsSnapshot{
			Counters: map[playgate.MetricID]uint64{playgate.MetricWebhookAllowed: 4},
		},
	}))
	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "playgate_webhook_allowed_total 4") {
		t.Fatalf("expected webhook counter in output, got:\n%s", body)
	}
}

func TestHandlerWithNilEngine(t *testing.T) {
	h, err := Handler(nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "playgate_audit_dropped_total 0") {
		t.Fatalf("unexpected response %d:\n%s", rec.Code, rec.Body.String())
	}
}
