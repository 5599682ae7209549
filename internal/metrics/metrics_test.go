package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestDisabledMetricsAreNoOps(t *testing.T) {
	m := New(Config{})
	m.Inc(MetricPlaybackIssued)
	m.Observe(MetricSignLatency, time.Millisecond)
	if m.Value(MetricPlaybackIssued) != 0 {
		t.Fatal("disabled metrics must not count")
	}
	if s := m.Snapshot(); len(s.Counters) != 0 || len(s.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", s)
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricPlaybackIssued)
	nilMetrics.Observe(MetricSignLatency, time.Millisecond)
	_ = nilMetrics.Snapshot()
}

func TestConcurrentIncrements(t *testing.T) {
	m := New(Config{Enabled: true})
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Inc(MetricRateLimitHit)
			}
		}()
	}
	wg.Wait()
	if got := m.Value(MetricRateLimitHit); got != 3200 {
		t.Fatalf("expected 3200, got %d", got)
	}
}

func TestLatencyHistogram(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})
	m.Observe(MetricSignLatency, 3*time.Millisecond)
	m.Observe(MetricSignLatency, 40*time.Millisecond)
	m.Observe(MetricSignLatency, time.Second)
	m.Observe(MetricPlaybackIssued, time.Second)

	s := m.Snapshot()
	b := s.Histograms[MetricSignLatency]
	if len(b) != HistogramBucketCount {
		t.Fatalf("unexpected bucket count %d", len(b))
	}
	if b[0] != 1 || b[3] != 1 || b[7] != 1 {
		t.Fatalf("unexpected buckets %v", b)
	}
	if want := 1043 * time.Millisecond; s.HistogramSums[MetricSignLatency] != want {
		t.Fatalf("expected sum %v, got %v", want, s.HistogramSums[MetricSignLatency])
	}
	if _, ok := s.Counters[MetricSignLatency]; ok {
		t.Fatal("histogram id must not appear as a counter")
	}
}

func TestBucketIndexBoundaries(t *testing.T) {
	cases := map[time.Duration]int{
		0:                      0,
		5 * time.Millisecond:   0,
		6 * time.Millisecond:   1,
		25 * time.Millisecond:  2,
		100 * time.Millisecond: 4,
		500 * time.Millisecond: 6,
		501 * time.Millisecond: 7,
	}
	for d, want := range cases {
		if got := BucketIndex(d); got != want {
			t.Fatalf("BucketIndex(%v) = %d, want %d", d, got, want)
		}
	}
}
