package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter or histogram.
type MetricID uint16

const (
	MetricPlaybackIssued MetricID = iota
	MetricPlaybackInvalidInput
	MetricPlaybackUnauthenticated
	MetricPlaybackForbidden
	MetricPlaybackRateLimited
	MetricPlaybackUpstreamFailure
	MetricPlaybackVerified
	MetricPlaybackVerifyFailed
	MetricRateLimitHit
	MetricRateLimitStoreFailure
	MetricAccessKeyGenerated
	MetricAccessKeyValidated
	MetricAccessKeyRejected
	MetricWebhookAllowed
	MetricWebhookDenied
	MetricWebhookUpstreamFailure
	MetricSignLatency
	MetricIDCount
)

const (
	HistogramBucketCount = 8
	cacheLineSize        = 64
)

type histogram struct {
	buckets [HistogramBucketCount]uint64
	sumNs   uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Config enables collection.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

// Metrics holds every counter and histogram. A nil *Metrics is a valid no-op.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [MetricIDCount]paddedCounter
	histograms    [MetricIDCount]histogram
}

// Snapshot is a point-in-time copy. Histogram buckets are non-cumulative.
type Snapshot struct {
	Counters      map[MetricID]uint64
	Histograms    map[MetricID][]uint64
	HistogramSums map[MetricID]time.Duration
}

func New(cfg Config) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatency,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in histogram id. Only latency metrics accept observations.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricSignLatency {
		return
	}
	if d < 0 {
		d = 0
	}
	atomic.AddUint64(&m.histograms[id].buckets[BucketIndex(d)], 1)
	atomic.AddUint64(&m.histograms[id].sumNs, uint64(d))
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Counters:      map[MetricID]uint64{},
		Histograms:    map[MetricID][]uint64{},
		HistogramSums: map[MetricID]time.Duration{},
	}
	if m == nil || !m.enabled {
		return s
	}

	for id := MetricID(0); id < MetricIDCount; id++ {
		if id == MetricSignLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		h := &m.histograms[MetricSignLatency]
		buckets := make([]uint64, HistogramBucketCount)
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&h.buckets[i])
		}
		s.Histograms[MetricSignLatency] = buckets
		s.HistogramSums[MetricSignLatency] = time.Duration(atomic.LoadUint64(&h.sumNs))
	}

	return s
}

// BucketIndex maps d onto the fixed millisecond buckets
// 5, 10, 25, 50, 100, 250, 500, +Inf.
func BucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
