package internaldefs

import (
	"strings"
	"testing"

	"github.com/MrEthical07/playgate"
)

func TestDefsCoverEveryCounter(t *testing.T) {
	seen := make(map[playgate.MetricID]bool)
	names := make(map[string]bool)
	for _, def := range CounterDefs {
		if seen[def.ID] {
			t.Fatalf("duplicate id %d", def.ID)
		}
		if names[def.Name] || !strings.HasPrefix(def.Name, "playgate_") || !strings.HasSuffix(def.Name, "_total") {
			t.Fatalf("bad counter name %q", def.Name)
		}
		seen[def.ID] = true
		names[def.Name] = true
	}
	for id := playgate.MetricID(0); id < playgate.MetricIDCount; id++ {
		if id == playgate.MetricSignLatency {
			continue
		}
		if !seen[id] {
			t.Errorf("metric %d has no exporter definition", id)
		}
	}
	if len(HistogramUpperBounds)+1 != playgate.HistogramBucketCount || len(HistogramBoundSuffix) != playgate.HistogramBucketCount {
		t.Fatal("bucket bounds do not match engine histogram")
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [playgate.HistogramBucketCount]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}
