package stats

import (
	"testing"
	"time"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestRecorderSnapshotPercentiles(t *testing.T) {
	r := NewRecorder(time.Hour)
	for _, d := range []int{100, 200, 300, 400, 500} {
		r.Record(Sample{Strategy: "paragraph", Duration: ms(d), Chunks: 2})
	}

	snap := r.Snapshot()
	if snap.Requests != 5 {
		t.Fatalf("expected requests=5, got %d", snap.Requests)
	}
	if snap.Chunks != 10 {
		t.Fatalf("expected chunks=10, got %d", snap.Chunks)
	}
	lat := snap.Latency
	if lat.MinMs != 100 || lat.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", lat.MinMs, lat.MaxMs)
	}
	if lat.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", lat.AvgMs)
	}
	if lat.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", lat.P50Ms)
	}
	if lat.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", lat.P95Ms)
	}
	if lat.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", lat.P99Ms)
	}
}

func TestRecorderGroupsByStrategy(t *testing.T) {
	r := NewRecorder(time.Hour)
	r.Record(Sample{Strategy: "sentence", Duration: ms(10)})
	r.Record(Sample{Strategy: "sentence", Duration: ms(30)})
	r.Record(Sample{Strategy: "heading_section", Duration: ms(5), Failed: true})

	snap := r.Snapshot()
	if snap.Failures != 1 {
		t.Fatalf("expected failures=1, got %d", snap.Failures)
	}
	if got := snap.ByStrategy["sentence"]; got.Count != 2 || got.AvgMs != 20 {
		t.Fatalf("expected sentence count=2 avg=20, got %+v", got)
	}
	if got := snap.ByStrategy["heading_section"]; got.Count != 1 {
		t.Fatalf("expected heading_section count=1, got %+v", got)
	}
}

func TestRecorderPrunesExpiredSamples(t *testing.T) {
	clock := time.Unix(1000, 0)
	r := NewRecorder(time.Minute)
	r.now = func() time.Time { return clock }

	r.Record(Sample{Strategy: "paragraph", Duration: ms(100)})
	clock = clock.Add(2 * time.Minute)

	snap := r.Snapshot()
	if snap.Requests != 0 {
		t.Fatalf("expected requests=0 after prune, got %d", snap.Requests)
	}

	r.Record(Sample{Strategy: "paragraph", Duration: ms(200)})
	snap = r.Snapshot()
	if snap.Requests != 1 {
		t.Fatalf("expected requests=1 for fresh sample, got %d", snap.Requests)
	}
	if snap.Latency.MinMs != 200 || snap.Latency.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%d max=%d", snap.Latency.MinMs, snap.Latency.MaxMs)
	}
	if snap.Window != "1m0s" {
		t.Fatalf("expected window=1m0s, got %s", snap.Window)
	}
}

func TestRecorderClampsNegativeDuration(t *testing.T) {
	r := NewRecorder(time.Hour)
	r.Record(Sample{Duration: -ms(10)})
	snap := r.Snapshot()
	if snap.Requests != 1 {
		t.Fatalf("expected requests=1, got %d", snap.Requests)
	}
	if snap.Latency.MinMs != 0 || snap.Latency.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.Latency.MinMs, snap.Latency.MaxMs)
	}
}
