// Package stats keeps rolling-window aggregates of chunking calls.
package stats

import (
	"slices"
	"sync"
	"time"
)

// Sample is the outcome of one chunking call.
type Sample struct {
	Strategy string
	Duration time.Duration
	Chunks   int
	Failed   bool
}

type sample struct {
	Sample
	timestamp time.Time
}

// Latency is a point-in-time aggregate of call durations.
type Latency struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// Snapshot aggregates every sample still inside the window.
type Snapshot struct {
	Window     string             `json:"window"`
	Requests   int                `json:"requests"`
	Failures   int                `json:"failures"`
	Chunks     int                `json:"chunks"`
	Latency    Latency            `json:"latency"`
	ByStrategy map[string]Latency `json:"by_strategy"`
}

// Recorder tracks recent chunking calls within a rolling window.
type Recorder struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
	now     func() time.Time
}

func NewRecorder(maxAge time.Duration) *Recorder {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Recorder{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

func (r *Recorder) Record(s Sample) {
	if s.Duration < 0 {
		s.Duration = 0
	}
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked(now)
	r.samples = append(r.samples, sample{Sample: s, timestamp: now})
}

func (r *Recorder) Snapshot() Snapshot {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked(now)
	snap := Snapshot{
		Window:     r.maxAge.String(),
		ByStrategy: make(map[string]Latency),
	}
	if len(r.samples) == 0 {
		return snap
	}

	all := make([]int64, 0, len(r.samples))
	per := make(map[string][]int64)
	for _, sm := range r.samples {
		ms := sm.Duration.Milliseconds()
		all = append(all, ms)
		per[sm.Strategy] = append(per[sm.Strategy], ms)
		snap.Chunks += sm.Chunks
		if sm.Failed {
			snap.Failures++
		}
	}
	snap.Requests = len(r.samples)
	snap.Latency = aggregate(all)
	for name, values := range per {
		snap.ByStrategy[name] = aggregate(values)
	}
	return snap
}

func (r *Recorder) pruneLocked(now time.Time) {
	cutoff := now.Add(-r.maxAge)
	writeIdx := 0
	for _, sm := range r.samples {
		if !sm.timestamp.Before(cutoff) {
			r.samples[writeIdx] = sm
			writeIdx++
		}
	}
	r.samples = r.samples[:writeIdx]
}

func aggregate(values []int64) Latency {
	if len(values) == 0 {
		return Latency{}
	}
	slices.Sort(values)
	var sum int64
	for _, v := range values {
		sum += v
	}
	return Latency{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
