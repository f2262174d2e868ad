// Package metrics implements the observability layer: a bounded-
// memory latency sketch, a per-step metadata collector, a progress
// tracker with rolling throughput EMAs and ETA, and an isolating
// event bus (spec §4.5).
package metrics

import (
	"sync"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
)

// PercentileSketch is the bounded-memory quantile collaborator
// interface spec §9 calls for ("insert(sample), quantile(q),
// merge(other); choose any correct bounded implementation"). It is
// backed by github.com/HdrHistogram/hdrhistogram-go rather than a
// hand-rolled t-digest (grounded on gravitational-teleport's go.mod,
// see DESIGN.md).
type PercentileSketch struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

// NewPercentileSketch creates a sketch covering [1, maxValueMs] at
// the given number of significant value digits (1-5). A 100k-item
// latency workload up to an hour stays comfortably within a few
// hundred KB regardless of sample count, satisfying the spec's
// memory bound.
func NewPercentileSketch(maxValueMs int64, sigDigits int) *PercentileSketch {
	if maxValueMs <= 0 {
		maxValueMs = 3_600_000 // 1 hour
	}
	if sigDigits <= 0 || sigDigits > 5 {
		sigDigits = 3
	}
	return &PercentileSketch{
		hist: hdrhistogram.New(1, maxValueMs, sigDigits),
	}
}

// Insert records one latency sample in milliseconds.
func (s *PercentileSketch) Insert(sampleMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sampleMs < 1 {
		sampleMs = 1
	}
	_ = s.hist.RecordValue(sampleMs)
}

// Quantile returns the value at percentile p (0-100). Snapshot
// retrieval is O(buckets), well under 1ms for typical workloads.
func (s *PercentileSketch) Quantile(p float64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.ValueAtPercentile(p)
}

// Percentiles returns p50/p95/p99 in one call (spec §4.5, §8.12:
// p50 <= p95 <= p99, each within [min, max]).
func (s *PercentileSketch) Percentiles() (p50, p95, p99 int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.ValueAtPercentile(50), s.hist.ValueAtPercentile(95), s.hist.ValueAtPercentile(99)
}

// Min returns the minimum recorded sample.
func (s *PercentileSketch) Min() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Min()
}

// Max returns the maximum recorded sample.
func (s *PercentileSketch) Max() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Max()
}

// Merge folds other's samples into s, for combining per-worker
// sketches.
func (s *PercentileSketch) Merge(other *PercentileSketch) {
	other.mu.Lock()
	snapshot := other.hist.Export()
	other.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.hist.Merge(hdrhistogram.Import(snapshot))
}
