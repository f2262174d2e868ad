package metrics

import "testing"

func TestPercentileSketchOrdering(t *testing.T) {
	s := NewPercentileSketch(60_000, 3)
	for i := int64(1); i <= 1000; i++ {
		s.Insert(i)
	}
	p50, p95, p99 := s.Percentiles()
	if !(p50 <= p95 && p95 <= p99) {
		t.Fatalf("expected p50 <= p95 <= p99, got %d %d %d", p50, p95, p99)
	}
	if p50 < s.Min() || p99 > s.Max() {
		t.Fatalf("expected percentiles within [min, max]: got min=%d max=%d p50=%d p99=%d", s.Min(), s.Max(), p50, p99)
	}
}

func TestPercentileSketchClampsBelowOne(t *testing.T) {
	s := NewPercentileSketch(60_000, 3)
	s.Insert(0)
	s.Insert(-5)
	if s.Min() != 1 {
		t.Errorf("expected non-positive samples clamped to 1, got min=%d", s.Min())
	}
}

func TestPercentileSketchMerge(t *testing.T) {
	a := NewPercentileSketch(60_000, 3)
	b := NewPercentileSketch(60_000, 3)
	for i := int64(1); i <= 100; i++ {
		a.Insert(i)
	}
	for i := int64(101); i <= 200; i++ {
		b.Insert(i)
	}
	a.Merge(b)
	if a.Max() < 200 {
		t.Errorf("expected merged sketch max >= 200, got %d", a.Max())
	}
	if a.Min() > 1 {
		t.Errorf("expected merged sketch min <= 1, got %d", a.Min())
	}
}

func TestNewPercentileSketchDefaults(t *testing.T) {
	s := NewPercentileSketch(0, 0)
	s.Insert(500)
	if s.Min() != 500 || s.Max() != 500 {
		t.Errorf("expected a single sample to report as both min and max, got min=%d max=%d", s.Min(), s.Max())
	}
}
