package metrics

import (
	"sync"
	"time"
)

const emaAlpha = 0.3
const emaWindow = time.Second

// OverallProgress is the aggregated view across all steps (spec §3).
type OverallProgress struct {
	TotalSteps            int
	CompletedSteps        int
	CurrentStepIndex      int
	CurrentStepName       string
	ProgressRatio         float64
	EstimatedRemainingMs  int64
	ElapsedMs             int64
	TotalItemsProcessed   int64
	AverageThroughput     float64
	StartedAt             time.Time
	CompletedAt           *time.Time
	IsComplete            bool
	HasFailed             bool
	TotalErrors           int64
}

// ProgressTracker observes step lifecycle events and maintains
// rolling throughput EMAs (alpha=0.3, 1s window) and an ETA (spec
// §4.5). A sampling rate k > 1 records only the first event of every
// group of k, scaling counters by k — including the last, possibly partial, group of
// events (spec §9 open question 3, preserved verbatim).
type ProgressTracker struct {
	mu sync.Mutex

	totalSteps     int
	stepNames      []string
	currentIndex   int
	completedSteps int

	startedAt   time.Time
	completedAt *time.Time
	isComplete  bool
	hasFailed   bool

	totalItems  int64
	totalErrors int64

	inputEMA, outputEMA float64
	lastEMAUpdate       time.Time
	windowInput         int64
	windowOutput        int64

	samplingRate int
	eventCount   int64
}

// NewProgressTracker creates a tracker for a pipeline with totalSteps
// steps. samplingRate <= 1 records every event.
func NewProgressTracker(totalSteps int, samplingRate int) *ProgressTracker {
	if samplingRate < 1 {
		samplingRate = 1
	}
	return &ProgressTracker{
		totalSteps:   totalSteps,
		samplingRate: samplingRate,
	}
}

// PipelineStarted records the pipeline start time.
func (t *ProgressTracker) PipelineStarted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startedAt = time.Now()
	t.lastEMAUpdate = t.startedAt
}

// StepStarted advances the current step pointer.
func (t *ProgressTracker) StepStarted(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stepNames = append(t.stepNames, name)
	t.currentIndex = len(t.stepNames) - 1
}

// sampled reports whether this call should be recorded, given the
// sampling rate, and advances the internal event counter.
func (t *ProgressTracker) sampled() bool {
	sample := t.eventCount%int64(t.samplingRate) == 0
	t.eventCount++
	return sample
}

// RecordItemProcessed records one (or samplingRate, when sampled)
// input items consumed.
func (t *ProgressTracker) RecordItemProcessed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.sampled() {
		return
	}
	t.windowInput += int64(t.samplingRate)
	t.rollEMA()
}

// RecordItemYielded records one (or samplingRate) output items
// produced.
func (t *ProgressTracker) RecordItemYielded() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.sampled() {
		return
	}
	t.windowOutput += int64(t.samplingRate)
	t.totalItems += int64(t.samplingRate)
	t.rollEMA()
}

// RecordInFlight is a no-op hook kept for symmetry with the spec's
// event list; in-flight accounting lives in MetadataCollector.
func (t *ProgressTracker) RecordInFlight(int64) {}

// rollEMA updates the rolling input/output rate EMAs once per
// emaWindow, smoothing with emaAlpha.
func (t *ProgressTracker) rollEMA() {
	now := time.Now()
	elapsed := now.Sub(t.lastEMAUpdate)
	if elapsed < emaWindow {
		return
	}
	seconds := elapsed.Seconds()
	inputRate := float64(t.windowInput) / seconds
	outputRate := float64(t.windowOutput) / seconds

	t.inputEMA = emaAlpha*inputRate + (1-emaAlpha)*t.inputEMA
	t.outputEMA = emaAlpha*outputRate + (1-emaAlpha)*t.outputEMA

	t.windowInput = 0
	t.windowOutput = 0
	t.lastEMAUpdate = now
}

// StepCompleted marks the current step done.
func (t *ProgressTracker) StepCompleted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completedSteps++
}

// StepError marks a step error without terminating the tracker.
func (t *ProgressTracker) StepError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalErrors++
}

// PipelineCompleted marks the whole pipeline finished successfully.
func (t *ProgressTracker) PipelineCompleted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.completedAt = &now
	t.isComplete = true
}

// PipelineError marks the whole pipeline finished with a fatal error.
func (t *ProgressTracker) PipelineError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.completedAt = &now
	t.isComplete = true
	t.hasFailed = true
	t.totalErrors++
}

// Snapshot returns an atomic OverallProgress view (spec §5).
func (t *ProgressTracker) Snapshot() OverallProgress {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Duration(0)
	if !t.startedAt.IsZero() {
		if t.completedAt != nil {
			elapsed = t.completedAt.Sub(t.startedAt)
		} else {
			elapsed = time.Since(t.startedAt)
		}
	}

	ratio := 0.0
	if t.totalSteps > 0 {
		ratio = float64(t.completedSteps) / float64(t.totalSteps)
		if !t.isComplete && t.currentIndex < t.totalSteps && t.completedSteps < t.totalSteps {
			// A Running step contributes at most 0.9 of its equal
			// share, to avoid spurious near-done signals (spec
			// §4.5 ETA).
			ratio += 0.9 * (1.0 / float64(t.totalSteps))
			if ratio > 1 {
				ratio = 1
			}
		}
	}
	if t.isComplete {
		ratio = 1
	}

	var etaMs int64
	if ratio > 0 && ratio < 1 {
		total := elapsed.Seconds() / ratio
		remaining := total - elapsed.Seconds()
		if remaining < 0 {
			remaining = 0
		}
		etaMs = int64(remaining * 1000)
	}

	throughput := 0.0
	if elapsed.Seconds() > 0 {
		throughput = float64(t.totalItems) / elapsed.Seconds()
	}

	currentName := ""
	if t.currentIndex < len(t.stepNames) {
		currentName = t.stepNames[t.currentIndex]
	}

	return OverallProgress{
		TotalSteps:           t.totalSteps,
		CompletedSteps:       t.completedSteps,
		CurrentStepIndex:     t.currentIndex,
		CurrentStepName:      currentName,
		ProgressRatio:        ratio,
		EstimatedRemainingMs: etaMs,
		ElapsedMs:            elapsed.Milliseconds(),
		TotalItemsProcessed:  t.totalItems,
		AverageThroughput:    throughput,
		StartedAt:            t.startedAt,
		CompletedAt:          t.completedAt,
		IsComplete:           t.isComplete,
		HasFailed:            t.hasFailed,
		TotalErrors:          t.totalErrors,
	}
}
