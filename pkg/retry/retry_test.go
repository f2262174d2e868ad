package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/flowcore/engine/pkg/flow"
)

func noSleep(time.Duration) {}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	fn := func(item int, idx int) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("rate limit hit")
		}
		return item * 2, nil
	}
	seq := WithRetry(flow.FromSlice([]int{5}), fn, RetryOptions{
		MaxAttempts: 5,
		BackoffMs:   1,
		StepName:    "double",
		Sleep:       noSleep,
	})
	got, err := flow.Collect(seq)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(got) != 1 || got[0] != 10 {
		t.Fatalf("expected [10], got %v", got)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithRetryExhaustsAttemptsOnPersistentTransientFailure(t *testing.T) {
	fn := func(item int, idx int) (int, error) {
		return 0, errors.New("rate limit hit")
	}
	seq := WithRetry(flow.FromSlice([]int{5}), fn, RetryOptions{
		MaxAttempts: 3,
		BackoffMs:   1,
		StepName:    "double",
		Sleep:       noSleep,
	})
	_, err := seq()
	var se *StreamError
	if !errors.As(err, &se) {
		t.Fatalf("expected a *StreamError, got %v", err)
	}
	if se.Code != CodeTransient {
		t.Errorf("expected CodeTransient, got %v", se.Code)
	}
}

func TestWithRetryNonRetryableFailsFirstAttempt(t *testing.T) {
	attempts := 0
	fn := func(item int, idx int) (int, error) {
		attempts++
		return 0, errors.New("bad input")
	}
	seq := WithRetry(flow.FromSlice([]int{5}), fn, RetryOptions{
		MaxAttempts: 5,
		BackoffMs:   1,
		StepName:    "double",
		Sleep:       noSleep,
	})
	_, err := seq()
	if err == nil {
		t.Fatal("expected an error")
	}
	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt for a non-retryable error, got %d", attempts)
	}
}

func TestWithErrorStrategyFailFast(t *testing.T) {
	fn := func(item int, idx int) (int, error) {
		if item == 3 {
			return 0, errors.New("boom")
		}
		return item, nil
	}
	seq := WithErrorStrategy(flow.FromSlice([]int{1, 2, 3, 4}), fn, FailFast, "step")
	_, err := flow.Collect(seq)
	if err == nil {
		t.Fatal("expected an error to terminate the sequence")
	}
}

func TestWithErrorStrategySkipFailed(t *testing.T) {
	fn := func(item int, idx int) (int, error) {
		if item == 3 {
			return 0, errors.New("boom")
		}
		return item, nil
	}
	seq := WithErrorStrategy(flow.FromSlice([]int{1, 2, 3, 4}), fn, SkipFailed, "step")
	got, err := flow.Collect(seq)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	expected := []int{1, 2, 4}
	if len(got) != len(expected) {
		t.Fatalf("expected %d items, got %d", len(expected), len(got))
	}
	for i, v := range got {
		if v != expected[i] {
			t.Errorf("position %d: expected %d, got %d", i, expected[i], v)
		}
	}
}

func TestMapWithRetryWrapErrors(t *testing.T) {
	fn := func(item int, idx int) (int, error) {
		if item == 2 {
			return 0, errors.New("rate limit")
		}
		return item * 10, nil
	}
	seq := MapWithRetry(flow.FromSlice([]int{1, 2, 3}), fn, RetryOptions{
		MaxAttempts: 2,
		BackoffMs:   1,
		StepName:    "mul",
		Sleep:       noSleep,
	}, WrapErrors)

	got, err := flow.Collect(seq)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results (including the failed one), got %d", len(got))
	}
	if !got[0].Ok || got[0].Data != 10 {
		t.Errorf("expected first result ok with data 10, got %+v", got[0])
	}
	if got[1].Ok {
		t.Errorf("expected second result to be an error, got %+v", got[1])
	}
	if got[1].RetryMetadata.Attempts != 2 {
		t.Errorf("expected 2 recorded attempts, got %d", got[1].RetryMetadata.Attempts)
	}
	if !got[2].Ok || got[2].Data != 30 {
		t.Errorf("expected third result ok with data 30, got %+v", got[2])
	}
}

func TestMapWithRetrySkipFailedOmitsItem(t *testing.T) {
	fn := func(item int, idx int) (int, error) {
		if item == 2 {
			return 0, errors.New("rate limit")
		}
		return item, nil
	}
	seq := MapWithRetry(flow.FromSlice([]int{1, 2, 3}), fn, RetryOptions{
		MaxAttempts: 1,
		BackoffMs:   1,
		StepName:    "step",
		Sleep:       noSleep,
	}, SkipFailed)

	got, err := flow.Collect(seq)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected the failed item to be omitted entirely, got %d results", len(got))
	}
}
