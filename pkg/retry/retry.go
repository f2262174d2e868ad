package retry

import (
	"time"

	"github.com/flowcore/engine/pkg/flow"
)

// Sleeper abstracts the backoff wait so tests can run deterministically
// without real sleeps (spec §9).
type Sleeper func(time.Duration)

// RetryOptions configures WithRetry.
type RetryOptions struct {
	MaxAttempts      int
	BackoffMs        int64 // linear ramp: backoffMs * attempt (spec §4.3 — named "exponential" upstream, implemented linear; preserved as specified)
	RetryableErrors  []string
	StepName         string
	TraceID          string
	Sleep            Sleeper
}

// WithRetry calls fn(item, index) for each item, retrying on
// retryable errors with a linear backoff ramp until MaxAttempts is
// reached (spec §4.3).
func WithRetry[T, U any](in flow.Sequence[T], fn func(item T, index int) (U, error), opts RetryOptions) flow.Sequence[U] {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	index := 0
	return func() (U, error) {
		var zero U
		item, err := in()
		if err != nil {
			return zero, err
		}
		i := index
		index++

		attempt := 1
		for {
			out, ferr := fn(item, i)
			if ferr == nil {
				return out, nil
			}
			retryable := IsRetryable(ferr, opts.RetryableErrors)
			if !retryable || attempt >= opts.MaxAttempts {
				return zero, Enrich(ferr, classify(retryable), opts.StepName, i, opts.TraceID, retryable)
			}
			sleep(time.Duration(opts.BackoffMs*int64(attempt)) * time.Millisecond)
			attempt++
		}
	}
}

func classify(retryable bool) Code {
	if retryable {
		return CodeTransient
	}
	return CodePermanent
}

// ErrorStrategy selects how errors propagate across a step boundary
// (spec §4.3, §7).
type ErrorStrategy int

const (
	FailFast ErrorStrategy = iota
	SkipFailed
	WrapErrors
)

// WithErrorStrategy applies fn to every item and handles its errors
// according to strategy:
//   - FailFast: the first error terminates the sequence.
//   - SkipFailed: failing items are dropped silently.
//   - WrapErrors: handled like FailFast here, since this sequence
//     yields plain U values; MapWithRetry is the variant that yields a
//     StreamResult for every item, success or error.
func WithErrorStrategy[T, U any](in flow.Sequence[T], fn func(item T, index int) (U, error), strategy ErrorStrategy, stepName string) flow.Sequence[U] {
	index := 0
	return func() (U, error) {
		var zero U
		for {
			item, err := in()
			if err != nil {
				return zero, err
			}
			i := index
			index++

			out, ferr := fn(item, i)
			if ferr == nil {
				return out, nil
			}

			switch strategy {
			case FailFast:
				return zero, ferr
			case SkipFailed:
				continue
			default:
				return zero, ferr
			}
		}
	}
}

// MapWithRetry composes WithRetry and a WrapErrors-flavoured strategy,
// always returning a sequence of StreamResult enriched with
// RetryMetadata. Items dropped under SkipFailed after exhausting
// retries are omitted entirely (spec §4.3).
func MapWithRetry[T, U any](in flow.Sequence[T], fn func(item T, index int) (U, error), retryOpts RetryOptions, strategy ErrorStrategy) flow.Sequence[StreamResult[U]] {
	sleep := retryOpts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	index := 0
	return func() (StreamResult[U], error) {
		for {
			item, err := in()
			if err != nil {
				var zero StreamResult[U]
				return zero, err
			}
			i := index
			index++

			start := time.Now()
			meta := RetryMetadata{}
			attempt := 1
			var out U
			var lastErr error
			var retryable bool

			for {
				attemptStart := time.Now()
				out, lastErr = fn(item, i)
				attemptDur := time.Since(attemptStart).Milliseconds()
				if lastErr == nil {
					meta.Succeeded = true
					meta.Attempts = attempt
					meta.TotalDurationMs = time.Since(start).Milliseconds()
					return StreamResult[U]{
						Ok:   true,
						Data: out,
						Meta: ItemMetadata{
							StepName:   retryOpts.StepName,
							ItemIndex:  i,
							DurationMs: meta.TotalDurationMs,
							TraceID:    retryOpts.TraceID,
							SpanID:     NewSpanID(),
						},
						RetryMetadata: meta,
					}, nil
				}

				meta.Errors = append(meta.Errors, RetryAttemptError{
					Attempt:    attempt,
					Error:      lastErr,
					DurationMs: attemptDur,
				})

				retryable = IsRetryable(lastErr, retryOpts.RetryableErrors)
				if !retryable || attempt >= retryOpts.MaxAttempts {
					meta.Attempts = attempt
					meta.TotalDurationMs = time.Since(start).Milliseconds()
					break
				}
				sleep(time.Duration(retryOpts.BackoffMs*int64(attempt)) * time.Millisecond)
				attempt++
			}

			streamErr := Enrich(lastErr, classify(retryable), retryOpts.StepName, i, retryOpts.TraceID, retryable)

			switch strategy {
			case SkipFailed:
				continue
			case FailFast:
				var zero StreamResult[U]
				return zero, streamErr
			default: // WrapErrors
				return StreamResult[U]{
					Ok:  false,
					Err: streamErr,
					Meta: ItemMetadata{
						StepName:  retryOpts.StepName,
						ItemIndex: i,
						TraceID:   retryOpts.TraceID,
						SpanID:    streamErr.SpanID,
					},
					RetryMetadata: meta,
				}, nil
			}
		}
	}
}
