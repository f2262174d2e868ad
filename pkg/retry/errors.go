// Package retry implements per-item retry with backoff and the three
// error-propagation strategies, plus uniform error enrichment (spec
// §4.3, §7).
package retry

import (
	"fmt"

	"github.com/google/uuid"
)

// Code classifies a StreamError per the taxonomy in spec §7.
type Code string

const (
	CodeValidation Code = "validation" // invalid parameter; always fatal, never retried
	CodeTransient  Code = "transient"  // matches the retryable predicate; retried per policy
	CodePermanent  Code = "permanent"  // non-retryable user/domain failure
	CodeCancelled  Code = "cancelled"  // caused by explicit cancellation
	CodeInternal   Code = "internal"   // invariant violation; aborts the pipeline
)

// ItemMetadata is attached by the error/metrics layer, never by pure
// operators (spec §3).
type ItemMetadata struct {
	StepName   string
	ItemIndex  int
	DurationMs int64
	TraceID    string
	SpanID     string
}

// StreamError is the enriched error type flowing out of the retry
// and strategy layers (spec §3, §7).
type StreamError struct {
	Code       Code
	Message    string
	StepName   string
	ItemIndex  *int
	Retryable  bool
	Cause      error
	TraceID    string
	SpanID     string
}

func (e *StreamError) Error() string {
	if e.ItemIndex != nil {
		return fmt.Sprintf("%s: step %q item %d: %s", e.Code, e.StepName, *e.ItemIndex, e.Message)
	}
	return fmt.Sprintf("%s: step %q: %s", e.Code, e.StepName, e.Message)
}

func (e *StreamError) Unwrap() error { return e.Cause }

// NewTraceID mints a fresh trace id, stable for the lifetime of one
// pipeline run.
func NewTraceID() string { return uuid.NewString() }

// NewSpanID mints a fresh span id, minted new per item.
func NewSpanID() string { return uuid.NewString() }

// Enrich wraps cause into a StreamError, filling in step/item/trace/
// span identity if not already set (spec §7 "Enrichment"). retryable
// must be the same classification the caller already used to decide
// whether to retry (via IsRetryable against its own allow-list), so
// the resulting StreamError.Retryable never disagrees with Code.
func Enrich(cause error, code Code, stepName string, itemIndex int, traceID string, retryable bool) *StreamError {
	if se, ok := cause.(*StreamError); ok {
		return se
	}
	idx := itemIndex
	return &StreamError{
		Code:      code,
		Message:   cause.Error(),
		StepName:  stepName,
		ItemIndex: &idx,
		Retryable: retryable,
		Cause:     cause,
		TraceID:   traceID,
		SpanID:    NewSpanID(),
	}
}

// RetryAttemptError records one failed attempt inside RetryMetadata.
type RetryAttemptError struct {
	Attempt    int
	Error      error
	DurationMs int64
}

// RetryMetadata summarises the retry history of a single item (spec
// §3, invariant 6).
type RetryMetadata struct {
	Attempts        int
	Succeeded       bool
	TotalDurationMs int64
	Errors          []RetryAttemptError
}

// StreamResult is the sum type used only by the WrapErrors strategy
// (spec §3).
type StreamResult[T any] struct {
	Ok            bool
	Data          T
	Err           *StreamError
	Meta          ItemMetadata
	RetryMetadata RetryMetadata
}
