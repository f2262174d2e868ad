package flow

import "errors"

// Validation-class errors (spec §7a): invalid parameters, always
// fatal, never retried.
var (
	errNegativeSkip  = errors.New("flow: skip: n must be >= 0")
	errNonPositiveN  = errors.New("flow: n must be > 0")
	errNonPositiveMs = errors.New("flow: window_ms must be > 0")
)
