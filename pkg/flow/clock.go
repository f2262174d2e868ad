package flow

import "time"

// Clock abstracts wall-clock time and timers so that time-based
// operators (BufferTime) can be driven deterministically in tests,
// per spec §9 ("make the clock and sleeper injectable").
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer is the subset of time.Timer behaviour BufferTime needs.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
	Reset(d time.Duration)
}

// realClock is the production Clock backed by the time package.
type realClock struct{}

// RealClock is the default Clock used when none is supplied.
var RealClock Clock = realClock{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTimer(d time.Duration) Timer {
	t := time.NewTimer(d)
	return &realTimer{t: t}
}

type realTimer struct {
	t *time.Timer
}

func (r *realTimer) C() <-chan time.Time { return r.t.C }
func (r *realTimer) Stop() bool          { return r.t.Stop() }
func (r *realTimer) Reset(d time.Duration) {
	r.t.Reset(d)
}
