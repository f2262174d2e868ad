package flow

import (
	"time"
)

// abandonTimeout bounds how long BufferTime's background puller will
// wait to hand a pulled item to an idle consumer before giving up and
// releasing its upstream, mirroring the teacher's Tee/Split
// abandonment idiom (filters.go) — Go's pull-closure model has no
// drop/finally hook, so a bounded wait is the idiomatic stand-in for
// "cancel on drop".
const abandonTimeout = 5 * time.Second

type timedItem[T any] struct {
	item T
	err  error
}

// BufferTime emits a slice once either windowMs has elapsed since the
// first item entered an empty buffer, or maxSize items have
// accumulated, whichever comes first. An empty buffer never emits. On
// upstream exhaustion any non-empty residual is emitted once; the
// clock is injectable for deterministic tests (spec §9).
func BufferTime[T any](windowMs int, maxSize *int, clock Clock) Operator[T, []T] {
	if clock == nil {
		clock = RealClock
	}
	if windowMs <= 0 {
		return func(Sequence[T]) Sequence[[]T] {
			return func() ([]T, error) {
				var zero []T
				return zero, errNonPositiveMs
			}
		}
	}

	return func(in Sequence[T]) Sequence[[]T] {
		items := make(chan timedItem[T], 1)

		go func() {
			defer close(items)
			for {
				item, err := in()
				select {
				case items <- timedItem[T]{item: item, err: err}:
					if err != nil {
						return
					}
				case <-time.After(abandonTimeout):
					return
				}
			}
		}()

		upstreamDone := false
		var pendingErr error

		return func() ([]T, error) {
			if upstreamDone {
				var zero []T
				if pendingErr != nil {
					return zero, pendingErr
				}
				return zero, EOS
			}

			var buf []T
			var timer Timer
			defer func() {
				if timer != nil {
					timer.Stop()
				}
			}()

			for {
				var timerC <-chan time.Time
				if timer != nil {
					timerC = timer.C()
				}

				select {
				case ti, ok := <-items:
					if !ok {
						upstreamDone = true
						if len(buf) > 0 {
							return buf, nil
						}
						return nil, EOS
					}
					if ti.err != nil {
						upstreamDone = true
						pendingErr = ti.err
						if len(buf) > 0 {
							return buf, nil
						}
						if ti.err == EOS {
							return nil, EOS
						}
						return nil, ti.err
					}
					buf = append(buf, ti.item)
					if timer == nil {
						timer = clock.NewTimer(time.Duration(windowMs) * time.Millisecond)
					}
					if maxSize != nil && len(buf) >= *maxSize {
						return buf, nil
					}
				case <-timerC:
					return buf, nil
				}
			}
		}
	}
}
