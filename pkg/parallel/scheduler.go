// Package parallel implements the bounded-concurrency fan-out
// scheduler: ordered-by-input-position or unordered-by-completion
// delivery over a pull-based flow.Sequence, with backpressure and
// cooperative cancellation (spec §4.2).
package parallel

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/flowcore/engine/pkg/flow"
)

// Options configures ParallelMap. Concurrency must be >= 1. Ordered
// selects input-position delivery; unordered delivers in completion
// order.
type Options struct {
	Concurrency int
	Ordered     bool
}

var errConcurrency = errors.New("parallel: concurrency must be >= 1")

type indexed[T any] struct {
	index int
	value T
	err   error
}

// ParallelMap fans fn out across up to opts.Concurrency concurrent
// goroutines managed by an errgroup, pulling the next upstream item
// only when a task slot is free. Ordered mode reorders completions
// back into input-position order using a reorder buffer bounded by
// the concurrency limit (spec §4.2, invariant "in-flight <=
// concurrency"); unordered mode has no reorder buffer and yields in
// completion order.
func ParallelMap[T, U any](in flow.Sequence[T], fn func(context.Context, T) (U, error), opts Options) flow.Sequence[U] {
	if opts.Concurrency < 1 {
		return func() (U, error) {
			var zero U
			return zero, errConcurrency
		}
	}
	if opts.Ordered {
		return orderedParallelMap(in, fn, opts.Concurrency)
	}
	return unorderedParallelMap(in, fn, opts.Concurrency)
}

// unorderedParallelMap delivers results as soon as they complete.
func unorderedParallelMap[T, U any](in flow.Sequence[T], fn func(context.Context, T) (U, error), concurrency int) flow.Sequence[U] {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	results := make(chan indexed[U], concurrency)
	done := make(chan struct{})

	go func() {
		defer close(results)
		index := 0
		for {
			item, err := in()
			if err != nil {
				if err != flow.EOS {
					select {
					case results <- indexed[U]{index: -1, err: err}:
					case <-done:
					}
				}
				break
			}
			idx := index
			index++
			select {
			case <-gctx.Done():
				goto drain
			default:
			}
			g.Go(func() error {
				val, ferr := fn(gctx, item)
				select {
				case results <- indexed[U]{index: idx, value: val, err: ferr}:
				case <-done:
				}
				if ferr != nil {
					return ferr
				}
				return nil
			})
		}
	drain:
		g.Wait()
	}()

	closed := false
	return func() (U, error) {
		var zero U
		if closed {
			return zero, flow.EOS
		}
		r, ok := <-results
		if !ok {
			closed = true
			close(done)
			cancel()
			return zero, flow.EOS
		}
		if r.err != nil {
			closed = true
			close(done)
			cancel()
			return zero, r.err
		}
		return r.value, nil
	}
}

// orderedParallelMap delivers results in ascending input-index order,
// holding out-of-order completions in a reorder buffer.
func orderedParallelMap[T, U any](in flow.Sequence[T], fn func(context.Context, T) (U, error), concurrency int) flow.Sequence[U] {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	results := make(chan indexed[U], concurrency)
	// A slot is held from the pull of an item until its result is
	// yielded, so in-flight tasks plus buffered results never exceed
	// concurrency.
	slots := make(chan struct{}, concurrency)

	go func() {
		defer close(results)
		index := 0
		for {
			select {
			case slots <- struct{}{}:
			case <-gctx.Done():
				goto drain
			}
			item, err := in()
			if err != nil {
				if err != flow.EOS {
					results <- indexed[U]{index: -1, err: err}
				}
				break
			}
			idx := index
			index++
			select {
			case <-gctx.Done():
				goto drain
			default:
			}
			g.Go(func() error {
				val, ferr := fn(gctx, item)
				results <- indexed[U]{index: idx, value: val, err: ferr}
				return ferr
			})
		}
	drain:
		g.Wait()
	}()

	buffer := make(map[int]indexed[U])
	nextIndex := 0
	closed := false
	fatalErr := error(nil)

	return func() (U, error) {
		var zero U
		if closed {
			if fatalErr != nil {
				return zero, fatalErr
			}
			return zero, flow.EOS
		}
		for {
			if r, ok := buffer[nextIndex]; ok {
				delete(buffer, nextIndex)
				nextIndex++
				if r.err != nil {
					closed = true
					fatalErr = r.err
					cancel()
					return zero, r.err
				}
				<-slots
				return r.value, nil
			}
			r, ok := <-results
			if !ok {
				closed = true
				cancel()
				return zero, flow.EOS
			}
			if r.index == -1 {
				closed = true
				fatalErr = r.err
				cancel()
				return zero, r.err
			}
			buffer[r.index] = r
		}
	}
}
