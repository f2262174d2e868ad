// Package flow implements the lazy, pull-based sequence algebra at the
// core of the pipeline engine: a Sequence is consumer-driven — no work
// happens until the consumer calls it.
package flow

import (
	"errors"
)

// EOS signals a clean, exhausted end of stream.
var EOS = errors.New("flow: end of stream")

// Sequence is a pull-based, lazily evaluated source of T. Calling it
// advances the sequence by one item. EOS means exhausted; any other
// error is fatal and terminates the sequence.
type Sequence[T any] func() (T, error)

// Operator transforms a Sequence[In] into a Sequence[Out], pulling
// from upstream on demand.
type Operator[In, Out any] func(Sequence[In]) Sequence[Out]

// FromSlice builds a finite sequence over items, O(1) per pull.
func FromSlice[T any](items []T) Sequence[T] {
	i := 0
	return func() (T, error) {
		if i >= len(items) {
			var zero T
			return zero, EOS
		}
		item := items[i]
		i++
		return item, nil
	}
}

// FromChannel wraps a channel as a pull-based sequence (Go's analogue
// of an async iterable): closing ch signals EOS.
func FromChannel[T any](ch <-chan T) Sequence[T] {
	return func() (T, error) {
		item, ok := <-ch
		if !ok {
			var zero T
			return zero, EOS
		}
		return item, nil
	}
}

// FromGenerator adapts an arbitrary pull-based producer function into
// a Sequence. The generator must itself return EOS on exhaustion.
func FromGenerator[T any](generator func() (T, error)) Sequence[T] {
	return generator
}

// Range produces a sequence of int64 from start to end (exclusive),
// advancing by step. A zero or wrong-signed step yields an
// immediately-exhausted sequence.
func Range(start, end, step int64) Sequence[int64] {
	current := start
	return func() (int64, error) {
		if step == 0 || (step > 0 && current >= end) || (step < 0 && current <= end) {
			return 0, EOS
		}
		value := current
		current += step
		return value, nil
	}
}

// Collect consumes a sequence fully into a slice (the `to_array` sink).
// The caller accepts the memory cost.
func Collect[T any](seq Sequence[T]) ([]T, error) {
	var out []T
	for {
		item, err := seq()
		if err != nil {
			if errors.Is(err, EOS) {
				return out, nil
			}
			return out, err
		}
		out = append(out, item)
	}
}

// Reduce folds a sequence into a single accumulated value.
func Reduce[T, A any](seq Sequence[T], init A, fn func(A, T) A) (A, error) {
	acc := init
	for {
		item, err := seq()
		if err != nil {
			if errors.Is(err, EOS) {
				return acc, nil
			}
			return acc, err
		}
		acc = fn(acc, item)
	}
}

// ForEach drives a sequence to completion, invoking fn per item. This
// is the per-item consumption sink (spec §6).
func ForEach[T any](seq Sequence[T], fn func(T) error) error {
	for {
		item, err := seq()
		if err != nil {
			if errors.Is(err, EOS) {
				return nil
			}
			return err
		}
		if err := fn(item); err != nil {
			return err
		}
	}
}

// Pipe composes two operators into one.
func Pipe[A, B, C any](f1 Operator[A, B], f2 Operator[B, C]) Operator[A, C] {
	return func(in Sequence[A]) Sequence[C] {
		return f2(f1(in))
	}
}

// Chain applies a list of same-typed operators in order.
func Chain[T any](ops ...Operator[T, T]) Operator[T, T] {
	return func(in Sequence[T]) Sequence[T] {
		out := in
		for _, op := range ops {
			out = op(out)
		}
		return out
	}
}
