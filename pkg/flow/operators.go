package flow

// Map yields fn(item, index) for every upstream item, preserving 1:1
// indexing and order (spec §8.2, §8.3).
func Map[T, U any](fn func(item T, index int) U) Operator[T, U] {
	return func(in Sequence[T]) Sequence[U] {
		index := 0
		return func() (U, error) {
			item, err := in()
			if err != nil {
				var zero U
				return zero, err
			}
			out := fn(item, index)
			index++
			return out, nil
		}
	}
}

// Where keeps items for which pred(item, index) is true. index
// advances for every item inspected, not just the ones yielded (spec
// §4.1, §8.3).
func Where[T any](pred func(item T, index int) bool) Operator[T, T] {
	return func(in Sequence[T]) Sequence[T] {
		index := 0
		return func() (T, error) {
			for {
				item, err := in()
				if err != nil {
					var zero T
					return zero, err
				}
				i := index
				index++
				if pred(item, i) {
					return item, nil
				}
			}
		}
	}
}

// Take yields at most n items then cancels upstream by simply
// ceasing to pull it. n <= 0 yields an empty sequence immediately.
func Take[T any](n int) Operator[T, T] {
	return func(in Sequence[T]) Sequence[T] {
		count := 0
		return func() (T, error) {
			if count >= n {
				var zero T
				return zero, EOS
			}
			count++
			return in()
		}
	}
}

// Skip drops the first n items. A negative n is a fatal (non-EOS)
// error on first pull.
func Skip[T any](n int) Operator[T, T] {
	return func(in Sequence[T]) Sequence[T] {
		skipped := 0
		failed := n < 0
		return func() (T, error) {
			var zero T
			if failed {
				return zero, errNegativeSkip
			}
			for skipped < n {
				if _, err := in(); err != nil {
					return zero, err
				}
				skipped++
			}
			return in()
		}
	}
}

// Tap calls effect(item, index) for its side effect and yields the
// item unchanged. An error from effect propagates and terminates the
// sequence.
func Tap[T any](effect func(item T, index int) error) Operator[T, T] {
	return func(in Sequence[T]) Sequence[T] {
		index := 0
		return func() (T, error) {
			item, err := in()
			if err != nil {
				var zero T
				return zero, err
			}
			if err := effect(item, index); err != nil {
				var zero T
				index++
				return zero, err
			}
			index++
			return item, nil
		}
	}
}

// FlatMap expands each input into zero or more outputs via fn; every
// output produced from one input shares that input's index (spec
// §4.1, §8.3).
func FlatMap[T, U any](fn func(item T, index int) []U) Operator[T, U] {
	return func(in Sequence[T]) Sequence[U] {
		index := 0
		var pending []U
		var pendingPos int
		return func() (U, error) {
			for {
				if pendingPos < len(pending) {
					out := pending[pendingPos]
					pendingPos++
					return out, nil
				}
				item, err := in()
				if err != nil {
					var zero U
					return zero, err
				}
				pending = fn(item, index)
				pendingPos = 0
				index++
			}
		}
	}
}

// Flatten is FlatMap specialised for a stream of slices — equivalent
// to flat_map(identity).
func Flatten[T any](in Sequence[[]T]) Sequence[T] {
	return FlatMap(func(item []T, _ int) []T { return item })(in)
}
