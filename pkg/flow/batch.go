package flow

// Batch groups items into slices of exactly n, except the final
// (possibly shorter) batch. n <= 0 is fatal. Grounded on the
// teacher's CountWindow, adapted to emit []T directly instead of a
// nested Sequence[T] per the spec's batch contract.
func Batch[T any](n int) Operator[T, []T] {
	if n <= 0 {
		return func(Sequence[T]) Sequence[[]T] {
			return func() ([]T, error) {
				var zero []T
				return zero, errNonPositiveN
			}
		}
	}
	return func(in Sequence[T]) Sequence[[]T] {
		done := false
		return func() ([]T, error) {
			if done {
				var zero []T
				return zero, EOS
			}
			batch := make([]T, 0, n)
			for len(batch) < n {
				item, err := in()
				if err != nil {
					if len(batch) == 0 {
						return nil, err
					}
					done = true
					return batch, nil
				}
				batch = append(batch, item)
			}
			return batch, nil
		}
	}
}

// Window emits overlapping slices of length size, advancing by
// slide. Nothing is emitted until size items have been seen. The
// final partial window is suppressed unless size == slide (a
// tumbling window, equivalent to Batch) and a residual exists (spec
// §4.1, invariant 7, testable property §8.11).
func Window[T any](size, slide int) Operator[T, []T] {
	if size <= 0 || slide <= 0 {
		return func(Sequence[T]) Sequence[[]T] {
			return func() ([]T, error) {
				var zero []T
				return zero, errNonPositiveN
			}
		}
	}
	tumbling := size == slide
	return func(in Sequence[T]) Sequence[[]T] {
		buf := make([]T, 0, size)
		done := false
		return func() ([]T, error) {
			if done {
				var zero []T
				return zero, EOS
			}
			// Fill buffer to size (first window) or back up to size
			// after a slide.
			for len(buf) < size {
				item, err := in()
				if err != nil {
					if tumbling && len(buf) > 0 {
						done = true
						return buf, nil
					}
					done = true
					var zero []T
					return zero, err
				}
				buf = append(buf, item)
			}

			out := make([]T, size)
			copy(out, buf)

			// Slide the buffer by slide elements.
			if slide >= len(buf) {
				buf = buf[:0]
			} else {
				copy(buf, buf[slide:])
				buf = buf[:len(buf)-slide]
			}
			return out, nil
		}
	}
}
