package flow

import (
	"sync"
)

// Merge interleaves N sequences, yielding items as they become
// available from any upstream in arrival order (no cross-input
// ordering guarantee, spec §4.2/§5). It terminates when every
// upstream is exhausted; a single upstream error cancels the others.
// Grounded on the teacher's Tee/Split channel-fan idiom (filters.go),
// run in reverse as a fan-in.
func Merge[T any](seqs ...Sequence[T]) Sequence[T] {
	if len(seqs) == 0 {
		return func() (T, error) {
			var zero T
			return zero, EOS
		}
	}

	type result struct {
		item T
		err  error
	}

	out := make(chan result, len(seqs))
	stop := make(chan struct{})
	var stopOnce sync.Once
	var wg sync.WaitGroup

	wg.Add(len(seqs))
	for _, seq := range seqs {
		seq := seq
		go func() {
			defer wg.Done()
			for {
				item, err := seq()
				select {
				case out <- result{item: item, err: err}:
					if err != nil {
						return
					}
				case <-stop:
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	remaining := len(seqs)
	fatalSeen := false

	return func() (T, error) {
		var zero T
		if remaining == 0 {
			return zero, EOS
		}
		for r := range out {
			if r.err != nil {
				if r.err == EOS {
					remaining--
					if remaining == 0 {
						return zero, EOS
					}
					continue
				}
				if !fatalSeen {
					fatalSeen = true
					stopOnce.Do(func() { close(stop) })
				}
				return zero, r.err
			}
			return r.item, nil
		}
		return zero, EOS
	}
}
