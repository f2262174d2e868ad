package pipeline

import (
	"fmt"
	"sync"

	"github.com/flowcore/engine/pkg/flow"
)

// slotKind tags a state container entry: it holds either a live
// generator or a materialised snapshot, never both, and transitions
// Generator -> Snapshot only (spec §3, §4.6).
type slotKind int

const (
	slotGenerator slotKind = iota
	slotSnapshot
)

type slot struct {
	kind      slotKind
	generator func() (any, error) // type-erased Sequence[T]
	snapshot  []any
}

// StateContainer is keyed by step name; each key maps to a generator
// (not yet consumed) or a snapshot (materialised slice) — never both.
// It is safe for concurrent reads from observers while the executing
// pipeline writes (spec §5).
type StateContainer struct {
	mu    sync.RWMutex
	slots map[string]*slot
}

// NewStateContainer creates an empty container.
func NewStateContainer() *StateContainer {
	return &StateContainer{slots: make(map[string]*slot)}
}

// WithKey adds a generator under key without materialising it.
func WithKey[T any](c *StateContainer, key string, seq flow.Sequence[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[key] = &slot{
		kind:      slotGenerator,
		generator: erase(seq),
	}
}

// WithCheckpoint adds seq under key, materialising it immediately
// (spec §3: "generator -> snapshot on explicit checkpoint").
func WithCheckpoint[T any](c *StateContainer, key string, seq flow.Sequence[T]) ([]T, error) {
	WithKey(c, key, seq)
	return Materialize[T](c, key)
}

// HasSnapshot reports whether key currently holds a materialised
// snapshot.
func (c *StateContainer) HasSnapshot(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.slots[key]
	return ok && s.kind == slotSnapshot
}

// Materialize consumes key's generator fully, caches the result as a
// snapshot, and returns it. Idempotent: calling it again on an
// already-materialised key just returns the cached slice.
func Materialize[T any](c *StateContainer, key string) ([]T, error) {
	c.mu.Lock()
	s, ok := c.slots[key]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("pipeline: unknown key %q", key)
	}
	if s.kind == slotSnapshot {
		out := make([]T, len(s.snapshot))
		for i, v := range s.snapshot {
			out[i] = v.(T)
		}
		c.mu.Unlock()
		return out, nil
	}
	gen := s.generator
	c.mu.Unlock()

	var items []any
	var typed []T
	for {
		v, err := gen()
		if err != nil {
			if err == flow.EOS {
				break
			}
			return nil, err
		}
		items = append(items, v)
		typed = append(typed, v.(T))
	}

	c.mu.Lock()
	s.kind = slotSnapshot
	s.snapshot = items
	s.generator = nil
	c.mu.Unlock()

	return typed, nil
}

// Stream returns a Sequence[T] over key: a fresh replay sequence if
// the key already holds a snapshot, or a view over the live generator
// otherwise. Pulling from the live view does not materialise the
// slot, and the generator is one-shot — callers wanting repeat access
// should Materialize the key or use Replayable instead.
func Stream[T any](c *StateContainer, key string) (flow.Sequence[T], error) {
	c.mu.RLock()
	s, ok := c.slots[key]
	var kind slotKind
	var items []any
	var gen func() (any, error)
	if ok {
		kind, items, gen = s.kind, s.snapshot, s.generator
	}
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("pipeline: unknown key %q", key)
	}
	if kind == slotSnapshot {
		idx := 0
		return func() (T, error) {
			if idx >= len(items) {
				var zero T
				return zero, flow.EOS
			}
			v := items[idx].(T)
			idx++
			return v, nil
		}, nil
	}
	idx := 0
	return func() (T, error) {
		v, err := gen()
		if err != nil {
			var zero T
			return zero, err
		}
		idx++
		return v.(T), nil
	}, nil
}

func erase[T any](seq flow.Sequence[T]) func() (any, error) {
	return func() (any, error) {
		v, err := seq()
		return v, err
	}
}

// Replayable memoises a one-shot sequence so it can be iterated
// multiple times, caching items on first read. Grounded directly on
// the teacher's nested_streams.go StreamValue[T] (cache-on-first-
// read, replay-from-cache for a stream stored as a record field),
// generalised here to any named step output.
type Replayable[T any] struct {
	mu     sync.Mutex
	source flow.Sequence[T]
	cached []T
	done   bool
}

// NewReplayable wraps seq for repeat iteration.
func NewReplayable[T any](seq flow.Sequence[T]) *Replayable[T] {
	return &Replayable[T]{source: seq}
}

// Stream returns a fresh Sequence[T] view over the replayable: if the
// source is already fully cached, the view replays from the cache; if
// not, repeated concurrent views would race on pulling the shared
// source, so the first caller drains it fully, under the lock, before
// any view is returned.
func (r *Replayable[T]) Stream() flow.Sequence[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.done {
		r.drainLocked()
	}
	items := r.cached
	idx := 0
	return func() (T, error) {
		if idx >= len(items) {
			var zero T
			return zero, flow.EOS
		}
		v := items[idx]
		idx++
		return v, nil
	}
}

func (r *Replayable[T]) drainLocked() {
	for {
		v, err := r.source()
		if err != nil {
			r.done = true
			return
		}
		r.cached = append(r.cached, v)
	}
}
