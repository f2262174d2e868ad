// Package pipeline implements the fluent builder and the named-step
// state container (spec §4.6).
package pipeline

import (
	"fmt"

	"github.com/flowcore/engine/pkg/flow"
)

// StepOptions carries the optional per-step settings the spec's
// design notes ask for as "a single explicit options record per
// operator" rather than an untyped bag (spec §9).
type StepOptions struct {
	// Checkpoint materialises this step's output immediately into the
	// builder's attached StateContainer (see Builder.WithStateContainer),
	// keyed by the step name, and resumes the chain from the cached
	// slice. Setting it without attaching a container is a build-time
	// error, not a silent no-op.
	Checkpoint bool
}

// step records one named pipeline stage's name and options for later
// introspection; the transform itself is not kept here, because Go's
// type system can't express a heterogeneous chain of Operator[T,U]
// with varying T/U at a single builder without reflection-heavy
// gymnastics — the static
// typing the spec asks for ("each step's output type is statically
// the input type of the next") is enforced by the caller chaining
// Builder.Step calls with compatible Go generic instantiations, not
// by this bookkeeping slice.
type step struct {
	name    string
	options StepOptions
}

// Builder composes named steps over a single Sequence[T] chain;
// duplicate step names are a build-time error (spec §4.6). Build does
// not freeze the builder: a Step added after Build extends the same
// chain, so the sequence returned earlier and the one a later Build
// returns share one upstream.
type Builder[T any] struct {
	seq    flow.Sequence[T]
	steps  []step
	names  map[string]bool
	err    error
	states *StateContainer
}

// Start begins a new builder over seq.
func Start[T any](seq flow.Sequence[T]) *Builder[T] {
	return &Builder[T]{seq: seq, names: make(map[string]bool)}
}

// WithStateContainer attaches c so that steps built with
// StepOptions{Checkpoint: true} have somewhere to materialise into.
// Without a container, a checkpointed step is a build-time error
// rather than a silent no-op.
func (b *Builder[T]) WithStateContainer(c *StateContainer) *Builder[T] {
	b.states = c
	return b
}

// Step applies op under name, erroring at Build time if name repeats.
// Because Go generics can't change a receiver's type parameter
// mid-chain, a type-changing step is expressed as a free function
// (see StepAs) rather than a Builder method.
func (b *Builder[T]) Step(name string, op flow.Operator[T, T], opts StepOptions) *Builder[T] {
	if b.names[name] {
		if b.err == nil {
			b.err = fmt.Errorf("pipeline: duplicate step name %q", name)
		}
		return b
	}
	b.names[name] = true
	b.steps = append(b.steps, step{name: name, options: opts})
	b.seq = op(b.seq)
	if opts.Checkpoint && b.err == nil {
		checkpointed, err := checkpointStep(b.states, name, b.seq)
		if err != nil {
			b.err = err
			return b
		}
		b.seq = checkpointed
	}
	return b
}

// checkpointStep materialises seq into c under key and returns a
// fresh replay sequence over the cached slice (spec §3: "generator ->
// snapshot on explicit checkpoint", StepOptions.Checkpoint).
func checkpointStep[T any](c *StateContainer, key string, seq flow.Sequence[T]) (flow.Sequence[T], error) {
	if c == nil {
		return nil, fmt.Errorf("pipeline: step %q set Checkpoint but no state container was attached (see Builder.WithStateContainer)", key)
	}
	items, err := WithCheckpoint(c, key, seq)
	if err != nil {
		return nil, fmt.Errorf("pipeline: checkpoint step %q: %w", key, err)
	}
	return flow.FromSlice(items), nil
}

// Build finalises the chain, returning the composed sequence or the
// first build-time error encountered (e.g. a duplicate step name).
func (b *Builder[T]) Build() (flow.Sequence[T], error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.seq, nil
}

// StepNames returns the names added so far, in order.
func (b *Builder[T]) StepNames() []string {
	out := make([]string, len(b.steps))
	for i, s := range b.steps {
		out[i] = s.name
	}
	return out
}

// StepAs applies a type-changing operator to a builder's current
// sequence and starts a fresh builder over the result, carrying
// forward the step bookkeeping. Go generics require this as a free
// function: a method can't introduce a new receiver type parameter.
func StepAs[T, U any](b *Builder[T], name string, op flow.Operator[T, U], opts StepOptions) *Builder[U] {
	next := &Builder[U]{names: make(map[string]bool), states: b.states}
	for n := range b.names {
		next.names[n] = true
	}
	next.steps = append(append([]step{}, b.steps...), step{name: name, options: opts})
	if b.names[name] {
		next.err = fmt.Errorf("pipeline: duplicate step name %q", name)
		return next
	}
	if b.err != nil {
		next.err = b.err
		return next
	}
	next.names[name] = true
	next.seq = op(b.seq)
	if opts.Checkpoint {
		checkpointed, err := checkpointStep(next.states, name, next.seq)
		if err != nil {
			next.err = err
			return next
		}
		next.seq = checkpointed
	}
	return next
}
