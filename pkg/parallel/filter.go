package parallel

import (
	"context"

	"github.com/flowcore/engine/pkg/flow"
)

// ParallelFilter is ParallelMap(ordered=true) over pred followed by a
// post-filter that preserves order (spec §4.2).
func ParallelFilter[T any](in flow.Sequence[T], pred func(context.Context, T) (bool, error), concurrency int) flow.Sequence[T] {
	type tagged struct {
		item T
		keep bool
	}
	tested := ParallelMap(in, func(ctx context.Context, item T) (tagged, error) {
		keep, err := pred(ctx, item)
		return tagged{item: item, keep: keep}, err
	}, Options{Concurrency: concurrency, Ordered: true})

	kept := flow.Where(func(t tagged, _ int) bool { return t.keep })(tested)
	return flow.Map(func(t tagged, _ int) T { return t.item })(kept)
}
