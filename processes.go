package concurrent

import (
	"context"

	"github.com/samber/lo"
)

// Process defines a function which takes a value and returns the updated value, or an error.
type Process[T any] func(ctx context.Context, t T) (T, error)

// Link merges several Process to one. Processes run in order, each one fed with the output of the previous one.
// The first error stops the chain: later processes are skipped and the error is returned.
func Link[T any](procs ...Process[T]) Process[T] {
	return func(ctx context.Context, t T) (T, error) {
		return lo.Reduce(procs, func(acc lo.Tuple2[T, error], proc Process[T], _ int) lo.Tuple2[T, error] {
			if acc.B != nil {
				return acc
			}
			val, err := proc(ctx, acc.A)
			return lo.T2(val, err)
		}, lo.T2[T, error](t, nil)).Unpack()
	}
}
