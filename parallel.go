package concurrent

import (
	"github.com/fogfactory/concurrent/value"
)

// ParallelTransform is the per-element rule of the parallel_process method:
// numbers are doubled, strings get a "processed_" prefix, anything else is
// returned as is.
func ParallelTransform(item any) any {
	if n, ok := value.AsNumber(item); ok {
		return n * 2
	}
	if s, ok := item.(string); ok {
		return "processed_" + s
	}
	return item
}

func (p *Processor) parallelProcess(data any) (any, error) {
	items, ok := value.AsArray(data)
	if !ok {
		return nil, ErrInputShape
	}

	results := ParallelMap(p.pool, items, func(item any, _ int) any {
		return ParallelTransform(item)
	})

	return value.Object{
		{Key: "results", Value: results},
		{Key: "processed_count", Value: float64(len(results))},
		{Key: "processing_method", Value: "parallel"},
	}, nil
}
