package concurrent

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/fogfactory/concurrent/value"
)

// Reducer selects the fold applied by the reduce phase.
type Reducer int

const (
	ReduceSum Reducer = iota
	ReduceAvg
	ReduceMax
	ReduceMin
)

// DefaultOperation is the reducer name used when none is configured.
const DefaultOperation = "sum"

// maxIntermediateResults caps the intermediate result count reported by
// map_reduce.
const maxIntermediateResults = 10

// ParseReducer resolves a reducer name.
func ParseReducer(name string) (Reducer, error) {
	switch name {
	case "sum":
		return ReduceSum, nil
	case "avg":
		return ReduceAvg, nil
	case "max":
		return ReduceMax, nil
	case "min":
		return ReduceMin, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
}

func (r Reducer) String() string {
	switch r {
	case ReduceSum:
		return "sum"
	case ReduceAvg:
		return "avg"
	case ReduceMax:
		return "max"
	case ReduceMin:
		return "min"
	}
	return fmt.Sprintf("Reducer(%d)", int(r))
}

// Reduce folds values sequentially. The average of no values is NaN, the max
// of no values is -Inf and the min is +Inf.
func (r Reducer) Reduce(values []float64) float64 {
	switch r {
	case ReduceAvg:
		if len(values) == 0 {
			return math.NaN()
		}
		return ReduceSum.Reduce(values) / float64(len(values))
	case ReduceMax:
		return lo.Reduce(values, func(agg, v float64, _ int) float64 { return math.Max(agg, v) }, math.Inf(-1))
	case ReduceMin:
		return lo.Reduce(values, func(agg, v float64, _ int) float64 { return math.Min(agg, v) }, math.Inf(1))
	}
	return lo.Reduce(values, func(agg, v float64, _ int) float64 { return agg + v }, 0)
}

// MapReduceResult holds both phases' output.
type MapReduceResult struct {
	Mapped []float64
	Result float64
}

// MapReduceEngine squares every numeric element in parallel, then folds the
// squares with a Reducer. Non-numeric elements are dropped.
type MapReduceEngine struct {
	pool *Pool
}

// NewMapReduceEngine builds an engine running its map phase on pool.
func NewMapReduceEngine(pool *Pool) *MapReduceEngine {
	return &MapReduceEngine{pool: pool}
}

// Run executes the map then the reduce phase.
func (e *MapReduceEngine) Run(items []any, r Reducer) MapReduceResult {
	squared := ParallelMap(e.pool, items, func(item any, _ int) lo.Tuple2[float64, bool] {
		n, ok := value.AsNumber(item)
		return lo.T2(n*n, ok)
	})
	mapped := lo.FilterMap(squared, func(t lo.Tuple2[float64, bool], _ int) (float64, bool) {
		return t.Unpack()
	})

	return MapReduceResult{
		Mapped: mapped,
		Result: r.Reduce(mapped),
	}
}

func (p *Processor) mapReduce(data any, opts Options) (any, error) {
	items, ok := value.AsArray(data)
	if !ok {
		return nil, ErrInputShape
	}
	reducer, err := ParseReducer(opts.Operation)
	if err != nil {
		return nil, err
	}

	res := p.mapReducer.Run(items, reducer)

	return value.Object{
		{Key: "mapped_count", Value: float64(len(res.Mapped))},
		{Key: "operation", Value: opts.Operation},
		{Key: "result", Value: res.Result},
		{Key: "intermediate_results", Value: float64(min(len(res.Mapped), maxIntermediateResults))},
	}, nil
}
