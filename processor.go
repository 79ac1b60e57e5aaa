package concurrent

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/fogfactory/concurrent")

// Method is one of the operations served by a Processor.
type Method int

const (
	MethodUnknown Method = iota
	MethodParallel
	MethodBatch
	MethodMapReduce
	MethodPipeline
)

// Wire names of the methods.
const (
	ParallelProcess = "parallel_process"
	BatchProcess    = "batch_process"
	MapReduce       = "map_reduce"
	PipelineProcess = "pipeline_process"
)

// ParseMethod resolves a wire name. Unrecognized names yield MethodUnknown and
// an error wrapping ErrUnknownMethod.
func ParseMethod(name string) (Method, error) {
	switch name {
	case ParallelProcess:
		return MethodParallel, nil
	case BatchProcess:
		return MethodBatch, nil
	case MapReduce:
		return MethodMapReduce, nil
	case PipelineProcess:
		return MethodPipeline, nil
	}
	return MethodUnknown, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
}

func (m Method) String() string {
	switch m {
	case MethodParallel:
		return ParallelProcess
	case MethodBatch:
		return BatchProcess
	case MethodMapReduce:
		return MapReduce
	case MethodPipeline:
		return PipelineProcess
	}
	return "unknown"
}

var capabilities = []string{
	"parallel_processing",
	"batch_processing",
	"map_reduce",
	"pipeline_processing",
	"concurrent_task_management",
	"resource_pooling",
}

type config struct {
	maxConcurrent int
	workers       int
	poolOptions   []ants.Option
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*config)

// WithMaxConcurrent sets the admission permit count. Non-positive values keep
// DefaultMaxConcurrent.
func WithMaxConcurrent(n int) ProcessorOption {
	return func(c *config) {
		if n > 0 {
			c.maxConcurrent = n
		}
	}
}

// WithWorkers sets the worker pool size. Negative means GOMAXPROCS, 0 runs
// per-item work inline.
func WithWorkers(n int) ProcessorOption {
	return func(c *config) { c.workers = n }
}

// WithPoolOptions passes options to the underlying ants pool.
func WithPoolOptions(opts ...ants.Option) ProcessorOption {
	return func(c *config) { c.poolOptions = append(c.poolOptions, opts...) }
}

// Processor routes requests to the four engines. It owns the shared Limiter
// and the TaskRegistry; both live as long as the Processor.
type Processor struct {
	limiter *Limiter
	pool    *Pool
	tasks   *TaskRegistry

	batch      *BatchScheduler
	mapReducer *MapReduceEngine
	pipeline   *PipelineExecutor

	closed atomic.Bool
}

// New builds a Processor. The permit count is fixed here for the lifetime of
// the Processor.
func New(opts ...ProcessorOption) (*Processor, error) {
	cfg := config{maxConcurrent: DefaultMaxConcurrent, workers: -1}
	for _, opt := range opts {
		opt(&cfg)
	}

	pool, err := NewPoolWithOptions(cfg.workers, cfg.poolOptions...)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	limiter := NewLimiter(cfg.maxConcurrent)

	return &Processor{
		limiter:    limiter,
		pool:       pool,
		tasks:      NewTaskRegistry(),
		batch:      NewBatchScheduler(limiter, pool),
		mapReducer: NewMapReduceEngine(pool),
		pipeline:   NewPipelineExecutor(limiter),
	}, nil
}

// Process runs method against data. options are parsed once into Options.
func (p *Processor) Process(ctx context.Context, method string, data any, options map[string]string) (any, error) {
	ctx, span := tracer.Start(ctx, "concurrent.process", trace.WithAttributes(attribute.String("method", method)))
	defer span.End()

	result, err := p.dispatch(ctx, method, data, options)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

func (p *Processor) dispatch(ctx context.Context, method string, data any, options map[string]string) (any, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}
	m, err := ParseMethod(method)
	if err != nil {
		return nil, err
	}

	task := p.tasks.start(m)
	defer p.tasks.finish(task.ID)

	opts := ParseOptions(options)
	switch m {
	case MethodParallel:
		return p.parallelProcess(data)
	case MethodBatch:
		return p.batchProcess(ctx, data, opts)
	case MethodMapReduce:
		return p.mapReduce(data, opts)
	case MethodPipeline:
		return p.pipelineProcess(ctx, data, opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
}

// Capabilities returns the fixed capability tags.
func (p *Processor) Capabilities() []string {
	return append([]string(nil), capabilities...)
}

// ActiveTaskCount returns the number of Process calls in flight.
func (p *Processor) ActiveTaskCount() int {
	return p.tasks.Len()
}

// MaxConcurrentTasks returns the permit count fixed at construction.
func (p *Processor) MaxConcurrentTasks() int {
	return p.limiter.Size()
}

// LimiterStats returns the admission limiter counters.
func (p *Processor) LimiterStats() LimiterStats {
	return p.limiter.Stats()
}

// Close tears down the limiter and the worker pool. Later calls to Process
// fail with ErrPoolClosed.
func (p *Processor) Close() {
	if p.closed.Swap(true) {
		return
	}
	p.limiter.Close()
	p.pool.Release()
}
