package concurrent

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fogfactory/concurrent/value"
)

// PipelineState is the lifecycle of a pipeline run. Completed and Failed are
// terminal.
type PipelineState int

const (
	PipelinePending PipelineState = iota
	PipelineRunning
	PipelineCompleted
	PipelineFailed
)

func (s PipelineState) String() string {
	switch s {
	case PipelinePending:
		return "pending"
	case PipelineRunning:
		return "running"
	case PipelineCompleted:
		return "completed"
	case PipelineFailed:
		return "failed"
	}
	return "unknown"
}

// Stage transforms a value into a new value without touching its input.
type Stage func(input any) any

func validateStage(input any) any {
	return value.Object{
		{Key: "validated", Value: true},
		{Key: "original_data", Value: input},
		{Key: "validation_score", Value: 0.95},
	}
}

func transformStage(input any) any {
	return value.Object{
		{Key: "transformed", Value: true},
		{Key: "source", Value: input},
		{Key: "transform_type", Value: "normalize"},
	}
}

func enrichStage(input any) any {
	return value.Object{
		{Key: "enriched", Value: true},
		{Key: "base_data", Value: input},
		{Key: "enrichment_level", Value: "high"},
		{Key: "additional_fields", Value: []any{"metadata", "context", "relationships"}},
	}
}

func aggregateStage(input any) any {
	return value.Object{
		{Key: "aggregated", Value: true},
		{Key: "source_data", Value: input},
		{Key: "aggregation_method", Value: "statistical_summary"},
	}
}

var stageBodies = map[string]Stage{
	"validate":  validateStage,
	"transform": transformStage,
	"enrich":    enrichStage,
	"aggregate": aggregateStage,
}

// DefaultStages returns the stage list used when none is configured.
func DefaultStages() []string {
	return []string{"validate", "transform", "enrich"}
}

// StageReport is the telemetry of one completed stage.
type StageReport struct {
	Stage      string
	Number     int
	OutputSize int
}

// PipelineResult is the outcome of a successful run.
type PipelineResult struct {
	Final  any
	Stages []StageReport
	State  PipelineState
}

// PipelineExecutor runs named stages in order, feeding each stage the
// previous stage's output. Every stage holds its own admission permit, which
// is released before the next stage asks for one.
type PipelineExecutor struct {
	limiter *Limiter
}

// NewPipelineExecutor builds an executor drawing permits from limiter.
func NewPipelineExecutor(limiter *Limiter) *PipelineExecutor {
	return &PipelineExecutor{limiter: limiter}
}

// Run executes stages against a private copy of initial. An unknown stage
// aborts the run with a *StageError wrapping ErrUnknownStage; reports of the
// stages already run are dropped.
func (e *PipelineExecutor) Run(ctx context.Context, initial any, stages []string) (PipelineResult, error) {
	current, err := value.Clone(initial)
	if err != nil {
		return PipelineResult{}, fmt.Errorf("snapshot pipeline input: %w", err)
	}

	res := PipelineResult{
		Stages: make([]StageReport, 0, len(stages)),
		State:  PipelinePending,
	}
	run := Link(lo.Map(stages, func(name string, i int) Process[any] {
		return func(ctx context.Context, input any) (any, error) {
			res.State = PipelineRunning
			out, report, err := e.runStage(ctx, name, i+1, input)
			if err != nil {
				return nil, err
			}
			res.Stages = append(res.Stages, report)
			return out, nil
		}
	})...)

	final, err := run(ctx, current)
	if err != nil {
		return PipelineResult{}, err
	}

	res.Final = final
	res.State = PipelineCompleted
	return res, nil
}

func (e *PipelineExecutor) runStage(ctx context.Context, name string, number int, input any) (any, StageReport, error) {
	ctx, span := tracer.Start(ctx, "concurrent.pipeline.stage", trace.WithAttributes(
		attribute.String("stage", name),
		attribute.Int("stage_number", number),
	))
	defer span.End()

	var (
		out  any
		size int
	)
	err := e.limiter.Do(ctx, func() error {
		body, ok := stageBodies[name]
		if !ok {
			return ErrUnknownStage
		}
		out = body(input)

		var err error
		size, err = value.Size(out)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, StageReport{}, &StageError{Stage: name, Number: number, State: PipelineFailed, Err: err}
	}

	span.SetAttributes(attribute.Int("output_size", size))
	return out, StageReport{Stage: name, Number: number, OutputSize: size}, nil
}

func (p *Processor) pipelineProcess(ctx context.Context, data any, opts Options) (any, error) {
	res, err := p.pipeline.Run(ctx, data, opts.Stages)
	if err != nil {
		return nil, err
	}

	return value.Object{
		{Key: "final_result", Value: res.Final},
		{Key: "stages", Value: lo.Map(res.Stages, func(r StageReport, _ int) any {
			return value.Object{
				{Key: "stage", Value: r.Stage},
				{Key: "stage_number", Value: float64(r.Number)},
				{Key: "output_size", Value: float64(r.OutputSize)},
			}
		})},
		{Key: "pipeline_length", Value: float64(len(opts.Stages))},
	}, nil
}
