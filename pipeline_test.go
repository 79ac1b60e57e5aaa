package concurrent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/maxatome/go-testdeep/td"

	"github.com/fogfactory/concurrent"
	"github.com/fogfactory/concurrent/value"
)

func TestPipelineExecutor(t *testing.T) {
	ctx := context.Background()

	t.Run("success_stages_chain_outputs", func(t *testing.T) {
		// Arrange
		limiter := concurrent.NewLimiter(1)
		executor := concurrent.NewPipelineExecutor(limiter)

		// Act
		res, err := executor.Run(ctx, "x", []string{"validate", "aggregate"})

		// Assert
		td.Require(t).CmpNoError(err)
		validated := value.Object{
			{Key: "validated", Value: true},
			{Key: "original_data", Value: "x"},
			{Key: "validation_score", Value: 0.95},
		}
		final := value.Object{
			{Key: "aggregated", Value: true},
			{Key: "source_data", Value: validated},
			{Key: "aggregation_method", Value: "statistical_summary"},
		}
		td.Cmp(t, res.Final, final)
		td.Cmp(t, res.State, concurrent.PipelineCompleted)
		validatedSize, _ := value.Size(validated)
		finalSize, _ := value.Size(final)
		td.Cmp(t, res.Stages, []concurrent.StageReport{
			{Stage: "validate", Number: 1, OutputSize: validatedSize},
			{Stage: "aggregate", Number: 2, OutputSize: finalSize},
		})
		td.Cmp(t, limiter.Stats().TotalAcquired, int64(2))
		td.Cmp(t, limiter.Active(), int64(0))
	})

	t.Run("success_default_stages", func(t *testing.T) {
		// Arrange
		executor := concurrent.NewPipelineExecutor(concurrent.NewLimiter(1))

		// Act
		res, err := executor.Run(ctx, 1.0, concurrent.DefaultStages())

		// Assert
		td.Require(t).CmpNoError(err)
		td.Cmp(t, res.Final, value.Object{
			{Key: "enriched", Value: true},
			{Key: "base_data", Value: value.Object{
				{Key: "transformed", Value: true},
				{Key: "source", Value: value.Object{
					{Key: "validated", Value: true},
					{Key: "original_data", Value: 1.0},
					{Key: "validation_score", Value: 0.95},
				}},
				{Key: "transform_type", Value: "normalize"},
			}},
			{Key: "enrichment_level", Value: "high"},
			{Key: "additional_fields", Value: []any{"metadata", "context", "relationships"}},
		})
	})

	t.Run("success_input_is_not_aliased", func(t *testing.T) {
		// Arrange
		executor := concurrent.NewPipelineExecutor(concurrent.NewLimiter(1))
		input := []any{1.0, 2.0}

		// Act
		res, err := executor.Run(ctx, input, []string{"transform"})
		input[0] = 42.0

		// Assert
		td.Require(t).CmpNoError(err)
		source, _ := res.Final.(value.Object).Get("source")
		td.Cmp(t, source, []any{1.0, 2.0})
	})

	t.Run("error_unknown_stage_aborts", func(t *testing.T) {
		// Arrange
		limiter := concurrent.NewLimiter(1)
		executor := concurrent.NewPipelineExecutor(limiter)

		// Act
		res, err := executor.Run(ctx, "x", []string{"validate", "bogus", "enrich"})

		// Assert
		td.CmpErrorIs(t, err, concurrent.ErrUnknownStage)
		var stageErr *concurrent.StageError
		td.Require(t).True(errors.As(err, &stageErr))
		td.Cmp(t, stageErr.Stage, "bogus")
		td.Cmp(t, stageErr.Number, 2)
		td.Cmp(t, stageErr.State, concurrent.PipelineFailed)
		td.Cmp(t, res, concurrent.PipelineResult{})
		td.Cmp(t, limiter.Stats().TotalAcquired, int64(2), "enrich never ran")
		td.Cmp(t, limiter.Active(), int64(0), "failing stage released its permit")
	})
}

func TestPipelineProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("success_telemetry", func(t *testing.T) {
		// Arrange
		proc := InitProcessor(t)

		// Act
		result, err := proc.Process(ctx, concurrent.PipelineProcess, value.Object{{Key: "id", Value: 7.0}},
			map[string]string{"stages": "validate, enrich"})

		// Assert
		td.Require(t).CmpNoError(err)
		td.Cmp(t, field(t, result, "pipeline_length"), 2.0)
		td.Cmp(t, field(t, result, "stages"), []any{
			value.Object{
				{Key: "stage", Value: "validate"},
				{Key: "stage_number", Value: 1.0},
				{Key: "output_size", Value: td.Gt(0.0)},
			},
			value.Object{
				{Key: "stage", Value: "enrich"},
				{Key: "stage_number", Value: 2.0},
				{Key: "output_size", Value: td.Gt(0.0)},
			},
		})
		final := field(t, result, "final_result")
		size, err := value.Size(final)
		td.Require(t).CmpNoError(err)
		stages := field(t, result, "stages").([]any)
		last, _ := stages[1].(value.Object).Get("output_size")
		td.Cmp(t, last, float64(size), "last stage size is the final result size")
	})

	t.Run("success_empty_stage_list_is_identity", func(t *testing.T) {
		// Arrange
		proc := InitProcessor(t)
		input := value.Object{{Key: "a", Value: []any{1.0, "b"}}}

		// Act
		result, err := proc.Process(ctx, concurrent.PipelineProcess, input, map[string]string{"stages": ""})

		// Assert
		td.Require(t).CmpNoError(err)
		td.Cmp(t, result, value.Object{
			{Key: "final_result", Value: input},
			{Key: "stages", Value: []any{}},
			{Key: "pipeline_length", Value: 0.0},
		})
		td.Cmp(t, proc.LimiterStats().TotalAcquired, int64(0))
	})

	t.Run("error_unknown_stage", func(t *testing.T) {
		// Arrange
		proc := InitProcessor(t)

		// Act
		result, err := proc.Process(ctx, concurrent.PipelineProcess, "x", map[string]string{"stages": "validate,bogus"})

		// Assert
		td.CmpErrorIs(t, err, concurrent.ErrUnknownStage)
		td.CmpNil(t, result)
		td.Cmp(t, concurrent.ErrorCode(err), concurrent.CodeUnknownStage)
		td.Cmp(t, proc.LimiterStats().TotalAcquired, int64(2))
	})
}

func TestPipelineState(t *testing.T) {
	td.Cmp(t, concurrent.PipelinePending.String(), "pending")
	td.Cmp(t, concurrent.PipelineRunning.String(), "running")
	td.Cmp(t, concurrent.PipelineCompleted.String(), "completed")
	td.Cmp(t, concurrent.PipelineFailed.String(), "failed")
}
