package concurrent_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/maxatome/go-testdeep/td"

	"github.com/fogfactory/concurrent"
)

func TestParseOptions(t *testing.T) {
	t.Run("success_defaults", func(t *testing.T) {
		td.Cmp(t, concurrent.ParseOptions(nil), concurrent.Options{
			BatchSize: 10,
			Operation: "sum",
			Stages:    []string{"validate", "transform", "enrich"},
		})
	})

	t.Run("success_overrides", func(t *testing.T) {
		// Act
		opts := concurrent.ParseOptions(map[string]string{
			"batch_size": " 4 ",
			"operation":  "max",
			"stages":     "aggregate, validate,,transform ",
			"unrelated":  "ignored",
		})

		// Assert
		td.Cmp(t, opts, concurrent.Options{
			BatchSize: 4,
			Operation: "max",
			Stages:    []string{"aggregate", "validate", "transform"},
		})
	})

	t.Run("success_empty_stages", func(t *testing.T) {
		td.Cmp(t, concurrent.ParseOptions(map[string]string{"stages": ""}).Stages, []string{})
		td.Cmp(t, concurrent.ParseOptions(map[string]string{"stages": " , "}).Stages, []string{})
	})

	t.Run("success_invalid_batch_size", func(t *testing.T) {
		for _, raw := range []string{"x", "0", "-1", "2.5"} {
			td.Cmp(t, concurrent.ParseOptions(map[string]string{"batch_size": raw}).BatchSize, 10, raw)
		}
	})

	t.Run("success_unknown_operation_is_kept_verbatim", func(t *testing.T) {
		td.Cmp(t, concurrent.ParseOptions(map[string]string{"operation": "bogus"}).Operation, "bogus")
	})
}

func TestErrorCode(t *testing.T) {
	td.Cmp(t, concurrent.ErrorCode(nil), "")
	td.Cmp(t, concurrent.ErrorCode(fmt.Errorf("wrapped: %w", concurrent.ErrInputShape)), concurrent.CodeInputShape)
	td.Cmp(t, concurrent.ErrorCode(&concurrent.StageError{Stage: "x", Number: 1, Err: concurrent.ErrUnknownStage}), concurrent.CodeUnknownStage)
	td.Cmp(t, concurrent.ErrorCode(concurrent.ErrLimiterClosed), concurrent.CodeAdmission)
	td.Cmp(t, concurrent.ErrorCode(concurrent.ErrPoolClosed), concurrent.CodeAdmission)
	td.Cmp(t, concurrent.ErrorCode(fmt.Errorf("%w: %w", concurrent.ErrAdmission, context.Canceled)), concurrent.CodeCancelled)
	td.Cmp(t, concurrent.ErrorCode(errors.New("other")), concurrent.CodeUnknown)

	err := &concurrent.StageError{Stage: "bogus", Number: 3, Err: concurrent.ErrUnknownStage}
	td.Cmp(t, err.Error(), `stage 3 ("bogus"): unknown pipeline stage`)
}
