package concurrent

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInputShape is returned when an operation needs an array and gets
	// something else.
	ErrInputShape = errors.New("input must be an array")

	// ErrUnknownMethod is returned for a method name outside the four
	// recognized operations.
	ErrUnknownMethod = errors.New("unknown concurrent method")

	// ErrUnknownOperation is returned for an unrecognized map-reduce reducer.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrUnknownStage is returned for an unrecognized pipeline stage name.
	ErrUnknownStage = errors.New("unknown pipeline stage")

	// ErrAdmission is returned when an admission permit cannot be obtained.
	ErrAdmission = errors.New("admission failed")

	// ErrLimiterClosed is returned by Acquire once the limiter is closed.
	ErrLimiterClosed = fmt.Errorf("%w: limiter closed", ErrAdmission)

	// ErrPoolClosed is returned by a Processor used after Close.
	ErrPoolClosed = errors.New("worker pool closed")
)

// Error codes returned by ErrorCode.
const (
	CodeInputShape       = "INPUT_SHAPE_ERROR"
	CodeUnknownMethod    = "UNKNOWN_METHOD_ERROR"
	CodeUnknownOperation = "UNKNOWN_OPERATION_ERROR"
	CodeUnknownStage     = "UNKNOWN_STAGE_ERROR"
	CodeAdmission        = "ADMISSION_ERROR"
	CodeCancelled        = "CANCELLED_ERROR"
	CodeUnknown          = "UNKNOWN_ERROR"
)

// ErrorCode maps an error returned by this package to a stable code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInputShape):
		return CodeInputShape
	case errors.Is(err, ErrUnknownMethod):
		return CodeUnknownMethod
	case errors.Is(err, ErrUnknownOperation):
		return CodeUnknownOperation
	case errors.Is(err, ErrUnknownStage):
		return CodeUnknownStage
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancelled
	case errors.Is(err, ErrAdmission), errors.Is(err, ErrPoolClosed):
		return CodeAdmission
	}
	return CodeUnknown
}

// StageError reports the pipeline stage that failed.
type StageError struct {
	Stage  string
	Number int
	State  PipelineState
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%q): %v", e.Number, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
