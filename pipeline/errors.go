package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrNoSteps       = errors.New("sequence has no steps")
	ErrInvalidStep   = errors.New("invalid step")
	ErrReservedName  = errors.New("result name is reserved")
	ErrEmptyPipeName = errors.New("pipe name must not be empty")
	ErrUnknownOutput = errors.New("output name is not produced by any step")
)

// StepError is returned when a step fails. Err is the operator's error.
type StepError struct {
	Index    int
	Result   string
	Operator string
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s -> %s): %v", e.Index, e.Operator, e.Result, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// CancelledError is returned when a run is cancelled. Step is the index of the step that was
// about to run or running when the cancellation was observed. Err is the context error, so
// errors.Is(err, context.Canceled) holds for cancelled runs.
type CancelledError struct {
	Step int
	Err  error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("run cancelled at step %d: %v", e.Step, e.Err)
}

func (e *CancelledError) Unwrap() error { return e.Err }
