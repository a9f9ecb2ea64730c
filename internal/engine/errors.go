package engine

import (
	"errors"
	"fmt"
)

// ErrRunFailed is returned when at least one task failed and the run as a
// whole did not complete.
var ErrRunFailed = errors.New("run did not complete")

// MissingEnvironmentError reports an unmet required-environment precondition.
type MissingEnvironmentError struct {
	Var string
}

func (e *MissingEnvironmentError) Error() string {
	return fmt.Sprintf("required environment variable %q is not set", e.Var)
}

// ExecutionError reports that a task's body could not be created at all.
// Unlike an ordinary task failure it aborts the run immediately.
type ExecutionError struct {
	Task string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("cannot execute task %q: %v", e.Task, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
