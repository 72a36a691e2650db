package pipeline

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrPipelineMustBeSet = errors.New("pipeline must be set")
	ErrStageFailed       = errors.New("stage failed")
	ErrLaunch            = errors.New("unable to launch program")
	ErrPipelineFinished  = errors.New("pipeline already finished")
)

// StepError is returned when a stage did not print its success marker.
type StepError struct {
	Stage   string
	Program string
	Command string
	Outcome Outcome
	Elapsed time.Duration
	// Cause is set when the action of an in-process stage failed.
	Cause error
}

func (e *StepError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("stage %q (%s): %v", e.Stage, e.Program, e.Cause)
	}

	return fmt.Sprintf("stage %q (%s) is %s, check the command: %s", e.Stage, e.Program, e.Outcome, e.Command)
}

func (e *StepError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrStageFailed, e.Cause}
	}

	return []error{ErrStageFailed}
}

// LaunchError is returned when the program of a stage could not be started.
type LaunchError struct {
	Stage   string
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("stage %q: %v", e.Stage, e.Err)
}

func (e *LaunchError) Unwrap() []error {
	return []error{ErrLaunch, e.Err}
}
