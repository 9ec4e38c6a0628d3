package vxerrors

import "fmt"

// PipelineError wraps any stage error with the name of the stage the
// pipeline was executing when it failed (SPEC_FULL.md §4.11/§4.12).
type PipelineError struct {
	StageName Stage
	Cause     error
}

// Wrap builds a PipelineError around a stage error (or any error).
func Wrap(stage Stage, cause error) *PipelineError {
	return &PipelineError{StageName: stage, Cause: cause}
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s stage failed: %s", e.StageName, e.Cause.Error())
}

func (e *PipelineError) Unwrap() error { return e.Cause }
