package vxerrors

import "fmt"

// ExecuteError kinds (SPEC_FULL.md §4.12).
const (
	KindSpawnFailed      = "SpawnFailed"
	KindTimeout          = "Timeout"
	KindSignalTerminated = "SignalTerminated"
	KindInvalidArgv      = "InvalidArgv"
)

// ExecuteError is raised by Pipeline.Execute / the Executor.
type ExecuteError struct {
	Base
}

func newExecute(kind, message, runtime string, cause error) *ExecuteError {
	return &ExecuteError{Base{Stage: StageExecute, Kind: kind, Message: message, Runtime: runtime, Cause: cause}}
}

// NewSpawnFailed reports that the child process could not be started.
func NewSpawnFailed(runtime, executable string, cause error) *ExecuteError {
	e := newExecute(KindSpawnFailed, fmt.Sprintf("failed to spawn %q", executable), runtime, cause)
	e.WithDetail("executable", executable)
	return e
}

// NewTimeout reports that the child process exceeded its configured timeout.
func NewTimeout(runtime string, timeoutSeconds float64) *ExecuteError {
	e := newExecute(KindTimeout, fmt.Sprintf("%q timed out after %.0fs", runtime, timeoutSeconds), runtime, nil)
	e.WithDetail("timeout_seconds", timeoutSeconds)
	return e
}

// NewSignalTerminated reports the child was terminated by a signal.
func NewSignalTerminated(runtime string, signal string) *ExecuteError {
	e := newExecute(KindSignalTerminated, fmt.Sprintf("%q was terminated by signal %s", runtime, signal), runtime, nil)
	e.WithDetail("signal", signal)
	return e
}

// NewInvalidArgv reports that the composed argv was rejected before spawn.
func NewInvalidArgv(runtime string, reason string) *ExecuteError {
	return newExecute(KindInvalidArgv, reason, runtime, nil)
}
