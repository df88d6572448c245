package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLaunchFailed      = errors.New("interpreter failed to launch")
	ErrNonZeroExit       = errors.New("interpreter exited with non-zero status")
	ErrOutputUnparseable = errors.New("interpreter output is not a valid response")

	ErrReportedFailure       = errors.New("pipeline reported a failure")
	ErrIncompleteConsumption = errors.New("pipeline did not consume the whole document")
)

// ExecutionError is fatal for the run that produced it. Script and Stderr are
// kept for diagnosis.
type ExecutionError struct {
	Kind     error
	ExitCode int
	Script   string
	Stderr   string
	Err      error
}

func (e *ExecutionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if errors.Is(e.Kind, ErrNonZeroExit) {
		fmt.Fprintf(&b, " (%d)", e.ExitCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if errors.Is(e.Kind, ErrNonZeroExit) {
		if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
			b.WriteString("\nstderr:\n")
			b.WriteString(stderr)
		}
		if e.Script != "" {
			b.WriteString("\nscript:\n")
			b.WriteString(e.Script)
		}
	}
	return b.String()
}

func (e *ExecutionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func (e *ExecutionError) ErrorKind() string { return "execution" }

// PipelineError reports a run that executed cleanly but whose result breaks
// the run contract.
type PipelineError struct {
	Kind          error
	Message       string
	ContentIndex  int
	ContentLength int
}

func (e *PipelineError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrReportedFailure):
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case errors.Is(e.Kind, ErrIncompleteConsumption):
		return fmt.Sprintf("%s: content_index %d of %d", e.Kind, e.ContentIndex, e.ContentLength)
	default:
		return e.Kind.Error()
	}
}

func (e *PipelineError) Unwrap() error { return e.Kind }

func (e *PipelineError) ErrorKind() string { return "pipeline" }
