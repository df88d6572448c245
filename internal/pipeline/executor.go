package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"optflow/internal/deps"
	"optflow/internal/fileutil"
)

// OutputFileEnv names the environment variable that tells the runner where to
// write its response.
const OutputFileEnv = "OUTPUT_FILE"

// Invocation is one interpreter call.
type Invocation struct {
	// Command is the interpreter command line, split on whitespace.
	Command string
	// Script is the composed runner source.
	Script string
	// Payload is the JSON request passed as the final argument.
	Payload []byte
}

// Outcome is what an interpreter call produced. A non-zero ExitCode is not an
// error at this level.
type Outcome struct {
	ExitCode int
	Stderr   string
	Output   []byte
}

// Executor runs the interpreter. Implementations return an error only when the
// process could not be started or its result could not be collected; an
// *ExecutionError return keeps its Kind, anything else is treated as a launch
// failure unless the outcome carries a non-zero exit code.
type Executor interface {
	Execute(ctx context.Context, inv Invocation) (Outcome, error)
}

// ProcessExecutor runs the interpreter as a child process. Nil streams default
// to the parent's stdin, stdout and stderr. Stderr is also captured into the
// Outcome.
type ProcessExecutor struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Execute stages the script and an empty response file, runs
// `<command> <script> <payload>` and reads the response. Both scratch files
// are removed before returning.
func (e *ProcessExecutor) Execute(ctx context.Context, inv Invocation) (Outcome, error) {
	binary, args, err := deps.SplitCommand(inv.Command)
	if err != nil {
		return Outcome{}, fmt.Errorf("interpreter command: %w", err)
	}

	scriptPath, err := fileutil.WriteTemp("optflow-run-*.py", []byte(inv.Script))
	if err != nil {
		return Outcome{}, fmt.Errorf("stage script: %w", err)
	}
	defer os.Remove(scriptPath)

	outputPath, err := fileutil.WriteTemp("optflow-out-*.json", nil)
	if err != nil {
		return Outcome{}, fmt.Errorf("stage output file: %w", err)
	}
	defer os.Remove(outputPath)

	args = append(args, scriptPath, string(inv.Payload))
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Env = append(os.Environ(), OutputFileEnv+"="+outputPath)
	cmd.Stdin = e.stdin()
	cmd.Stdout = e.stdout()
	var captured bytes.Buffer
	cmd.Stderr = io.MultiWriter(e.stderr(), &captured)

	runErr := cmd.Run()
	outcome := Outcome{Stderr: captured.String()}
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return outcome, runErr
		}
		outcome.ExitCode = exitErr.ExitCode()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return outcome, fmt.Errorf("interpreter interrupted: %w", ctxErr)
		}
		return outcome, nil
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return outcome, &ExecutionError{Kind: ErrOutputUnparseable, Err: fmt.Errorf("read response: %w", err)}
	}
	outcome.Output = data
	return outcome, nil
}

func (e *ProcessExecutor) stdin() io.Reader {
	if e.Stdin != nil {
		return e.Stdin
	}
	return os.Stdin
}

func (e *ProcessExecutor) stdout() io.Writer {
	if e.Stdout != nil {
		return e.Stdout
	}
	return os.Stdout
}

func (e *ProcessExecutor) stderr() io.Writer {
	if e.Stderr != nil {
		return e.Stderr
	}
	return os.Stderr
}
