package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"optflow/internal/history"
	"optflow/internal/logging"
	"optflow/internal/registry"
	"optflow/internal/template"
)

// Runner executes registry prefixes and carries the data map between runs.
type Runner struct {
	reg     *registry.Registry
	exec    Executor
	logger  *slog.Logger
	journal history.Recorder
	dataMap map[string]string
}

// New builds a runner over reg. A nil exec uses a ProcessExecutor on the
// parent's stdio.
func New(reg *registry.Registry, exec Executor, logger *slog.Logger) *Runner {
	if exec == nil {
		exec = &ProcessExecutor{}
	}
	return &Runner{
		reg:     reg,
		exec:    exec,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
		dataMap: map[string]string{},
	}
}

// WithJournal records every run in rec. Journal failures are logged, never
// returned.
func (r *Runner) WithJournal(rec history.Recorder) *Runner {
	r.journal = rec
	return r
}

// DataMap returns a copy of the carried data map.
func (r *Runner) DataMap() map[string]string {
	return maps.Clone(r.dataMap)
}

// SetDataMap seeds the data map sent with the next run.
func (r *Runner) SetDataMap(m map[string]string) {
	r.dataMap = maps.Clone(m)
	if r.dataMap == nil {
		r.dataMap = map[string]string{}
	}
}

// RunPrefix executes the first stopCount fragments in id order. A stopCount
// beyond the registry size runs every fragment. The parsed output is returned
// even when it carries an error message.
func (r *Runner) RunPrefix(ctx context.Context, stopCount int, fullContent, interpreter string) (*Output, error) {
	return r.run(ctx, history.ModePrefix, stopCount, fullContent, interpreter)
}

// RunAll executes every fragment and then requires that no error was reported
// and that content_index reached the end of fullContent, counted in code
// points.
func (r *Runner) RunAll(ctx context.Context, fullContent, interpreter string) (*Output, error) {
	ids, err := r.reg.ListIDs()
	if err != nil {
		return nil, err
	}
	return r.run(ctx, history.ModeAll, len(ids), fullContent, interpreter)
}

type runRecord struct {
	id        string
	logger    *slog.Logger
	fragments int
	exitCode  int
}

func (r *Runner) run(ctx context.Context, mode history.Mode, stopCount int, fullContent, interpreter string) (*Output, error) {
	rec := &runRecord{id: uuid.NewString()}
	rec.logger = r.logger.With(logging.String(logging.FieldRunID, rec.id))
	started := time.Now()

	out, err := r.execute(ctx, rec, stopCount, fullContent, interpreter)
	if err == nil && mode == history.ModeAll {
		if err = checkCompletion(out, fullContent); err != nil {
			r.transition(rec, StateRejected)
		} else {
			r.transition(rec, StateAccepted)
		}
	}

	duration := time.Since(started)
	r.report(rec, mode, err, duration)
	r.record(ctx, rec, mode, stopCount, fullContent, out, err, started, duration)
	return out, err
}

func (r *Runner) execute(ctx context.Context, rec *runRecord, stopCount int, fullContent, interpreter string) (*Output, error) {
	r.transition(rec, StateComposing)
	script, err := r.compose(rec, stopCount)
	if err != nil {
		return nil, err
	}
	payload, err := encodeInput(r.dataMap, fullContent)
	if err != nil {
		return nil, err
	}
	r.transition(rec, StateStaged)

	r.transition(rec, StateExecuting)
	outcome, err := r.exec.Execute(ctx, Invocation{Command: interpreter, Script: script, Payload: payload})
	rec.exitCode = outcome.ExitCode
	if err != nil {
		r.transition(rec, StateProcessFailed)
		return nil, classifyExecError(err, outcome, script)
	}
	if outcome.ExitCode != 0 {
		r.transition(rec, StateProcessFailed)
		return nil, &ExecutionError{
			Kind:     ErrNonZeroExit,
			ExitCode: outcome.ExitCode,
			Script:   script,
			Stderr:   outcome.Stderr,
		}
	}

	out, err := decodeOutput(outcome.Output)
	if err != nil {
		r.transition(rec, StateOutputUnparseable)
		return nil, &ExecutionError{
			Kind:   ErrOutputUnparseable,
			Script: script,
			Stderr: outcome.Stderr,
			Err:    err,
		}
	}
	r.transition(rec, StateSucceeded)

	r.dataMap = maps.Clone(out.DataMap)
	if out.ErrorMessage != "" {
		return out, &PipelineError{Kind: ErrReportedFailure, Message: out.ErrorMessage}
	}
	return out, nil
}

// compose loads the first stopCount fragment bodies and splices them into the
// runner. Each body is followed by a newline.
func (r *Runner) compose(rec *runRecord, stopCount int) (string, error) {
	if stopCount < 0 {
		return "", &registry.Error{Op: "run", ID: stopCount, Kind: registry.ErrInvalidID, Err: errors.New("stop count must not be negative")}
	}
	ids, err := r.reg.ListIDs()
	if err != nil {
		return "", err
	}
	if stopCount > len(ids) {
		stopCount = len(ids)
	}

	var combined strings.Builder
	for _, id := range ids[:stopCount] {
		body, err := r.reg.Fragment(id).Body()
		if err != nil {
			return "", err
		}
		combined.WriteString(body)
		combined.WriteByte('\n')
	}
	rec.fragments = stopCount

	script, err := template.ComposeRunner(combined.String())
	if err != nil {
		return "", fmt.Errorf("compose runner: %w", err)
	}
	return script, nil
}

func classifyExecError(err error, outcome Outcome, script string) error {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		execErr.Script = script
		if execErr.Stderr == "" {
			execErr.Stderr = outcome.Stderr
		}
		return execErr
	}
	kind := ErrLaunchFailed
	if outcome.ExitCode != 0 {
		kind = ErrNonZeroExit
	}
	return &ExecutionError{
		Kind:     kind,
		ExitCode: outcome.ExitCode,
		Script:   script,
		Stderr:   outcome.Stderr,
		Err:      err,
	}
}

func checkCompletion(out *Output, fullContent string) error {
	if out.ErrorMessage != "" {
		return &PipelineError{Kind: ErrReportedFailure, Message: out.ErrorMessage}
	}
	length := utf8.RuneCountInString(fullContent)
	if out.ContentIndex != length {
		return &PipelineError{Kind: ErrIncompleteConsumption, ContentIndex: out.ContentIndex, ContentLength: length}
	}
	return nil
}

func (r *Runner) transition(rec *runRecord, state State) {
	rec.logger.Debug("pipeline state", logging.String("state", string(state)))
}

func (r *Runner) report(rec *runRecord, mode history.Mode, err error, duration time.Duration) {
	attrs := []slog.Attr{
		logging.String("mode", string(mode)),
		logging.Int("fragments", rec.fragments),
		logging.String("status", string(history.StatusFor(err))),
		logging.Any("duration", duration.Round(time.Millisecond)),
	}
	if err == nil {
		rec.logger.Info("pipeline run finished", logging.Args(attrs...)...)
		return
	}
	attrs = append(attrs, logging.String("error_kind", history.KindOf(err)), logging.Error(firstLine(err)))
	rec.logger.Warn("pipeline run failed", logging.Args(attrs...)...)
}

func (r *Runner) record(ctx context.Context, rec *runRecord, mode history.Mode, stopCount int, fullContent string, out *Output, runErr error, started time.Time, duration time.Duration) {
	if r.journal == nil {
		return
	}
	entry := history.Entry{
		RunID:         rec.id,
		Mode:          mode,
		StopCount:     stopCount,
		FragmentCount: rec.fragments,
		Status:        history.StatusFor(runErr),
		ExitCode:      rec.exitCode,
		ContentLength: utf8.RuneCountInString(fullContent),
		StartedAt:     started,
		Duration:      duration,
	}
	if out != nil {
		entry.ContentIndex = out.ContentIndex
	}
	if runErr != nil {
		entry.ErrorKind = history.KindOf(runErr)
		entry.ErrorMessage = firstLine(runErr).Error()
	}
	// The journal outlives a cancelled run.
	if err := r.journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		logging.WarnWithContext(rec.logger, "failed to journal pipeline run", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history.path or disable history"),
		)
	}
}

// firstLine drops the script and stderr dumps that execution errors carry.
func firstLine(err error) error {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return errors.New(msg[:i])
	}
	return err
}
