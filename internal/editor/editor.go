// Package editor opens fragment text in an external editor or viewer.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"optflow/internal/deps"
	"optflow/internal/fileutil"
)

// Terminal is the stdio an editor session is attached to. Nil fields use the
// process's own streams.
type Terminal struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Edit opens content with the process terminal and returns the edited text.
func Edit(ctx context.Context, launcher, content string) (string, error) {
	return Terminal{}.Edit(ctx, launcher, content)
}

// View opens content with the process terminal and discards any changes.
func View(ctx context.Context, launcher, content string) error {
	return Terminal{}.View(ctx, launcher, content)
}

// Edit writes content to a temporary .py file, runs `<launcher...> <file>` and
// reads the file back once the launcher exits.
func (t Terminal) Edit(ctx context.Context, launcher, content string) (string, error) {
	var edited string
	err := t.session(ctx, launcher, content, func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read edited file: %w", err)
		}
		edited = string(data)
		return nil
	})
	return edited, err
}

// View runs the launcher on a temporary copy of content.
func (t Terminal) View(ctx context.Context, launcher, content string) error {
	return t.session(ctx, launcher, content, nil)
}

func (t Terminal) session(ctx context.Context, launcher, content string, after func(path string) error) error {
	binary, args, err := deps.SplitCommand(launcher)
	if err != nil {
		return fmt.Errorf("editor command: %w", err)
	}

	path, err := fileutil.WriteTemp("optflow-*.py", []byte(content))
	if err != nil {
		return fmt.Errorf("stage editor file: %w", err)
	}
	defer os.Remove(path)

	cmd := exec.CommandContext(ctx, binary, append(args, path)...) //nolint:gosec
	cmd.Stdin = pick[io.Reader](t.Stdin, os.Stdin)
	cmd.Stdout = pick[io.Writer](t.Stdout, os.Stdout)
	cmd.Stderr = pick[io.Writer](t.Stderr, os.Stderr)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s exited with status %d", binary, exitErr.ExitCode())
		}
		return fmt.Errorf("launch %s: %w", binary, err)
	}

	if after == nil {
		return nil
	}
	return after(path)
}

func pick[T comparable](value, fallback T) T {
	var zero T
	if value == zero {
		return fallback
	}
	return value
}
