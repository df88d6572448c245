package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"optflow/internal/config"
	"optflow/internal/editor"
	"optflow/internal/fileutil"
	"optflow/internal/history"
	"optflow/internal/logging"
	"optflow/internal/pipeline"
	"optflow/internal/registry"
)

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the config file, applies flag overrides and validates the
// result once per process.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		c.applyOverrides(cfg)
		if err := cfg.Normalize(); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) applyOverrides(cfg *config.Config) {
	set := func(dst *string, value string) {
		if v := strings.TrimSpace(value); v != "" {
			*dst = v
		}
	}
	previousEditor := cfg.Commands.Editor
	set(&cfg.Paths.OptDir, c.flags.opt)
	set(&cfg.Paths.Source, c.flags.source)
	set(&cfg.Paths.Output, c.flags.output)
	set(&cfg.Commands.Editor, c.flags.editor)
	set(&cfg.Commands.Viewer, c.flags.viewer)
	set(&cfg.Commands.Runner, c.flags.runner)
	// A viewer that was only inheriting the editor follows an --editor override.
	if strings.TrimSpace(c.flags.viewer) == "" && cfg.Commands.Viewer == previousEditor {
		cfg.Commands.Viewer = cfg.Commands.Editor
	}
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.configValue())
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) openRegistry() (*registry.Registry, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return registry.Open(cfg.Paths.OptDir, c.log())
}

// newRunner builds a pipeline runner wired to the command's stdio and, when
// enabled, the run journal. Interpreter stdout goes to stderr so stdout only
// carries command output. The returned close function is always non-nil.
func (c *commandContext) newRunner(ctx context.Context, cmd *cobra.Command, reg *registry.Registry) (*pipeline.Runner, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, func() {}, err
	}
	exec := &pipeline.ProcessExecutor{
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.ErrOrStderr(),
		Stderr: cmd.ErrOrStderr(),
	}
	runner := pipeline.New(reg, exec, c.log())
	if !cfg.History.Enabled {
		return runner, func() {}, nil
	}

	store, err := history.Open(ctx, cfg.History.Path)
	if err != nil {
		logging.WarnWithContext(c.log(), "run journal unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "set history.enabled = false to silence this warning"),
		)
		return runner, func() {}, nil
	}
	return runner.WithJournal(store), func() { _ = store.Close() }, nil
}

func (c *commandContext) terminal(cmd *cobra.Command) editor.Terminal {
	return editor.Terminal{
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}
}

// requirePaths fails when any of paths is missing, listing all of them.
func requirePaths(paths ...namedPath) error {
	var missing []string
	for _, p := range paths {
		if p.path == "" {
			missing = append(missing, fmt.Sprintf("%s (not configured)", p.name))
			continue
		}
		if len(fileutil.MissingPaths(p.path)) > 0 {
			missing = append(missing, fmt.Sprintf("%s %s", p.name, p.path))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("the following paths do not exist: %s", strings.Join(missing, ", "))
}

type namedPath struct {
	name string
	path string
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func validateStep(step int) error {
	if step < 0 {
		return errors.New("--step must not be negative")
	}
	return nil
}
