package config

import (
	"fmt"
	"os"
	"strings"
)

// Normalize expands paths and fills blank values with defaults or environment
// fallbacks. Load calls it; the CLI calls it again after applying flag overrides.
func (c *Config) Normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCommands()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	if c.Watch.DebounceMillis <= 0 {
		c.Watch.DebounceMillis = defaultDebounceMillis
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OptDir) == "" {
		c.Paths.OptDir = defaultOptDir
	}
	if c.Paths.OptDir, err = expandPath(strings.TrimSpace(c.Paths.OptDir)); err != nil {
		return fmt.Errorf("paths.opt_dir: %w", err)
	}
	if c.Paths.Source, err = expandPath(strings.TrimSpace(c.Paths.Source)); err != nil {
		return fmt.Errorf("paths.source: %w", err)
	}
	if c.Paths.Output, err = expandPath(strings.TrimSpace(c.Paths.Output)); err != nil {
		return fmt.Errorf("paths.output: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCommands() {
	c.Commands.Runner = strings.TrimSpace(c.Commands.Runner)
	if c.Commands.Runner == "" {
		c.Commands.Runner = firstEnv(defaultRunner, "OPTFLOW_RUNNER")
	}
	c.Commands.Editor = strings.TrimSpace(c.Commands.Editor)
	if c.Commands.Editor == "" {
		c.Commands.Editor = firstEnv(defaultEditor, "VISUAL", "EDITOR")
	}
	c.Commands.Viewer = strings.TrimSpace(c.Commands.Viewer)
	if c.Commands.Viewer == "" {
		c.Commands.Viewer = c.Commands.Editor
	}
}

func firstEnv(fallback string, keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return fallback
}

func (c *Config) normalizeHistory() error {
	if !c.History.Enabled {
		return nil
	}
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
