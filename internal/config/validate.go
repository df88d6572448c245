package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCommands(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OptDir) == "" {
		return errors.New("paths.opt_dir must be set")
	}
	if c.Paths.Source != "" && c.Paths.Source == c.Paths.Output {
		return errors.New("paths.source and paths.output must differ")
	}
	return nil
}

func (c *Config) validateCommands() error {
	for key, value := range map[string]string{
		"commands.editor": c.Commands.Editor,
		"commands.viewer": c.Commands.Viewer,
		"commands.runner": c.Commands.Runner,
	} {
		if len(strings.Fields(value)) == 0 {
			return fmt.Errorf("%s must be set", key)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
