package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"optflow/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp paths per test. The
// fragment directory is created; source and output files are not.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OptDir = filepath.Join(base, "opts")
	cfgVal.Paths.Source = filepath.Join(base, "source.txt")
	cfgVal.Paths.Output = filepath.Join(base, "output.txt")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.History.Path = filepath.Join(base, "history.db")
	cfgVal.Commands.Runner = "python3"
	cfgVal.Commands.Editor = "true"
	cfgVal.Commands.Viewer = "true"

	if err := os.MkdirAll(cfgVal.Paths.OptDir, 0o755); err != nil {
		t.Fatalf("mkdir opt dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRunner overrides the interpreter command line.
func WithRunner(command string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Commands.Runner = command
	}
}

// WithEditor overrides both the editor and viewer command lines.
func WithEditor(command string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Commands.Editor = command
		b.cfg.Commands.Viewer = command
	}
}

// WithSource writes content to the configured source document.
func WithSource(content string) ConfigOption {
	return func(b *configBuilder) {
		if err := os.WriteFile(b.cfg.Paths.Source, []byte(content), 0o644); err != nil {
			b.t.Fatalf("write source: %v", err)
		}
	}
}

// WithoutHistory disables the run journal.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, python3 and vim are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"python3", "vim"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OptDir)
}
