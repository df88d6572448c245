package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"optflow/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"OPTFLOW_RUNNER", "VISUAL", "EDITOR"} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
	return home
}

func TestLoadDefaultsExpandsPaths(t *testing.T) {
	home := isolateEnv(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(home, ".config", "optflow", "config.toml"); resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}
	if want := filepath.Join(home, ".local", "share", "optflow", "opts"); cfg.Paths.OptDir != want {
		t.Fatalf("opt dir = %q, want %q", cfg.Paths.OptDir, want)
	}
	if cfg.Commands.Runner != "python3" {
		t.Fatalf("runner = %q, want python3", cfg.Commands.Runner)
	}
	if cfg.Commands.Editor != "vim" || cfg.Commands.Viewer != "vim" {
		t.Fatalf("editor/viewer = %q/%q, want vim/vim", cfg.Commands.Editor, cfg.Commands.Viewer)
	}
	if !cfg.History.Enabled || !filepath.IsAbs(cfg.History.Path) {
		t.Fatalf("unexpected history config: %+v", cfg.History)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Watch.DebounceMillis != 300 {
		t.Fatalf("debounce = %d, want 300", cfg.Watch.DebounceMillis)
	}
}

func TestLoadFromFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "optflow.toml")
	content := `
[paths]
opt_dir = "` + filepath.Join(dir, "opts") + `"
source = "` + filepath.Join(dir, "in.txt") + `"
output = "` + filepath.Join(dir, "out.txt") + `"

[commands]
runner = "  python3 -X utf8  "
editor = "nano"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Commands.Runner != "python3 -X utf8" {
		t.Fatalf("runner = %q", cfg.Commands.Runner)
	}
	if cfg.Commands.Viewer != "nano" {
		t.Fatalf("viewer should fall back to editor, got %q", cfg.Commands.Viewer)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging not normalized: %+v", cfg.Logging)
	}
	if cfg.Paths.Source != filepath.Join(dir, "in.txt") {
		t.Fatalf("source = %q", cfg.Paths.Source)
	}
}

func TestLoadUsesEnvironmentFallbacks(t *testing.T) {
	isolateEnv(t)
	t.Setenv("OPTFLOW_RUNNER", "python3.12")
	t.Setenv("EDITOR", "nvim")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Commands.Runner != "python3.12" {
		t.Fatalf("runner = %q, want env value", cfg.Commands.Runner)
	}
	if cfg.Commands.Editor != "nvim" || cfg.Commands.Viewer != "nvim" {
		t.Fatalf("editor/viewer = %q/%q", cfg.Commands.Editor, cfg.Commands.Viewer)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	isolateEnv(t)
	cases := map[string]string{
		"bad format":      "[logging]\nformat = \"xml\"\n",
		"bad level":       "[logging]\nlevel = \"loud\"\n",
		"unknown key":     "[paths]\nfragments = \"x\"\n",
		"same in and out": "[paths]\nsource = \"/tmp/doc.txt\"\noutput = \"/tmp/doc.txt\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestSampleConfigParses(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if !strings.Contains(decoded.Paths.OptDir, "optflow") {
		t.Fatalf("unexpected sample opt_dir %q", decoded.Paths.OptDir)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("Load(sample) returned error: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OptDir = filepath.Join(base, "opts")
	cfg.History.Path = filepath.Join(base, "state", "history.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OptDir, filepath.Dir(cfg.History.Path)} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}

func TestExpandPathTilde(t *testing.T) {
	home := isolateEnv(t)
	got, err := config.ExpandPath("~/opts")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "opts") {
		t.Fatalf("ExpandPath = %q", got)
	}
}
