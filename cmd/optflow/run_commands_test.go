package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"optflow/internal/testsupport"
)

func TestRunWritesOutput(t *testing.T) {
	runner := testsupport.RespondingInterpreter(t, `{"data_map":{"k":"v"},"content_index":5,"new_content":"HELLO","error_message":""}`)
	env := setupCLITestEnv(t, testsupport.WithRunner(runner), testsupport.WithSource("hello"))
	testsupport.WriteFile(t, env.cfg.Paths.Output, "")
	testsupport.WriteFragments(t, env.cfg.Paths.OptDir, map[int]string{0: "pass"})

	out, _, err := runCLI(t, env, "run")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, `Data map: {"k":"v"}`)
	data, err := os.ReadFile(env.cfg.Paths.Output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "HELLO" {
		t.Fatalf("output = %q", data)
	}
}

func TestRunRequiresPaths(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithSource("hello"))

	_, _, err := runCLI(t, env, "run")
	if err == nil {
		t.Fatal("expected missing output error")
	}
	requireContains(t, err.Error(), "do not exist")
	requireContains(t, err.Error(), env.cfg.Paths.Output)
}

func TestRunIncompleteIsRejectedAndJournaled(t *testing.T) {
	runner := testsupport.RespondingInterpreter(t, `{"data_map":{},"content_index":2,"new_content":"he","error_message":""}`)
	env := setupCLITestEnv(t, testsupport.WithRunner(runner), testsupport.WithSource("hello"))
	testsupport.WriteFile(t, env.cfg.Paths.Output, "untouched")
	testsupport.WriteFragments(t, env.cfg.Paths.OptDir, map[int]string{0: "pass"})

	_, _, err := runCLI(t, env, "run")
	if err == nil {
		t.Fatal("expected incomplete consumption error")
	}
	requireContains(t, err.Error(), "did not consume")

	data, readErr := os.ReadFile(env.cfg.Paths.Output)
	if readErr != nil {
		t.Fatalf("read output: %v", readErr)
	}
	if string(data) != "untouched" {
		t.Fatalf("output must not be written on a rejected run, got %q", data)
	}

	out, _, err := runCLI(t, env, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "rejected")
	requireContains(t, out, "2/5")
}

func TestRunPrefixStep(t *testing.T) {
	record := filepath.Join(t.TempDir(), "script")
	runner := testsupport.StubInterpreter(t, fmt.Sprintf(`cp "$1" %q; printf '{"data_map":{},"content_index":0,"new_content":"","error_message":""}' > "$OUTPUT_FILE"`, record))
	env := setupCLITestEnv(t, testsupport.WithRunner(runner), testsupport.WithSource("doc"))
	testsupport.WriteFile(t, env.cfg.Paths.Output, "")
	testsupport.WriteFragments(t, env.cfg.Paths.OptDir, map[int]string{0: "step_zero = 0", 1: "step_one = 1"})

	if _, _, err := runCLI(t, env, "run", "--step", "1"); err != nil {
		t.Fatalf("run --step: %v", err)
	}
	data, err := os.ReadFile(record)
	if err != nil {
		t.Fatalf("read staged script: %v", err)
	}
	if !strings.Contains(string(data), "step_zero = 0") || strings.Contains(string(data), "step_one") {
		t.Fatalf("prefix run staged the wrong fragments:\n%s", data)
	}
}

func TestPreviewPrintsContent(t *testing.T) {
	runner := testsupport.RespondingInterpreter(t, `{"data_map":{},"content_index":3,"new_content":"previewed text","error_message":""}`)
	env := setupCLITestEnv(t, testsupport.WithRunner(runner), testsupport.WithSource("abc"))
	testsupport.WriteFragments(t, env.cfg.Paths.OptDir, map[int]string{0: "pass"})

	out, _, err := runCLI(t, env, "preview")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	requireContains(t, out, "previewed text")
	if _, err := os.Stat(env.cfg.Paths.Output); !os.IsNotExist(err) {
		t.Fatal("preview must not create the output file")
	}
}

func TestRunWithRunnerFlagOverride(t *testing.T) {
	runner := testsupport.RespondingInterpreter(t, `{"data_map":{},"content_index":0,"new_content":"","error_message":"boom from runner"}`)
	env := setupCLITestEnv(t, testsupport.WithSource(""))
	testsupport.WriteFile(t, env.cfg.Paths.Output, "")

	_, _, err := runCLI(t, env, "--runner", runner, "run")
	if err == nil {
		t.Fatal("expected reported failure")
	}
	requireContains(t, err.Error(), "boom from runner")
}

func TestIsFragmentFile(t *testing.T) {
	if !isFragmentFile("/tmp/opts/opt-3.py") {
		t.Fatal("opt-3.py should match")
	}
	if isFragmentFile("/tmp/opts/.opt-3.py.123.tmp") || isFragmentFile("/tmp/opts/.optflow.lock") {
		t.Fatal("temp and lock files should not match")
	}
}
