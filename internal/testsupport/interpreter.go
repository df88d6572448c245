package testsupport

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// StubInterpreter writes a POSIX shell script standing in for the Python
// interpreter and returns its path. The script receives the runner script path
// as $1 and the request JSON as $2, with OUTPUT_FILE set in the environment.
func StubInterpreter(t testing.TB, body string) string {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "interp.sh")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub interpreter: %v", err)
	}
	return path
}

// RespondingInterpreter returns a stub that writes response to $OUTPUT_FILE and
// exits zero.
func RespondingInterpreter(t testing.TB, response string) string {
	t.Helper()
	return StubInterpreter(t, "cat > \"$OUTPUT_FILE\" <<'JSON'\n"+response+"\nJSON")
}

// RequirePython skips the test unless python3 is on PATH and returns its path.
func RequirePython(t testing.TB) string {
	t.Helper()

	path, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}
	return path
}
