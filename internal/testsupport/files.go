package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// WriteFragments creates opt-<id>.py files in dir with the given bodies.
func WriteFragments(t testing.TB, dir string, bodies map[int]string) {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for id, body := range bodies {
		WriteFile(t, FragmentPath(dir, id), body)
	}
}

// FragmentPath returns where the registry stores fragment id.
func FragmentPath(dir string, id int) string {
	return filepath.Join(dir, "opt-"+strconv.Itoa(id)+".py")
}

// ReadFragment returns the stored body of fragment id, failing the test when
// the file is missing.
func ReadFragment(t testing.TB, dir string, id int) string {
	t.Helper()

	data, err := os.ReadFile(FragmentPath(dir, id))
	if err != nil {
		t.Fatalf("read fragment %d: %v", id, err)
	}
	return string(data)
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
