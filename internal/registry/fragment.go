package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"optflow/internal/fileutil"
	"optflow/internal/template"
)

// Fragment is a handle on one slot of the registry. The slot may not have a
// backing file yet, e.g. right after Insert.
type Fragment struct {
	id  int
	dir string
}

// ID returns the fragment's position in the pipeline.
func (f *Fragment) ID() int { return f.id }

// Path returns the backing file path, whether or not it exists.
func (f *Fragment) Path() string { return filepath.Join(f.dir, FileName(f.id)) }

// Exists reports whether the backing file is present. A stat failure other
// than a missing file is returned.
func (f *Fragment) Exists() (bool, error) {
	ok, err := fileutil.Exists(f.Path())
	if err != nil {
		return false, fmt.Errorf("stat opt-%d: %w", f.id, err)
	}
	return ok, nil
}

// Body returns the stored fragment code.
func (f *Fragment) Body() (string, error) {
	data, err := os.ReadFile(f.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &Error{Op: "read", ID: f.id, Kind: ErrNotFound}
		}
		return "", fmt.Errorf("read opt-%d: %w", f.id, err)
	}
	return string(data), nil
}

// EditView returns what an editor session should open: the boilerplate, the
// marker line and the current body (or the default template for an empty slot).
func (f *Fragment) EditView() (string, error) {
	ok, err := f.Exists()
	if err != nil {
		return "", err
	}
	if !ok {
		return template.PresentForEdit(nil), nil
	}
	body, err := f.Body()
	if err != nil {
		return "", err
	}
	return template.PresentForEdit(&body), nil
}

// RunnerView returns the full runner script this fragment would execute in
// if it were the only one in the pipeline.
func (f *Fragment) RunnerView() (string, error) {
	body, err := f.Body()
	if err != nil {
		return "", err
	}
	return template.ComposeRunner(body + "\n")
}

// Save extracts the body from an edited view and writes it. When validation
// fails the file on disk is left untouched.
func (f *Fragment) Save(view string) error {
	body, err := template.ExtractForSave(view)
	if err != nil {
		return fmt.Errorf("save opt-%d: %w", f.id, err)
	}
	return f.write(body)
}

// SetBody stores body directly, bypassing the editor view. Blank bodies are
// rejected the same way Save rejects them.
func (f *Fragment) SetBody(body string) error {
	if _, err := template.ExtractForSave(template.PresentForEdit(&body)); err != nil {
		return fmt.Errorf("save opt-%d: %w", f.id, err)
	}
	return f.write(body)
}

func (f *Fragment) write(body string) error {
	if err := fileutil.WriteFileAtomic(f.Path(), []byte(body), 0o644); err != nil {
		return fmt.Errorf("write opt-%d: %w", f.id, err)
	}
	return nil
}

// Equal reports whether both fragments hold the same body.
func (f *Fragment) Equal(other *Fragment) (bool, error) {
	a, err := f.Body()
	if err != nil {
		return false, err
	}
	b, err := other.Body()
	if err != nil {
		return false, err
	}
	return a == b, nil
}

// rename moves the backing file to newID. A missing source counts as already
// moved. An occupied target is never overwritten.
func (f *Fragment) rename(newID int) (moved bool, err error) {
	if newID == f.id {
		return false, nil
	}
	src := f.Path()
	dst := filepath.Join(f.dir, FileName(newID))
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if ok, _ := fileutil.Exists(dst); ok {
		return false, &Error{Op: "rename", ID: f.id, Kind: ErrRenameFailed, Err: fmt.Errorf("target %s already exists", FileName(newID))}
	}
	if err := os.Rename(src, dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &Error{Op: "rename", ID: f.id, Kind: ErrRenameFailed, Err: err}
	}
	f.id = newID
	return true, nil
}
