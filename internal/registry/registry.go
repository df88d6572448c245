package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"optflow/internal/logging"
)

const (
	filePrefix = "opt-"
	fileSuffix = ".py"
	lockName   = ".optflow.lock"
)

// Registry is the ordered, file-backed collection of fragments in one directory.
type Registry struct {
	dir    string
	logger *slog.Logger
	lock   *flock.Flock
}

// Open returns a registry over dir, which must already exist.
func Open(dir string, logger *slog.Logger) (*Registry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open fragment directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open fragment directory: %s is not a directory", dir)
	}
	return &Registry{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "registry"),
		lock:   flock.New(filepath.Join(dir, lockName)),
	}, nil
}

// Dir returns the backing directory.
func (r *Registry) Dir() string { return r.dir }

// FileName returns the file name used for id.
func FileName(id int) string {
	return filePrefix + strconv.Itoa(id) + fileSuffix
}

// ParseFileName extracts the id from a fragment file name. Only canonical
// decimal ids are accepted, so "opt-01.py" and "opt--1.py" are not fragments.
func ParseFileName(name string) (int, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return 0, false
	}
	digits := name[len(filePrefix) : len(name)-len(fileSuffix)]
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.Atoi(digits)
	if err != nil || strconv.Itoa(id) != digits {
		return 0, false
	}
	return id, true
}

// ListIDs scans the directory and returns fragment ids in ascending order.
func (r *Registry) ListIDs() ([]int, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read fragment directory %s: %w", r.dir, err)
	}
	ids := make([]int, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if id, ok := ParseFileName(entry.Name()); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// Fragment returns a handle for id without checking that it exists.
func (r *Registry) Fragment(id int) *Fragment {
	return &Fragment{id: id, dir: r.dir}
}

// Get returns the fragment for id when its file exists.
func (r *Registry) Get(id int) (*Fragment, bool, error) {
	ids, err := r.ListIDs()
	if err != nil {
		return nil, false, err
	}
	if _, found := slices.BinarySearch(ids, id); !found {
		return nil, false, nil
	}
	return r.Fragment(id), true, nil
}

// Insert reserves slot id. When id is taken, every fragment at or above it moves
// up one slot, largest first, so nothing is overwritten. A failed rename stops
// the shift and may leave it partially applied. The returned fragment has no
// backing file until a body is saved.
func (r *Registry) Insert(id int) (*Fragment, error) {
	if id < 0 {
		return nil, &Error{Op: "insert", ID: id, Kind: ErrInvalidID}
	}
	var frag *Fragment
	err := r.withLock("insert", id, func() error {
		var err error
		frag, err = r.insertLocked(id)
		return err
	})
	return frag, err
}

// Append reserves the slot after the last fragment, assuming ids start at 0.
// When they do not, the chosen slot may already be taken and Insert's shifting
// applies.
func (r *Registry) Append() (*Fragment, error) {
	var frag *Fragment
	err := r.withLock("append", -1, func() error {
		ids, err := r.ListIDs()
		if err != nil {
			return err
		}
		frag, err = r.insertLocked(len(ids))
		return err
	})
	return frag, err
}

func (r *Registry) insertLocked(id int) (*Fragment, error) {
	ids, err := r.ListIDs()
	if err != nil {
		return nil, err
	}
	pos, occupied := slices.BinarySearch(ids, id)
	if occupied {
		r.logger.Info("fragment slot occupied, shifting later fragments",
			logging.Int(logging.FieldFragmentID, id),
			logging.Int("shifted", len(ids)-pos),
		)
		for i := len(ids) - 1; i >= pos; i-- {
			frag := r.Fragment(ids[i])
			if _, err := frag.rename(ids[i] + 1); err != nil {
				r.logger.Error("fragment shift failed",
					logging.Int(logging.FieldFragmentID, ids[i]),
					logging.String(logging.FieldEventType, "shift_failed"),
					logging.String(logging.FieldErrorHint, "run `optflow resequence` after fixing the directory"),
					logging.Error(err),
				)
				return nil, err
			}
			r.logger.Debug("fragment shifted", logging.Int(logging.FieldFragmentID, ids[i]), logging.Int("new_id", ids[i]+1))
		}
	}
	return r.Fragment(id), nil
}

// Remove deletes fragment id and resequences the rest. It reports false when
// id does not exist.
func (r *Registry) Remove(id int) (bool, error) {
	removed := false
	err := r.withLock("remove", id, func() error {
		ids, err := r.ListIDs()
		if err != nil {
			return err
		}
		if _, found := slices.BinarySearch(ids, id); !found {
			return nil
		}
		if err := os.Remove(r.Fragment(id).Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove opt-%d: %w", id, err)
		}
		removed = true
		r.logger.Info("fragment removed", logging.Int(logging.FieldFragmentID, id))
		_, err = r.resequenceLocked()
		return err
	})
	return removed, err
}

// Resequence closes gaps in the id sequence while preserving order. The
// highest id becomes len(ids), the lowest becomes 1. Ids that are already
// contiguous are left alone, which makes the call idempotent.
func (r *Registry) Resequence() ([]int, error) {
	var ids []int
	err := r.withLock("resequence", -1, func() error {
		var err error
		ids, err = r.resequenceLocked()
		return err
	})
	return ids, err
}

func (r *Registry) resequenceLocked() ([]int, error) {
	ids, err := r.ListIDs()
	if err != nil {
		return nil, err
	}
	if contiguous(ids) {
		return ids, nil
	}

	// Slot i gets id i+1. The offset id-(i+1) never decreases with i, so the
	// ids moving up form a prefix and the ids moving down a suffix. Moving the
	// prefix from its top and the suffix from its bottom keeps every target free.
	split := 0
	for split < len(ids) && ids[split] < split+1 {
		split++
	}
	order := make([]int, 0, len(ids))
	for i := split - 1; i >= 0; i-- {
		order = append(order, i)
	}
	for i := split; i < len(ids); i++ {
		order = append(order, i)
	}

	for _, i := range order {
		target := i + 1
		moved, err := r.Fragment(ids[i]).rename(target)
		if err != nil {
			logging.WarnWithContext(r.logger, "resequence rename failed", "rename_failed",
				logging.Int(logging.FieldFragmentID, ids[i]),
				logging.Int("new_id", target),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run resequence again once the directory is stable"),
			)
			return nil, err
		}
		if moved {
			r.logger.Debug("fragment resequenced", logging.Int(logging.FieldFragmentID, ids[i]), logging.Int("new_id", target))
		}
	}
	return r.ListIDs()
}

func contiguous(ids []int) bool {
	for i := 1; i < len(ids); i++ {
		if ids[i]-ids[i-1] != 1 {
			return false
		}
	}
	return true
}

func (r *Registry) withLock(op string, id int, fn func() error) error {
	ok, err := r.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire fragment directory lock: %w", err)
	}
	if !ok {
		return &Error{Op: op, ID: id, Kind: ErrLocked}
	}
	defer func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("failed to release fragment directory lock", logging.Error(err))
		}
	}()
	return fn()
}
