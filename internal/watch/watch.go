// Package watch re-triggers work when fragment or document files change.
//
// Directories are watched rather than individual files because editors
// commonly save by writing a new file and renaming it over the old one, which
// would silently drop a per-file watch.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"optflow/internal/logging"
)

const defaultDebounce = 300 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Dirs are watched for any file matching Match.
	Dirs []string
	// Files are watched individually by name through their parent directory.
	Files []string
	// Match filters events inside Dirs. Nil matches every file.
	Match func(path string) bool
	// Debounce is how long events must settle before the callback fires.
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher batches filesystem events and hands them to a callback.
type Watcher struct {
	fs       *fsnotify.Watcher
	dirs     map[string]bool
	files    map[string]bool
	match    func(string) bool
	debounce time.Duration
	logger   *slog.Logger
}

// New starts watching the configured paths. Close releases the watches.
func New(opts Options) (*Watcher, error) {
	if len(opts.Dirs) == 0 && len(opts.Files) == 0 {
		return nil, errors.New("watch: nothing to watch")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fs:       fsw,
		dirs:     map[string]bool{},
		files:    map[string]bool{},
		match:    opts.Match,
		debounce: opts.Debounce,
		logger:   logging.NewComponentLogger(opts.Logger, "watch"),
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}

	watched := map[string]bool{}
	add := func(dir string) error {
		if watched[dir] {
			return nil
		}
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		watched[dir] = true
		return nil
	}
	for _, dir := range opts.Dirs {
		dir = filepath.Clean(dir)
		w.dirs[dir] = true
		if err := add(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	for _, file := range opts.Files {
		file = filepath.Clean(file)
		w.files[file] = true
		if err := add(filepath.Dir(file)); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run blocks until ctx is cancelled, calling onChange with the sorted set of
// changed paths once events have been quiet for the debounce interval. A
// callback error is logged and watching continues.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, changed []string) error) error {
	pending := map[string]bool{}
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("change detected", logging.String("path", event.Name), logging.String("op", event.Op.String()))
			pending[event.Name] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "watch error", "watch_error", logging.Error(err))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			slices.Sort(changed)
			clear(pending)
			if err := onChange(ctx, changed); err != nil {
				w.logger.Warn("change handler failed", logging.Error(err))
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	if w.files[name] {
		return true
	}
	if !w.dirs[filepath.Dir(name)] {
		return false
	}
	return w.match == nil || w.match(name)
}
