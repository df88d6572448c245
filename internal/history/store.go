package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Recorder accepts journal entries. The pipeline runner depends on this
// interface rather than on Store.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Store manages the run journal backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts one run.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if entry.RunID == "" {
		return errors.New("record run: run id required")
	}
	started := entry.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
            run_id, mode, stop_count, fragment_count, status, exit_code,
            error_kind, error_message, content_length, content_index,
            started_at, duration_ms
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Mode,
		entry.StopCount,
		entry.FragmentCount,
		entry.Status,
		entry.ExitCode,
		nullableString(entry.ErrorKind),
		nullableString(entry.ErrorMessage),
		entry.ContentLength,
		entry.ContentIndex,
		started.UTC().Format(time.RFC3339Nano),
		entry.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", entry.RunID, err)
	}
	return nil
}

const entryColumns = "run_id, mode, stop_count, fragment_count, status, exit_code, error_kind, error_message, content_length, content_index, started_at, duration_ms"

// List returns the most recent runs, newest first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Get returns a run by its run id.
func (s *Store) Get(ctx context.Context, runID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM runs WHERE run_id = ?`, runID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry      Entry
		mode       string
		status     string
		errorKind  sql.NullString
		errorMsg   sql.NullString
		startedRaw string
		durationMs int64
	)
	if err := scanner.Scan(
		&entry.RunID,
		&mode,
		&entry.StopCount,
		&entry.FragmentCount,
		&status,
		&entry.ExitCode,
		&errorKind,
		&errorMsg,
		&entry.ContentLength,
		&entry.ContentIndex,
		&startedRaw,
		&durationMs,
	); err != nil {
		return Entry{}, err
	}
	entry.Mode = Mode(mode)
	entry.Status = Status(status)
	entry.ErrorKind = errorKind.String
	entry.ErrorMessage = errorMsg.String
	entry.Duration = time.Duration(durationMs) * time.Millisecond
	if ts, err := time.Parse(time.RFC3339Nano, startedRaw); err == nil {
		entry.StartedAt = ts
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
