package history_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"optflow/internal/extract"
	"optflow/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()

	store, err := history.Open(context.Background(), filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestRecordAndList(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := range 3 {
		entry := history.Entry{
			RunID:         fmt.Sprintf("run-%d", i),
			Mode:          history.ModeAll,
			StopCount:     2,
			FragmentCount: 2,
			Status:        history.StatusAccepted,
			ContentLength: 10,
			ContentIndex:  10,
			StartedAt:     base.Add(time.Duration(i) * time.Minute),
			Duration:      1500 * time.Millisecond,
		}
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	entries, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RunID != "run-2" || entries[1].RunID != "run-1" {
		t.Fatalf("expected newest first, got %s, %s", entries[0].RunID, entries[1].RunID)
	}
	if entries[0].Duration != 1500*time.Millisecond {
		t.Fatalf("duration = %v", entries[0].Duration)
	}
	if !entries[0].StartedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("started_at = %v", entries[0].StartedAt)
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List(0) failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected all 3 entries, got %d", len(all))
	}
}

func TestRecordKeepsErrorDetail(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	entry := history.Entry{
		RunID:        "failed-run",
		Mode:         history.ModePrefix,
		StopCount:    1,
		Status:       history.StatusFailed,
		ExitCode:     2,
		ErrorKind:    "execution",
		ErrorMessage: "interpreter exited with status 2",
	}
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := store.Get(ctx, "failed-run")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected entry")
	}
	if got.ExitCode != 2 || got.ErrorKind != "execution" || got.ErrorMessage != entry.ErrorMessage || got.Mode != history.ModePrefix {
		t.Fatalf("unexpected entry: %#v", got)
	}
	if got.StartedAt.IsZero() {
		t.Fatal("expected started_at to default to now")
	}

	missing, err := store.Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("Get(nope) = %#v, %v", missing, err)
	}
}

func TestRecordRequiresRunID(t *testing.T) {
	store := openStore(t)
	if err := store.Record(context.Background(), history.Entry{}); err == nil {
		t.Fatal("expected error without run id")
	}
}

func TestRecordRejectsDuplicateRunID(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	entry := history.Entry{RunID: "dup", Mode: history.ModeAll, Status: history.StatusAccepted}
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, entry); err == nil {
		t.Fatal("expected unique constraint violation")
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := history.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Record(ctx, history.Entry{RunID: "a", Mode: history.ModeAll, Status: history.StatusAccepted}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	store.Close()

	reopened, err := history.Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	entries, err := reopened.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after reopen, got %d", len(entries))
	}
}

func execRaw(t *testing.T, path, stmt string) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(stmt); err != nil {
		t.Fatalf("exec %q: %v", stmt, err)
	}
}

func TestOpenRefusesOtherJournalVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := history.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	store.Close()
	execRaw(t, path, "PRAGMA user_version = 99")

	if _, err := history.Open(ctx, path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestOpenRefusesForeignDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.db")
	execRaw(t, path, "CREATE TABLE notes (body TEXT)")

	_, err := history.Open(context.Background(), path)
	if !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

type kindError struct{ kind string }

func (e kindError) Error() string     { return e.kind }
func (e kindError) ErrorKind() string { return e.kind }

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want history.Status
	}{
		{"nil", nil, history.StatusAccepted},
		{"pipeline", kindError{"pipeline"}, history.StatusRejected},
		{"wrapped pipeline", fmt.Errorf("run: %w", kindError{"pipeline"}), history.StatusRejected},
		{"execution", kindError{"execution"}, history.StatusFailed},
		{"extraction", &extract.Error{Kind: extract.ErrStartNotFound, Marker: "x"}, history.StatusFailed},
		{"plain", errors.New("boom"), history.StatusFailed},
	}
	for _, tt := range tests {
		if got := history.StatusFor(tt.err); got != tt.want {
			t.Errorf("%s: StatusFor = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	if got := history.KindOf(nil); got != "" {
		t.Fatalf("KindOf(nil) = %q", got)
	}
	if got := history.KindOf(errors.New("x")); got != "unknown" {
		t.Fatalf("KindOf(plain) = %q", got)
	}
	if got := history.KindOf(fmt.Errorf("wrap: %w", kindError{"registry"})); got != "registry" {
		t.Fatalf("KindOf(wrapped) = %q", got)
	}
}
