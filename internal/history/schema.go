package history

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// journalVersion is stored in the database's user_version header. Bump it
// whenever schema.sql changes; old journals are refused, not migrated.
const journalVersion = 1

// ErrSchemaMismatch is returned when the journal file was written by a
// different schema, or is not a journal at all.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// initSchema creates the runs table in an empty database and otherwise checks
// that user_version matches journalVersion.
func (s *Store) initSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read journal version: %w", err)
	}
	switch {
	case version == journalVersion:
		return nil
	case version != 0:
		return s.mismatch(fmt.Sprintf("journal version %d, expected %d", version, journalVersion))
	}

	var tables int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table'",
	).Scan(&tables); err != nil {
		return fmt.Errorf("inspect journal tables: %w", err)
	}
	if tables > 0 {
		return s.mismatch("database has tables but no journal version")
	}
	return s.createSchema(ctx)
}

func (s *Store) mismatch(detail string) error {
	return fmt.Errorf("%w: %s (delete %s to start a new journal)", ErrSchemaMismatch, detail, s.path)
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal schema: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", journalVersion)); err != nil {
		return fmt.Errorf("stamp journal version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal schema: %w", err)
	}
	return nil
}
