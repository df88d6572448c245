// Package history journals pipeline runs in a SQLite database.
//
// One row is written per run with its outcome, exit code, fragment count and
// timings, so `optflow history` can show what was executed and how it ended.
// Request and response payloads are not stored. The schema is versioned; a
// database written by a different schema version is refused rather than
// migrated.
package history
