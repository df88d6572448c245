// Package registry stores pipeline fragments as numbered files in a directory.
//
// Each fragment lives in <dir>/opt-<id>.py. The directory listing is the only
// index: every call rescans it, so there is no state to drift out of sync with
// manual edits. After every mutating call the ids, sorted ascending, are
// contiguous. Insert makes room by shifting later fragments up one slot;
// Remove closes the hole by resequencing.
//
// Renames are not journaled. A crash in the middle of a shift can leave a gap,
// which Resequence repairs. Mutations hold an advisory lock on
// <dir>/.optflow.lock so two optflow processes cannot shift the same directory
// at once.
package registry
