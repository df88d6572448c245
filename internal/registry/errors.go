package registry

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("fragment not found")
	ErrRenameFailed = errors.New("rename failed")
	ErrLocked       = errors.New("fragment directory is locked by another process")
	ErrInvalidID    = errors.New("invalid fragment id")
)

// Error describes a failed registry operation on one fragment id.
type Error struct {
	Op   string
	ID   int
	Kind error
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s opt-%d: %s", e.Op, e.ID, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ErrorKind classifies the failure for callers that map errors to outcomes.
func (e *Error) ErrorKind() string { return "registry" }
