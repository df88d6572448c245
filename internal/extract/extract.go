package extract

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStartNotFound = errors.New("start marker not found")
	ErrEndNotFound   = errors.New("end marker not found")
	ErrEmptyResult   = errors.New("extracted content is empty")
)

// Error reports why an extraction failed. Kind is one of the sentinels above.
type Error struct {
	Kind   error
	Marker string
}

func (e *Error) Error() string {
	switch {
	case errors.Is(e.Kind, ErrEmptyResult) && e.Marker == "":
		return e.Kind.Error()
	case errors.Is(e.Kind, ErrEmptyResult):
		return fmt.Sprintf("%s: check that %q is not immediately followed by the end marker", e.Kind, e.Marker)
	default:
		return fmt.Sprintf("%s: %q", e.Kind, e.Marker)
	}
}

func (e *Error) Unwrap() error { return e.Kind }

// ErrorKind classifies the failure for callers that map errors to outcomes.
func (e *Error) ErrorKind() string { return "extraction" }

// Extract returns everything after the first occurrence of start.
func Extract(content, start string) (string, error) {
	from, err := locate(content, start)
	if err != nil {
		return "", err
	}
	if from >= len(content) {
		return "", &Error{Kind: ErrEmptyResult}
	}
	return content[from:], nil
}

// Between returns the text between the first occurrence of start and the first
// occurrence of end that follows it.
func Between(content, start, end string) (string, error) {
	from, err := locate(content, start)
	if err != nil {
		return "", err
	}
	rel := strings.Index(content[from:], end)
	if rel < 0 {
		return "", &Error{Kind: ErrEndNotFound, Marker: end}
	}
	if rel == 0 {
		return "", &Error{Kind: ErrEmptyResult, Marker: start}
	}
	return content[from : from+rel], nil
}

// locate returns the offset just past the first occurrence of start.
func locate(content, start string) (int, error) {
	idx := strings.Index(content, start)
	if idx < 0 {
		return 0, &Error{Kind: ErrStartNotFound, Marker: start}
	}
	return idx + len(start), nil
}
