package history

import (
	"errors"
	"time"
)

// Status is the journaled outcome of a run.
type Status string

const (
	// StatusAccepted means the run completed and passed every postcondition.
	StatusAccepted Status = "accepted"
	// StatusRejected means the interpreter finished but the result was refused.
	StatusRejected Status = "rejected"
	// StatusFailed covers launch failures, non-zero exits and unreadable output.
	StatusFailed Status = "failed"
)

// Mode distinguishes full runs from prefix runs.
type Mode string

const (
	ModeAll    Mode = "all"
	ModePrefix Mode = "prefix"
)

// Entry is one journaled run.
type Entry struct {
	RunID         string
	Mode          Mode
	StopCount     int
	FragmentCount int
	Status        Status
	ExitCode      int
	ErrorKind     string
	ErrorMessage  string
	ContentLength int
	ContentIndex  int
	StartedAt     time.Time
	Duration      time.Duration
}

type kinded interface {
	ErrorKind() string
}

// StatusFor classifies a run error. Errors of the "pipeline" kind were produced
// by a run whose interpreter finished cleanly, so they count as rejections.
func StatusFor(err error) Status {
	if err == nil {
		return StatusAccepted
	}
	if KindOf(err) == "pipeline" {
		return StatusRejected
	}
	return StatusFailed
}

// KindOf returns the ErrorKind of the first classified error in err's chain,
// or "unknown".
func KindOf(err error) string {
	var k kinded
	if errors.As(err, &k) {
		return k.ErrorKind()
	}
	if err == nil {
		return ""
	}
	return "unknown"
}
