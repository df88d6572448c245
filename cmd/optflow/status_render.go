package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"optflow/internal/deps"
)

type checkVerdict int

const (
	verdictNote checkVerdict = iota
	verdictOK
	verdictWarn
	verdictMissing
)

var verdictTags = map[checkVerdict]string{
	verdictNote:    "[INFO]",
	verdictOK:      "[OK]",
	verdictWarn:    "[WARN]",
	verdictMissing: "[MISSING]",
}

var verdictColors = map[checkVerdict]string{
	verdictNote:    "\x1b[36m",
	verdictOK:      "\x1b[32m",
	verdictWarn:    "\x1b[33m",
	verdictMissing: "\x1b[31m",
}

const ansiReset = "\x1b[0m"

// checkReport writes the `check` output. Only the verdict tag is colored so
// paths stay copyable.
type checkReport struct {
	out      io.Writer
	color    bool
	sections int
	missing  int
}

func newCheckReport(out io.Writer) *checkReport {
	return &checkReport{out: out, color: isTerminal(out)}
}

func (r *checkReport) section(title string) {
	if r.sections > 0 {
		fmt.Fprintln(r.out)
	}
	r.sections++
	fmt.Fprintf(r.out, "%s\n", title)
}

// requirement reports a binary or path. A required item that is unavailable
// counts toward err.
func (r *checkReport) requirement(status deps.Status) {
	detail := status.Command
	if status.Detail != "" {
		if detail != "" {
			detail += " "
		}
		detail += "(" + status.Detail + ")"
	}
	verdict := verdictOK
	switch {
	case status.Available:
	case status.Optional:
		verdict = verdictWarn
	default:
		verdict = verdictMissing
		r.missing++
	}
	r.line(verdict, status.Name, detail)
}

func (r *checkReport) note(name, detail string) {
	r.line(verdictNote, name, detail)
}

func (r *checkReport) line(verdict checkVerdict, name, detail string) {
	tag := verdictTags[verdict]
	pad := len("[MISSING]") - len(tag)
	if r.color {
		tag = verdictColors[verdict] + tag + ansiReset
	}
	fmt.Fprintf(r.out, "  %s%*s %-10s %s\n", tag, pad, "", name, detail)
}

func (r *checkReport) err() error {
	if r.missing == 0 {
		return nil
	}
	return fmt.Errorf("%d required item(s) missing", r.missing)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
