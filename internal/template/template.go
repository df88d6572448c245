package template

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"optflow/internal/extract"
)

//go:embed runner.py
var runnerSource string

// MarkerLine separates the read-only boilerplate shown in the editor from the
// user's fragment body.
const MarkerLine = "## Write your code below, modify the code above, and DO NOT remove this line"

const (
	preambleStart = "## Init collected data start"
	preambleEnd   = "## Init collected data end"
	templateStart = "## Operation template start"
	templateEnd   = "## Operation template end"
)

var (
	preamble    string
	defaultBody string
)

func init() {
	var err error
	if preamble, err = extract.Between(runnerSource, preambleStart, preambleEnd); err != nil {
		panic(fmt.Sprintf("runner.py: init section: %v", err))
	}
	if defaultBody, err = extract.Between(runnerSource, templateStart, templateEnd); err != nil {
		panic(fmt.Sprintf("runner.py: operation template: %v", err))
	}
}

// ErrEmptyBody is returned when an edited view contains nothing but whitespace
// below the marker line.
var ErrEmptyBody = errors.New("fragment body is empty")

// ValidationError rejects a save. The fragment on disk is left untouched.
type ValidationError struct {
	Kind error
}

func (e *ValidationError) Error() string { return "validate fragment: " + e.Kind.Error() }

func (e *ValidationError) Unwrap() error { return e.Kind }

func (e *ValidationError) ErrorKind() string { return "validation" }

// Preamble returns the variable block users see above the marker line.
func Preamble() string { return preamble }

// DefaultBody returns the placeholder body offered for a new fragment.
func DefaultBody() string { return defaultBody }

// Runner returns the unmodified runner boilerplate.
func Runner() string { return runnerSource }

// PresentForEdit builds the editable view of a fragment. A nil body yields the
// default template.
func PresentForEdit(body *string) string {
	content := defaultBody
	if body != nil {
		content = *body
	}
	var b strings.Builder
	b.Grow(len(preamble) + len(MarkerLine) + len(content) + 2)
	b.WriteString(preamble)
	b.WriteByte('\n')
	b.WriteString(MarkerLine)
	b.WriteByte('\n')
	b.WriteString(content)
	return b.String()
}

// ExtractForSave returns the storable body from an edited view. Extraction
// failures are returned as *extract.Error; blank bodies as *ValidationError.
func ExtractForSave(view string) (string, error) {
	body, err := extract.Extract(view, MarkerLine+"\n")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(body) == "" {
		return "", &ValidationError{Kind: ErrEmptyBody}
	}
	return body, nil
}

// ComposeRunner splices combined fragment code into the runner's operation
// template region and returns the executable script.
func ComposeRunner(combined string) (string, error) {
	region, err := extract.Between(runnerSource, templateStart, templateEnd)
	if err != nil {
		return "", fmt.Errorf("locate operation template: %w", err)
	}
	return strings.Replace(runnerSource, templateStart+region+templateEnd, templateStart+"\n"+combined+"\n"+templateEnd, 1), nil
}
