package template

import (
	"errors"
	"strings"
	"testing"

	"optflow/internal/extract"
)

func TestBoilerplateSections(t *testing.T) {
	if !strings.Contains(Preamble(), "data_map") {
		t.Fatalf("preamble missing data_map declaration: %q", Preamble())
	}
	if strings.Contains(Preamble(), preambleStart) || strings.Contains(Preamble(), preambleEnd) {
		t.Fatal("preamble should exclude its section markers")
	}
	if !strings.Contains(DefaultBody(), "NotImplementedError") {
		t.Fatalf("unexpected default body: %q", DefaultBody())
	}
}

func TestPresentForEditUsesDefaultBody(t *testing.T) {
	view := PresentForEdit(nil)
	if !strings.HasPrefix(view, Preamble()) {
		t.Fatal("view should start with the preamble")
	}
	if !strings.HasSuffix(view, MarkerLine+"\n"+DefaultBody()) {
		t.Fatalf("view should end with marker and default body, got %q", view)
	}
}

func TestRoundTrip(t *testing.T) {
	bodies := []string{
		"print('Hello')",
		"new_content = content.upper()\ncontent_index = len(content)\n",
		"x = 1\n" + MarkerLine + "\ny = 2\n",
		"\n\nindented = True\n",
	}
	for _, body := range bodies {
		b := body
		got, err := ExtractForSave(PresentForEdit(&b))
		if err != nil {
			t.Fatalf("ExtractForSave(%q) error: %v", body, err)
		}
		if got != body {
			t.Fatalf("round trip mismatch: got %q want %q", got, body)
		}
	}
}

func TestExtractForSaveKeepsOnlyTextBelowMarker(t *testing.T) {
	view := Preamble() + "\nprint('edited above')\n" + MarkerLine + "\n" + DefaultBody()
	got, err := ExtractForSave(view)
	if err != nil {
		t.Fatalf("ExtractForSave error: %v", err)
	}
	if got != DefaultBody() {
		t.Fatalf("got %q want default body", got)
	}
}

func TestExtractForSaveRejectsMissingMarker(t *testing.T) {
	_, err := ExtractForSave("print('no marker here')\n")
	if !errors.Is(err, extract.ErrStartNotFound) {
		t.Fatalf("expected ErrStartNotFound, got %v", err)
	}
}

func TestExtractForSaveRejectsEmptyBody(t *testing.T) {
	empty := ""
	if _, err := ExtractForSave(PresentForEdit(&empty)); !errors.Is(err, extract.ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}

	blank := "   \n\t\n"
	_, err := ExtractForSave(PresentForEdit(&blank))
	if !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
	var validation *ValidationError
	if !errors.As(err, &validation) || validation.ErrorKind() != "validation" {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
}

func TestComposeRunnerReplacesTemplateRegion(t *testing.T) {
	script, err := ComposeRunner("print('Hello!')\n")
	if err != nil {
		t.Fatalf("ComposeRunner error: %v", err)
	}
	if !strings.Contains(script, "print('Hello!')") {
		t.Fatal("composed script missing fragment code")
	}
	if strings.Contains(script, "NotImplementedError") {
		t.Fatal("composed script still contains the default body")
	}
	if !strings.Contains(script, "OUTPUT_FILE") {
		t.Fatal("composed script lost the output collection section")
	}
	if strings.Count(script, templateStart) != 1 || strings.Count(script, templateEnd) != 1 {
		t.Fatal("template markers should appear exactly once")
	}
}
