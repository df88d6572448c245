package extract

import (
	"errors"
	"testing"
)

func TestExtractWithoutEndMarker(t *testing.T) {
	got, err := Extract("Hello, world!", "Hello")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if got != ", world!" {
		t.Fatalf("Extract = %q, want %q", got, ", world!")
	}
}

func TestBetweenMarkers(t *testing.T) {
	got, err := Between("Hello, world!", "Hello", "!")
	if err != nil {
		t.Fatalf("Between returned error: %v", err)
	}
	if got != ", world" {
		t.Fatalf("Between = %q, want %q", got, ", world")
	}
}

func TestBetweenUsesFirstOccurrences(t *testing.T) {
	content := "[a]one[b]two[a]three[b]"
	got, err := Between(content, "[a]", "[b]")
	if err != nil {
		t.Fatalf("Between returned error: %v", err)
	}
	if got != "one" {
		t.Fatalf("Between = %q, want %q", got, "one")
	}
}

func TestEndMarkerOnlySearchedAfterStart(t *testing.T) {
	_, err := Between("!Hello, world", "Hello", "!")
	if !errors.Is(err, ErrEndNotFound) {
		t.Fatalf("expected ErrEndNotFound, got %v", err)
	}
}

func TestExtractFailures(t *testing.T) {
	cases := []struct {
		name string
		run  func() (string, error)
		want error
	}{
		{"missing start", func() (string, error) { return Extract("Hello, world!", "Bye") }, ErrStartNotFound},
		{"missing start with end", func() (string, error) { return Between("Hello, world!", "Bye", "!") }, ErrStartNotFound},
		{"missing end", func() (string, error) { return Between("Hello, world!", "Hello", "?") }, ErrEndNotFound},
		{"end immediately after start", func() (string, error) { return Between("Hello, world!", "Hello", ",") }, ErrEmptyResult},
		{"start at end of content", func() (string, error) { return Extract("Hello, world!", "world!") }, ErrEmptyResult},
		{"case sensitive", func() (string, error) { return Extract("Hello, world!", "hello") }, ErrStartNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.run()
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v (result %q)", tc.want, err, got)
			}
			var extractErr *Error
			if !errors.As(err, &extractErr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if extractErr.ErrorKind() != "extraction" {
				t.Fatalf("ErrorKind = %q", extractErr.ErrorKind())
			}
		})
	}
}

func TestMarkersAreLiteral(t *testing.T) {
	got, err := Extract("a.*b(c)", ".*")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if got != "b(c)" {
		t.Fatalf("Extract = %q, want %q", got, "b(c)")
	}
}
