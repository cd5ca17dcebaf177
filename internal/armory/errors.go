package armory

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema is matched by every SchemaError.
	ErrSchema = errors.New("schema error")
	// ErrGrammarMismatch is matched by every GrammarMismatchError.
	ErrGrammarMismatch = errors.New("grammar mismatch")
)

// SchemaError reports an expected path that is absent from a document.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("schema error: %s missing", e.Path)
	}
	return fmt.Sprintf("schema error: %s: %s", e.Path, e.Reason)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// GrammarMismatchError reports text that is present but does not fit the
// template it was expected to follow.
type GrammarMismatchError struct {
	Template string
	Text     string
}

func (e *GrammarMismatchError) Error() string {
	return fmt.Sprintf("grammar mismatch: %s: %q", e.Template, e.Text)
}

func (e *GrammarMismatchError) Is(target error) bool { return target == ErrGrammarMismatch }

func missing(path string) error {
	return &SchemaError{Path: path}
}

func mismatch(template, text string) error {
	return &GrammarMismatchError{Template: template, Text: text}
}
