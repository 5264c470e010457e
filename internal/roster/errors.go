package roster

import (
	"errors"
	"fmt"
)

// ErrorClassifier allows errors to declare a classification that callers map
// to user-facing hints without string matching.
type ErrorClassifier interface {
	ErrorKind() string
}

// ParseWarning reports a roster that could not be read or understood. It is
// recoverable: callers continue with an empty entry set and log the warning.
type ParseWarning struct {
	Path string
	Err  error
}

func (w *ParseWarning) Error() string {
	return fmt.Sprintf("roster %s unreadable, treating as empty: %v", w.Path, w.Err)
}

func (w *ParseWarning) Unwrap() error { return w.Err }

// ErrorKind implements ErrorClassifier.
func (w *ParseWarning) ErrorKind() string { return "parse" }

// SectionNotFoundError reports a managed section header absent from the roster.
type SectionNotFoundError struct {
	Section string
	Path    string
}

func (e *SectionNotFoundError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("section [%s] not found in roster", e.Section)
	}
	return fmt.Sprintf("section [%s] not found in roster %s", e.Section, e.Path)
}

// ErrorKind implements ErrorClassifier.
func (e *SectionNotFoundError) ErrorKind() string { return "not_found" }

// WriteError reports a failure to persist a rewritten roster. The previous
// file content is left in place.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write roster %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ErrorKind implements ErrorClassifier.
func (e *WriteError) ErrorKind() string { return "write" }

// ErrInvalidRecords reports a structured roster that is not valid JSON.
var ErrInvalidRecords = errors.New("roster is not a valid JSON record list")

// Kind returns the classification of err, or "" when it carries none.
func Kind(err error) string {
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	return ""
}
