// Package apperr labels failures with the small taxonomy the HTTP layer and
// callers branch on. Every error carries a reason string fit for direct
// display; nothing in the core retries automatically.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	Unknown Kind = iota
	// NotFound: a referenced entity is absent in the store.
	NotFound
	// Auth: bad credentials or a missing/invalid session.
	Auth
	// Network: a remote call failed or timed out.
	Network
	// Verification: WiFi mismatch, or face match below threshold / wrong identity.
	Verification
	// Validation: caller-supplied input is malformed or missing.
	Validation
)

// Error is a labeled failure with a human-readable reason.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a labeled error.
func New(kind Kind, reason string) error {
	return &Error{Kind: kind, Reason: reason}
}

// Newf creates a labeled error with a formatted reason.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Wrap attaches a label and reason to an underlying error.
func Wrap(kind Kind, reason string, err error) error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// KindOf returns the label of err, or Unknown for unlabeled errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Reason returns the display reason of err, falling back to err.Error().
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// IsNotFound reports whether err is labeled NotFound.
func IsNotFound(err error) bool { return KindOf(err) == NotFound }
