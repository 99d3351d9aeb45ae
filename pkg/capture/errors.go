package capture

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a capture failure by the step that produced it.
type Kind string

const (
	// KindInvalidInput is returned before any side effect when the request is malformed
	KindInvalidInput Kind = "invalid_input"

	// KindNavigation covers unreachable URLs, network errors and browser-side timeouts
	KindNavigation Kind = "navigation"

	// KindExtraction means the browser could not serialize the current page
	KindExtraction Kind = "extraction"

	// KindFilesystem covers directory creation and file write failures
	KindFilesystem Kind = "filesystem"

	// KindCanceled means the caller's context ended between steps
	KindCanceled Kind = "canceled"
)

// Error is the typed failure returned by Capture.
// It carries the step kind so callers can branch without parsing text.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "navigate", "mkdir", "write"
	URL  string
	Path string
	Err  error
}

func (e *Error) Error() string {
	target := e.URL
	if e.Kind == KindFilesystem {
		target = e.Path
	}

	if target == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Op, target, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsNavigation reports whether err is a navigation failure.
func IsNavigation(err error) bool { return KindOf(err) == KindNavigation }

// IsExtraction reports whether err is an extraction failure.
func IsExtraction(err error) bool { return KindOf(err) == KindExtraction }

// IsFilesystem reports whether err is a filesystem failure.
func IsFilesystem(err error) bool { return KindOf(err) == KindFilesystem }

// IsCanceled reports whether err was caused by the caller's context ending.
func IsCanceled(err error) bool { return KindOf(err) == KindCanceled }

// stepError wraps err for the given step. A context error that surfaced from
// a collaborator is reported as a cancellation rather than a step failure.
func stepError(kind Kind, op string, req Request, err error) *Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = KindCanceled
	}
	return &Error{
		Kind: kind,
		Op:   op,
		URL:  req.URL,
		Path: req.FilePath,
		Err:  err,
	}
}
