package extract

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by Extract when no API key is available.
var ErrNotConfigured = errors.New("gemini API key is not configured")

// Kind classifies extraction failures so the HTTP layer can map them to
// distinct status codes.
type Kind int

const (
	// KindUnknown is any failure not produced by this package.
	KindUnknown Kind = iota
	// KindConfiguration means the process is missing credentials.
	KindConfiguration
	// KindRemote means the generation call itself failed.
	KindRemote
	// KindParse means the service answered with content that is not JSON.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindRemote:
		return "remote"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Error is a classified extraction failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindUnknown when err was not produced here.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsTimeout reports whether a remote failure was caused by a deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
