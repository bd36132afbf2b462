// Package apperr defines the error taxonomy of the generation pipeline.
// Leaf package: used by internal/infra/llm, internal/domain/learning and the
// HTTP layer, which maps a Kind to a status code without parsing messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a generation failure.
type Kind string

const (
	// KindConfiguration means the process is misconfigured (e.g. missing API key).
	// Every call fails with it until the configuration is fixed.
	KindConfiguration Kind = "configuration"

	// KindInvalidArgument means the caller supplied bad input. No network call was made.
	KindInvalidArgument Kind = "invalid_argument"

	// KindTransport means the completion endpoint could not be reached
	// (timeout, connection reset, DNS).
	KindTransport Kind = "transport"

	// KindUpstream means the endpoint answered with a non-success status or an
	// unusable body.
	KindUpstream Kind = "upstream"
)

// Sentinels for errors.Is checks. They match any *Error of the same Kind.
var (
	ErrConfiguration   = &Error{Kind: KindConfiguration}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrTransport       = &Error{Kind: KindTransport}
	ErrUpstream        = &Error{Kind: KindUpstream}
)

// Error is an inspectable generation failure.
// Status and Body are only set for KindUpstream when the endpoint answered.
type Error struct {
	Kind    Kind
	Action  string // originating facade action, attached by WithAction
	Message string
	Status  int
	Body    string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Kind) + " error"
	if e.Action != "" {
		msg = e.Action + ": " + msg
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel (or any *Error) of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// Configuration returns a KindConfiguration error.
func Configuration(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgument returns a KindInvalidArgument error.
func InvalidArgument(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// Transport wraps a network-level failure.
func Transport(err error) *Error {
	return &Error{Kind: KindTransport, Message: "completion endpoint unreachable", Err: err}
}

// Upstream returns a KindUpstream error carrying the HTTP status and body, when known.
func Upstream(status int, body, message string) *Error {
	return &Error{Kind: KindUpstream, Status: status, Body: body, Message: message}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// WithAction attaches the originating action to err without changing its Kind.
// Errors outside the taxonomy are returned unchanged.
func WithAction(err error, action string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	cp := *e
	cp.Action = action
	return &cp
}
