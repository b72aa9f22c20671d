package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error for retry and HTTP mapping decisions.
type Kind int

const (
	KindValidation Kind = iota // malformed input, never retried
	KindNotFound               // entity absent or not owned by tenant
	KindConflict               // duplicate session / unique-key violation
	KindInvalidState           // illegal lifecycle transition
	KindTransient              // network/store unavailability, retryable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	case KindTransient:
		return "transient"
	}
	return "unknown"
}

// Error is the single error type flowing out of services.
type Error struct {
	Kind    Kind
	Message string

	// Resource carries the conflicting entity on KindConflict so callers
	// can offer resolution (e.g. the already-open count session).
	Resource interface{}

	// Current and Attempted name the disallowed transition on KindInvalidState.
	Current   string
	Attempted string

	Err error
}

func (e *Error) Error() string {
	if e.Kind == KindInvalidState && e.Current != "" {
		return fmt.Sprintf("%s: %s (current=%s attempted=%s)", e.Kind, e.Message, e.Current, e.Attempted)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(message string, resource interface{}) *Error {
	return &Error{Kind: KindConflict, Message: message, Resource: resource}
}

func InvalidState(message, current, attempted string) *Error {
	return &Error{Kind: KindInvalidState, Message: message, Current: current, Attempted: attempted}
}

func Transient(message string, err error) *Error {
	return &Error{Kind: KindTransient, Message: message, Err: err}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// HTTPStatus maps an error to the status code handlers should respond with.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return 500
	}
	switch e.Kind {
	case KindValidation:
		return 400
	case KindNotFound:
		return 404
	case KindConflict:
		return 409
	case KindInvalidState:
		return 422
	case KindTransient:
		return 503
	}
	return 500
}
