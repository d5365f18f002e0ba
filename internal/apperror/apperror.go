// Package apperror defines the error taxonomy shared by the workflow
// engine's components. Every business-rule failure is one of four kinds;
// the API layer maps kinds to HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a business-rule failure.
type Kind string

const (
	// KindNotFound covers both "entity absent" and "entity not visible to
	// the caller"; the two are deliberately indistinguishable so that a
	// caller cannot probe for rows belonging to other tenants.
	KindNotFound Kind = "not_found"
	// KindAuthorization means the caller's role does not permit the action.
	KindAuthorization Kind = "authorization"
	// KindConflict means the operation would duplicate existing state.
	KindConflict Kind = "conflict"
	// KindValidation covers missing fields, invalid values, terminal-state
	// mutations, and expired or already-resolved invitations.
	KindValidation Kind = "validation"
)

// Error is a classified business error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound returns a KindNotFound error with a formatted message.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Authorization returns a KindAuthorization error with a formatted message.
func Authorization(format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// Conflict returns a KindConflict error with a formatted message.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Validation returns a KindValidation error with a formatted message.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err. The second return is false when err
// is not (and does not wrap) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
