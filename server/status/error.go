// Package status defines the internal error taxonomy shared by every
// component so the HTTP layer can translate a failure into the right
// response code in one place (see server/http/util).
package status

import (
	"errors"
	"fmt"
)

const (
	// AlreadyExists indicates a generic error when an object already exists in the system.
	AlreadyExists Type = 1

	// Conflict indicates a write lost a race against the current owner of a resource
	// (e.g. a subdomain label already claimed by another user id).
	Conflict Type = 2

	// PermissionDenied indicates the caller isn't allowed to perform the operation.
	PermissionDenied Type = 3

	// NotFound indicates the object wasn't found in the system.
	NotFound Type = 4

	// Internal indicates some generic internal/infrastructure error.
	Internal Type = 5

	// InvalidArgument indicates some generic invalid argument/validation error.
	InvalidArgument Type = 6

	// Unauthenticated indicates the caller's signature or token failed verification.
	Unauthenticated Type = 7

	// Unavailable indicates a dependent subsystem (e.g. the certificate authority)
	// hasn't finished initializing.
	Unavailable Type = 8
)

// Type is the kind of an Error.
type Type int32

// Error is an internal, typed error. Components return these so the HTTP
// layer can map Type to a status code without re-deriving it from message text.
type Error struct {
	ErrorType Type
	Message   string
}

// Type returns the Type of the error.
func (e *Error) Type() Type {
	return e.ErrorType
}

func (e *Error) Error() string {
	return e.Message
}

// Errorf returns &Error{ErrorType, fmt.Sprintf(format, a...)}.
func Errorf(errorType Type, format string, a ...interface{}) error {
	return &Error{
		ErrorType: errorType,
		Message:   fmt.Sprintf(format, a...),
	}
}

// FromError returns the *Error and true if err is (or wraps) one, and
// nil/false for any other error. A nil err yields (nil, true).
func FromError(err error) (s *Error, ok bool) {
	if err == nil {
		return nil, true
	}
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// NewUserNotFoundError creates a NotFound error for a missing identity record.
func NewUserNotFoundError(userID string) error {
	return Errorf(NotFound, "user not found: %s", userID)
}

// NewDomainNotOwnedError creates a Conflict error when a label is claimed by another user id.
func NewDomainNotOwnedError(label, userID string) error {
	return Errorf(Conflict, "domain %q is not owned by user %s", label, userID)
}

// NewDomainUnavailableError creates an InvalidArgument error for a malformed or reserved label.
func NewDomainUnavailableError(label string) error {
	return Errorf(InvalidArgument, "domain name %q is not available", label)
}

// NewEmptyMergeError creates an InvalidArgument error for an upsert with no fields.
func NewEmptyMergeError() error {
	return Errorf(InvalidArgument, "at least one field must be set")
}

// NewCANotInitializedError creates an Unavailable error for a signing request before bootstrap completes.
func NewCANotInitializedError() error {
	return Errorf(Unavailable, "certificate authority is not initialized")
}
