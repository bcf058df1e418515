// Package kerr defines the error taxonomy shared by the keyring packages.
//
// Every failure surfaced to the host is a *Error carrying one of the codes
// below. Callers classify errors with the Is* helpers, which see through
// fmt.Errorf wrapping.
package kerr

import (
	"errors"
	"fmt"
)

// Code categorizes keyring errors.
type Code string

const (
	// CodeNotFound indicates an account, request or key is absent.
	CodeNotFound Code = "NOT_FOUND"

	// CodeOwnershipViolation indicates a snap touched a resource owned by another snap.
	CodeOwnershipViolation Code = "OWNERSHIP_VIOLATION"

	// CodeUnsupported indicates an unsupported signing method or event.
	CodeUnsupported Code = "UNSUPPORTED"

	// CodeValidation indicates a malformed payload, chain scope or result.
	CodeValidation Code = "VALIDATION"

	// CodeRemote indicates the snap invocation itself failed.
	CodeRemote Code = "REMOTE"
)

// Error is a classified keyring error.
type Error struct {
	Code    Code
	Message string

	// SnapID and Key identify the resource involved, when known.
	SnapID string
	Key    string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports a missing resource. label names the kind of resource
// ("Account", "Request", ...).
func NotFound(label, key string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s '%s' not found", label, key),
		Key:     key,
	}
}

// OwnershipViolation reports that snapID is not allowed to modify key.
func OwnershipViolation(snapID, key string) *Error {
	return &Error{
		Code:    CodeOwnershipViolation,
		Message: fmt.Sprintf("snap %q is not allowed to set %q", snapID, key),
		SnapID:  snapID,
		Key:     key,
	}
}

// Unsupported reports an unsupported operation.
func Unsupported(format string, args ...any) *Error {
	return &Error{Code: CodeUnsupported, Message: fmt.Sprintf(format, args...)}
}

// Validation reports a malformed input or result.
func Validation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Remote wraps a failure returned by the snap invocation client.
func Remote(snapID string, err error) *Error {
	return &Error{
		Code:    CodeRemote,
		Message: fmt.Sprintf("snap %q request failed", snapID),
		SnapID:  snapID,
		Err:     err,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// IsOwnershipViolation reports whether err is an OwnershipViolation error.
func IsOwnershipViolation(err error) bool { return CodeOf(err) == CodeOwnershipViolation }

// IsUnsupported reports whether err is an Unsupported error.
func IsUnsupported(err error) bool { return CodeOf(err) == CodeUnsupported }

// IsValidation reports whether err is a Validation error.
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }

// IsRemote reports whether err is a Remote error.
func IsRemote(err error) bool { return CodeOf(err) == CodeRemote }
