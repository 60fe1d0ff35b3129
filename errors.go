package session

import (
	"github.com/goliatone/go-errors"
)

const (
	textCodeAuthRejected    = "AUTH_REJECTED"
	textCodeStoreFailure    = "STORE_FAILURE"
	textCodeProfileNotFound = "PROFILE_NOT_FOUND"
	textCodeNotStarted      = "SESSION_NOT_STARTED"
)

// ErrNotStarted is returned when the consumer surface is accessed outside a
// scope where the manager was started.
var ErrNotStarted = errors.New("session manager was not started in this scope", errors.CategoryOperation).
	WithTextCode(textCodeNotStarted).
	WithCode(errors.CodeInternal)

// ErrProfileNotFound is returned when the store holds no row for the session
// user id. Callers treat it as "not logged in" rather than a hard failure.
var ErrProfileNotFound = errors.New("profile not found", errors.CategoryNotFound).
	WithTextCode(textCodeProfileNotFound).
	WithCode(errors.CodeNotFound)

// NewAuthError wraps a provider rejection. The provider message is kept
// verbatim so the submitting form can show it.
func NewAuthError(err error, message string) *errors.Error {
	return errors.Wrap(err, errors.CategoryAuth, message).
		WithTextCode(textCodeAuthRejected).
		WithCode(errors.CodeUnauthorized)
}

// NewStoreError wraps a structured store failure.
func NewStoreError(err error, message string) *errors.Error {
	return errors.Wrap(err, errors.CategoryInternal, message).
		WithTextCode(textCodeStoreFailure).
		WithCode(errors.CodeInternal)
}

// IsAuthError reports whether err came from a rejected credential operation.
func IsAuthError(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.Category == errors.CategoryAuth
}

// IsStoreError reports whether err came from a failed store operation.
func IsStoreError(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCodeStoreFailure
}

// IsProfileNotFound reports whether err means the profile row is missing.
func IsProfileNotFound(err error) bool {
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == textCodeProfileNotFound {
		return true
	}
	return errors.IsNotFound(err)
}
