// Package shared holds the error kinds every domain package builds on.
// Callers test for a kind with errors.Is.
package shared

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	// ErrInvalidInput marks a malformed or missing argument (birth date, date, id).
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfiguration marks a cohort configuration that must not be served.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a lookup that expected a result and found none.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized marks a failed authorization predicate.
	ErrUnauthorized = errors.New("unauthorized")
)

// DomainError carries the failing domain/operation alongside its kind.
type DomainError struct {
	Domain  string // e.g. "cohort", "attendance"
	Op      string // operation that failed
	Kind    error  // one of the kinds above
	Message string
	Err     error // underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error, or the kind when there is none.
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches on the kind as well as the wrapped error.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewError creates a DomainError of the given kind.
func NewError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

// Invalid is shorthand for an ErrInvalidInput DomainError with a formatted message.
func Invalid(domain, op, format string, args ...any) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: ErrInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// Misconfigured is shorthand for an ErrConfiguration DomainError with a formatted message.
func Misconfigured(domain, op, format string, args ...any) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: ErrConfiguration, Message: fmt.Sprintf(format, args...)}
}
