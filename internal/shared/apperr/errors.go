// Package apperr holds the error categories every layer reports in.
// Domain errors wrap one of these sentinels so the HTTP layer can map them
// with errors.Is without knowing the domain.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("resource conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limit exceeded")
)

// kindError carries a message of its own while matching its category.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// New returns an error with message msg that satisfies errors.Is(err, kind).
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Newf is New with formatting.
func Newf(kind error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Validation builds a validation error with details attached.
func Validation(msg string, details any) error {
	return &ValidationError{msg: msg, Details: details}
}

// ValidationError is a validation failure that carries structured details
// (row numbers, field messages) for the response body.
type ValidationError struct {
	msg     string
	Details any
}

func (e *ValidationError) Error() string { return e.msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }
