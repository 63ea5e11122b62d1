package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFoundError indicates that the requested record does not exist.
type NotFoundError struct {
	Err error
}

func NewNotFoundError(err error) error {
	return &NotFoundError{err}
}

func (err NotFoundError) Error() string {
	if err.Err == nil {
		return "not found"
	}
	return err.Err.Error()
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

// ConflictError indicates a uniqueness violation or an illegal state
// transition; the request conflicts with recorded state and must not be
// retried as-is.
type ConflictError struct {
	Err error
}

func NewConflictError(err error) error {
	return &ConflictError{err}
}

func (err ConflictError) Error() string {
	if err.Err == nil {
		return "conflict"
	}
	return err.Err.Error()
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
