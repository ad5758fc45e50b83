package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError is raised when a record fails its field rules.
// Message is shown to the user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation builds a ValidationError from a format string
func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is or wraps a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PermissionError is raised when the caller lacks a role for a page or action
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrForbidden) match
func (e *PermissionError) Is(target error) bool {
	return target == ErrForbidden
}

// Permission builds a PermissionError
func Permission(message string) error {
	return &PermissionError{Message: message}
}

// NotFound wraps ErrNotFound with a user-facing message
func NotFound(message string) error {
	return &notFoundError{message: message}
}

type notFoundError struct {
	message string
}

func (e *notFoundError) Error() string { return e.message }

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }
