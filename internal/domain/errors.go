package domain

import (
	"errors"
	"fmt"
)

var (
	// caller input
	ErrValidation = errors.New("validation error")
	ErrUpload     = errors.New("upload error")

	// credential service
	ErrDuplicateUser      = errors.New("user already exists with this email")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingToken       = errors.New("access token required")
	ErrInvalidToken       = errors.New("invalid or expired token")

	// repository
	ErrNotFound = errors.New("not found")
)

// FailureKind classifies why a classification attempt produced no verdict
type FailureKind string

const (
	FailureSpawn   FailureKind = "spawn"
	FailureProcess FailureKind = "process"
	FailureParse   FailureKind = "parse"
	FailureTimeout FailureKind = "timeout"
)

// ClassificationError carries a failed classification result across the service boundary
type ClassificationError struct {
	Kind   FailureKind
	Detail string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed (%s): %s", e.Kind, e.Detail)
}

// Validationf wraps a message as a validation error
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Uploadf wraps a message as an upload error
func Uploadf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUpload, fmt.Sprintf(format, args...))
}
