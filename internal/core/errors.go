package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrImportFormat matches every *ImportFormatError.
	ErrImportFormat = errors.New("invalid import format")
	ErrNotFound     = errors.New("not found")
)

// ValidationError reports a missing or malformed field on user input.
type ValidationError struct {
	Field string
	Err   error
}

// NewValidationError reports err against field.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func invalid(field string, err error) *ValidationError {
	return NewValidationError(field, err)
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ImportFormatError reports an import payload that could not be decoded.
type ImportFormatError struct {
	Err error
}

func (e *ImportFormatError) Error() string {
	return fmt.Sprintf("invalid import format: %v", e.Err)
}

func (e *ImportFormatError) Unwrap() error {
	return e.Err
}

func (e *ImportFormatError) Is(target error) bool {
	return target == ErrImportFormat
}
