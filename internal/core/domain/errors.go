package domain

import (
	"errors"
	"strings"
)

var (
	ErrTodoNotFound  = errors.New("todo not found")
	ErrInvalidTodoID = errors.New("invalid todo id format")
	ErrValidation    = errors.New("validation failed")
)

// ValidationError carries every rule violation found in one payload, in order.
type ValidationError struct {
	Errors []string
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Errors, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
