// Package domain contains business logic types and errors.
// Domain errors represent business-level failures, NOT HTTP errors.
// They are infrastructure-agnostic and can be mapped to HTTP by adapters.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrValidation indicates business rule validation failed.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable indicates a required dependency is unavailable.
	ErrUnavailable = errors.New("unavailable")

	// ErrMalformedOutput indicates the model returned text that does not match the result schema.
	ErrMalformedOutput = errors.New("malformed model output")
)

// ValidationError provides context for validation errors.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error with context.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue creates a validation error including the invalid value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// UnavailableError provides context for unavailable errors.
type UnavailableError struct {
	Service string
	Reason  string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError creates an unavailable error with context.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// MalformedOutputError describes model output that could not be decoded into a GenerationResult.
type MalformedOutputError struct {
	// Output is the raw text returned by the model, possibly empty.
	Output string
	Cause  error
}

// Error implements the error interface.
func (e *MalformedOutputError) Error() string {
	if e.Cause != nil {
		return "malformed model output: " + e.Cause.Error()
	}

	return "malformed model output"
}

// Unwrap returns both the sentinel and the cause.
func (e *MalformedOutputError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrMalformedOutput}
	}

	return []error{ErrMalformedOutput, e.Cause}
}

// NewMalformedOutputError creates a malformed output error.
func NewMalformedOutputError(output string, cause error) error {
	return &MalformedOutputError{Output: output, Cause: cause}
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsMalformedOutput checks if an error is a malformed output error.
func IsMalformedOutput(err error) bool {
	return errors.Is(err, ErrMalformedOutput)
}
