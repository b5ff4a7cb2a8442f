package errors

import (
	"fmt"
)

// HerdError is the structured error type for fitsherd.
// It provides context for error handling, logging, and user presentation.
type HerdError struct {
	// Code is the unique error code (e.g., "ERR_201_DIR_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *HerdError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *HerdError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with HerdError.
func (e *HerdError) Is(target error) bool {
	if t, ok := target.(*HerdError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *HerdError) WithDetail(key, value string) *HerdError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new HerdError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *HerdError {
	return &HerdError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a HerdError from an existing error.
// The error's message becomes the HerdError message.
func Wrap(code string, err error) *HerdError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *HerdError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates an input validation error.
func ValidationError(message string, cause error) *HerdError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *HerdError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if he, ok := err.(*HerdError); ok {
		return he.Severity == SeverityFatal
	}
	return false
}

// IsSkippable reports whether an error is a per-file failure that a scan
// should swallow (skip the file, keep going).
func IsSkippable(err error) bool {
	if err == nil {
		return false
	}
	if he, ok := err.(*HerdError); ok {
		return he.Severity == SeverityWarning
	}
	return false
}

// GetCode extracts the error code from a HerdError.
// Returns empty string if not a HerdError.
func GetCode(err error) string {
	if he, ok := err.(*HerdError); ok {
		return he.Code
	}
	return ""
}
