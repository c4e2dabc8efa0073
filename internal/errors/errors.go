// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrDataUnavailable     = errors.New("market data unavailable")
	ErrExpiryUnavailable   = errors.New("expiry unavailable")
	ErrNoSuitableContract  = errors.New("no suitable contract")
	ErrCollaboratorFailure = errors.New("collaborator failure")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrNotAuthenticated    = errors.New("not authenticated")
)

// ScreenError is a per-symbol screening failure. Error returns the message
// reported to callers; errors.Is matches the Kind sentinel.
type ScreenError struct {
	Symbol  string
	Kind    error
	Message string
	Err     error
}

func (e *ScreenError) Error() string {
	return e.Message
}

func (e *ScreenError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// NewScreenError creates a new ScreenError.
func NewScreenError(symbol string, kind error, message string, err error) *ScreenError {
	return &ScreenError{
		Symbol:  symbol,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// DataError represents a failure inside a market-data source.
type DataError struct {
	Source   string
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(source, dataType, symbol, message string, err error) *DataError {
	return &DataError{
		Source:   source,
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
