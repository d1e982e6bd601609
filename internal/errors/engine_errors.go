package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the classes of failure the engine distinguishes
type ErrorCategory string

const (
	// Local failures that never reach the terminal
	ErrorCategoryValidation ErrorCategory = "VALIDATION"

	// Terminal initialization / login / health-check failures
	ErrorCategoryConnection ErrorCategory = "CONNECTION"

	// Order submissions the terminal refused (bad symbol, market closed,
	// insufficient margin). Never retried automatically.
	ErrorCategoryTerminal ErrorCategory = "TERMINAL"

	// Queue or ledger store failures; fatal to the affected operation
	ErrorCategoryDurability ErrorCategory = "DURABILITY"

	ErrorCategoryConfiguration ErrorCategory = "CONFIG"
)

// EngineError is a categorized error with component/operation context
type EngineError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Retryable  bool
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// IsRetryable returns whether the operation may be retried
func (e *EngineError) IsRetryable() bool {
	return e.Retryable
}

// New creates a new categorized engine error
func New(category ErrorCategory, component, operation, message string) *EngineError {
	return &EngineError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Retryable: isRetryableCategory(category),
	}
}

// Wrap wraps an existing error with engine error context
func Wrap(err error, category ErrorCategory, component, operation string) *EngineError {
	if err == nil {
		return nil
	}

	return &EngineError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Retryable:  isRetryableCategory(category),
	}
}

// WithRetryable sets the retryable flag
func (e *EngineError) WithRetryable(retryable bool) *EngineError {
	e.Retryable = retryable
	return e
}

func isRetryableCategory(category ErrorCategory) bool {
	switch category {
	case ErrorCategoryConnection:
		return true
	case ErrorCategoryValidation, ErrorCategoryTerminal, ErrorCategoryDurability, ErrorCategoryConfiguration:
		return false
	default:
		return false
	}
}

// CategoryOf extracts the category from an error chain, or "" if the chain
// contains no EngineError.
func CategoryOf(err error) ErrorCategory {
	var ee *EngineError
	if stderrors.As(err, &ee) {
		return ee.Category
	}
	return ""
}

// IsCategory reports whether err (or anything it wraps) carries the given
// category.
func IsCategory(err error, category ErrorCategory) bool {
	return CategoryOf(err) == category
}

// Common constructors

func NewValidationError(component, operation, message string) *EngineError {
	return New(ErrorCategoryValidation, component, operation, message)
}

func NewConnectionError(component, operation string, err error) *EngineError {
	return Wrap(err, ErrorCategoryConnection, component, operation)
}

func NewTerminalError(component, operation string, err error) *EngineError {
	return Wrap(err, ErrorCategoryTerminal, component, operation)
}

func NewDurabilityError(component, operation string, err error) *EngineError {
	return Wrap(err, ErrorCategoryDurability, component, operation)
}

func NewConfigurationError(component, operation, message string) *EngineError {
	return New(ErrorCategoryConfiguration, component, operation, message)
}
