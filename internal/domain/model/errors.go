package model

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies run failures for exit codes and batch reporting.
type ErrorCategory string

const (
	// CategoryInput marks addresses that could not be geocoded.
	CategoryInput ErrorCategory = "InputError"
	// CategoryCoverage marks areas without enough walkable streets or
	// without a single captured frame.
	CategoryCoverage ErrorCategory = "CoverageError"
	// CategoryProvider marks transient upstream failures. These are
	// normally recovered locally and only become fatal when every
	// waypoint fetch is exhausted.
	CategoryProvider ErrorCategory = "ProviderError"
	// CategoryEncoding marks video encoder failures.
	CategoryEncoding ErrorCategory = "EncodingError"
)

// TourError is a categorized, wrapping error. Fatal run errors are always
// one of these so the CLI can print the category and pick the exit code.
type TourError struct {
	Category ErrorCategory
	Message  string
	Cause    error
}

func (e *TourError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TourError) Unwrap() error {
	return e.Cause
}

// NewInputError creates an InputError.
func NewInputError(message string, cause error) *TourError {
	return &TourError{Category: CategoryInput, Message: message, Cause: cause}
}

// NewCoverageError creates a CoverageError.
func NewCoverageError(message string, cause error) *TourError {
	return &TourError{Category: CategoryCoverage, Message: message, Cause: cause}
}

// NewProviderError creates a ProviderError.
func NewProviderError(message string, cause error) *TourError {
	return &TourError{Category: CategoryProvider, Message: message, Cause: cause}
}

// NewEncodingError creates an EncodingError.
func NewEncodingError(message string, cause error) *TourError {
	return &TourError{Category: CategoryEncoding, Message: message, Cause: cause}
}

// CategoryOf extracts the error category, defaulting to ProviderError for
// uncategorized errors.
func CategoryOf(err error) ErrorCategory {
	var te *TourError
	if errors.As(err, &te) {
		return te.Category
	}
	return CategoryProvider
}

// IsCategory reports whether err carries the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var te *TourError
	return errors.As(err, &te) && te.Category == category
}
