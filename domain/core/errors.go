package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input validation errors
	ErrInvalidInput = errors.New("invalid input")
	ErrNoDatasets   = fmt.Errorf("%w: dataset collection is empty", ErrInvalidInput)

	// Estimator guard-rail errors
	ErrInvalidMatrix  = errors.New("invalid count matrix")
	ErrInvalidOptions = errors.New("invalid estimator options")

	// Cache errors
	ErrCacheUnavailable = errors.New("weight cache unavailable")
)

// Error constructors with context
func NewInvalidInputError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}

func NewInvalidMatrixError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidMatrix, reason)
}

func NewInvalidOptionsError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidOptions, field, reason)
}

// Error checking helpers
func IsInvalidInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsInvalidMatrixError(err error) bool {
	return errors.Is(err, ErrInvalidMatrix)
}

func IsInvalidOptionsError(err error) bool {
	return errors.Is(err, ErrInvalidOptions)
}

// IsCallerError reports whether the error is a request problem rather than
// an internal failure, for mapping onto transport status codes.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidMatrix) ||
		errors.Is(err, ErrInvalidOptions)
}
