package relativity

import "fmt"

// DomainError reports an input outside the physical domain of a kinematic
// function.
//
// Domain errors include:
//   - Superluminal: |v| >= c where a subluminal velocity is required
//   - Non-positive mass: m <= 0 handed to an energy/momentum relation
//   - Non-finite input: NaN or Inf velocity, time, length, or mass
//
// DomainError includes structured fields for diagnostics.
type DomainError struct {
	// Code identifies the error category.
	Code DomainErrorCode

	// Quantity names the offending input ("velocity", "beta", "mass", ...).
	Quantity string

	// Value is the offending input value.
	Value float64

	// Message is a human-readable description.
	Message string
}

// DomainErrorCode categorizes domain errors.
type DomainErrorCode string

const (
	// ErrCodeSuperluminal indicates |v| >= c where v must be subluminal.
	ErrCodeSuperluminal DomainErrorCode = "SUPERLUMINAL"

	// ErrCodeNonPositiveMass indicates a rest mass <= 0.
	ErrCodeNonPositiveMass DomainErrorCode = "NONPOSITIVE_MASS"

	// ErrCodeNonFinite indicates a NaN or infinite input.
	ErrCodeNonFinite DomainErrorCode = "NONFINITE_INPUT"

	// ErrCodeNegativeSpeed indicates a negative value where a speed
	// (magnitude) is required and direction is carried separately.
	ErrCodeNegativeSpeed DomainErrorCode = "NEGATIVE_SPEED"
)

// Error implements the error interface.
func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s (%s=%g)", e.Code, e.Message, e.Quantity, e.Value)
}

// Is enables errors.Is matching on the error code.
// Two DomainErrors match if their codes are equal.
func (e *DomainError) Is(target error) bool {
	other, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// superluminal constructs the error for a velocity at or beyond c.
func superluminal(quantity string, value float64) *DomainError {
	return &DomainError{
		Code:     ErrCodeSuperluminal,
		Quantity: quantity,
		Value:    value,
		Message:  "velocity must satisfy |v| < c",
	}
}

// nonFinite constructs the error for a NaN or infinite input.
func nonFinite(quantity string, value float64) *DomainError {
	return &DomainError{
		Code:     ErrCodeNonFinite,
		Quantity: quantity,
		Value:    value,
		Message:  "input must be finite",
	}
}
