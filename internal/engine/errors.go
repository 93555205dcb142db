package engine

import (
	"errors"
	"fmt"
)

// RunError represents an error detected during run execution.
//
// Run errors include:
//   - Quota exceeded: sweep produces more samples than maxSteps allows
//   - Bad scenario: scenario parameters fail kinematic domain checks
//   - Store failed: persistence error mid-run
//
// RunError includes structured fields for diagnostics.
type RunError struct {
	// Code identifies the error category.
	Code RunErrorCode

	// RunID identifies the affected run ("" if the run never started).
	RunID string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// RunErrorCode categorizes run errors.
type RunErrorCode string

const (
	// ErrCodeQuotaExceeded indicates the sweep exceeded max steps.
	ErrCodeQuotaExceeded RunErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeBadScenario indicates scenario parameters outside the
	// kinematic domain.
	ErrCodeBadScenario RunErrorCode = "BAD_SCENARIO"

	// ErrCodeStoreFailed indicates a persistence failure.
	ErrCodeStoreFailed RunErrorCode = "STORE_FAILED"
)

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.RunID != "" {
		return fmt.Sprintf("%s: %s (run=%s)", e.Code, e.Message, e.RunID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *RunError) Unwrap() error {
	return e.Err
}

// CodeOf extracts the RunErrorCode from an error chain, or "" when the
// error is not a RunError.
func CodeOf(err error) RunErrorCode {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Code
	}
	return ""
}
