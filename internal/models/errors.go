package models

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when a caller abandons a design request before the
// pipeline finishes. No partial result accompanies it.
var ErrCancelled = errors.New("design request cancelled")

// LookupError reports a geocoder or hazard-service failure. It is recoverable:
// the resolver degrades to a market default instead of returning it.
type LookupError struct {
	Service  string
	Attempts int
	Err      error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s lookup failed after %d attempt(s): %v", e.Service, e.Attempts, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// LayoutInfeasibleError is terminal for a design request. Constraint names the
// dimension that could not be satisfied.
type LayoutInfeasibleError struct {
	Constraint string
	Required   float64
	Available  float64
	Unit       string
}

func (e *LayoutInfeasibleError) Error() string {
	return fmt.Sprintf("layout infeasible: %s (required %.1f%s, available %.1f%s)",
		e.Constraint, e.Required, e.Unit, e.Available, e.Unit)
}

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InvalidMarginError is returned when a margin falls outside (0,1).
type InvalidMarginError struct {
	Margin string
}

func (e *InvalidMarginError) Error() string {
	return fmt.Sprintf("margin must be strictly between 0 and 1, got %s", e.Margin)
}
