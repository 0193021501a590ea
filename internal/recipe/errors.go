package recipe

import (
	"errors"
	"fmt"
)

// Common rendering errors
var (
	// ErrPrecondition is returned when the invoice lacks a relation the
	// header needs. Nothing is drawn in that case.
	ErrPrecondition = errors.New("invoice is missing data required by the header")

	// ErrNilCanvas is returned when Render is called without a canvas.
	ErrNilCanvas = errors.New("no canvas to render on")
)

// PreconditionError names the missing invoice relation.
type PreconditionError struct {
	Field string // "biller", "provider", "patient" or "law"
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("recipe: invoice has no %s", e.Field)
}

// Unwrap returns ErrPrecondition.
func (e *PreconditionError) Unwrap() error {
	return ErrPrecondition
}

// RenderError wraps errors with the rendering step that failed.
type RenderError struct {
	// Op is the operation that failed (e.g., "Plan", "Aggregate").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("recipe: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("recipe: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RenderError) Unwrap() error {
	return e.Err
}

// Is implements error matching against the underlying error.
func (e *RenderError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRenderError creates a new RenderError.
func NewRenderError(op string, err error, details string) *RenderError {
	return &RenderError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapRenderError wraps an error as a RenderError if it isn't already one.
func WrapRenderError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var renderErr *RenderError
	if errors.As(err, &renderErr) {
		return err // Already wrapped
	}

	return NewRenderError(op, err, details)
}
