package layer

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrSizeMismatch       = errors.New("size mismatch")
	ErrInitialization     = errors.New("initialization failed")
	ErrCapacityExceeded   = errors.New("buffer capacity exceeded")
	ErrContractViolation  = errors.New("contract violation")
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrNotInitialized     = errors.New("not initialized")
	ErrUnknownKernel      = errors.New("unknown kernel")
)

// SizeMismatchError reports a declared size that does not match a blob,
// buffer or connected layer.
type SizeMismatchError struct {
	Layer string // Layer description, may be empty
	What  string // What was checked (e.g., "input buffer")
	Want  int
	Got   int
}

// Error implements the error interface.
func (e *SizeMismatchError) Error() string {
	if e.Layer != "" {
		return fmt.Sprintf("layer %s: %s: want %d values, got %d", e.Layer, e.What, e.Want, e.Got)
	}
	return fmt.Sprintf("%s: want %d values, got %d", e.What, e.Want, e.Got)
}

// Is reports whether target is ErrSizeMismatch.
func (e *SizeMismatchError) Is(target error) bool {
	return target == ErrSizeMismatch
}

// InitializationError is returned when a layer cannot be initialized.
// It is fatal for the whole graph build.
type InitializationError struct {
	Layer string // Layer description
	Phase string // "forward" or "backward"
	Err   error  // Underlying cause
}

// Error implements the error interface.
func (e *InitializationError) Error() string {
	return fmt.Sprintf("layer %s: %s initialization: %v", e.Layer, e.Phase, e.Err)
}

// Is reports whether target is ErrInitialization.
func (e *InitializationError) Is(target error) bool {
	return target == ErrInitialization
}

// Unwrap returns the underlying cause.
func (e *InitializationError) Unwrap() error {
	return e.Err
}

// ContractViolation reports a programming error in a layer implementation or
// its caller. It is never recoverable.
type ContractViolation struct {
	Layer  string
	Reason string
}

// Error implements the error interface.
func (e *ContractViolation) Error() string {
	if e.Layer != "" {
		return fmt.Sprintf("contract violation: layer %s: %s", e.Layer, e.Reason)
	}
	return "contract violation: " + e.Reason
}

// Is reports whether target is ErrContractViolation.
func (e *ContractViolation) Is(target error) bool {
	return target == ErrContractViolation
}
