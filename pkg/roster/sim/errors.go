package sim

import (
	"errors"
	"fmt"
)

// ErrInvariant indicates the roster ended a run in a state no correct
// interleaving of its operations could produce.
var ErrInvariant = errors.New("roster invariant violated")

// InvariantError describes which check failed.
type InvariantError struct {
	Check  string
	Detail string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvariant, e.Check, e.Detail)
}

// Unwrap returns ErrInvariant for errors.Is support.
func (e *InvariantError) Unwrap() error {
	return ErrInvariant
}

func violation(check, format string, args ...any) *InvariantError {
	return &InvariantError{Check: check, Detail: fmt.Sprintf(format, args...)}
}
