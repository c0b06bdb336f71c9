package roster

import (
	"errors"
	"fmt"
)

// Sentinel errors for lookups.
var (
	// ErrNotFound indicates no linked contact has the requested ID.
	ErrNotFound = errors.New("contact not found")

	// ErrEmpty indicates the roster had no contact when one was required.
	// It wraps ErrNotFound.
	ErrEmpty = fmt.Errorf("roster is empty: %w", ErrNotFound)
)

// NotFoundError carries the ID a lookup failed on.
type NotFoundError struct {
	// ID is the contact ID that was requested.
	ID int64
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no such contact: %d", e.ID)
}

// Unwrap returns ErrNotFound for errors.Is support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
