package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no routing config exists for an address.
var ErrNotFound = errors.New("routing config not found")

// ValidationError describes an invalid routing config payload. It is
// returned before anything is persisted, so the dispatcher never sees an
// invalid config.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}
