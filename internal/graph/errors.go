package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrRecordNotFound indicates a record read found nothing.
	ErrRecordNotFound = errors.New("record not found")
)

// TransportError reports a failed call against the backing store. It wraps
// the underlying cause so callers can still errors.Is/As through it.
type TransportError struct {
	Op     string // store operation, e.g. "submit graph"
	Status int    // HTTP status when known, 0 otherwise
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("graph store %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("graph store %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
