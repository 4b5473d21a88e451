package domain

import (
	"errors"
	"fmt"
)

// ErrFormatNotFound is returned when a requested format id is absent
// from the current metadata snapshot. The download never starts.
var ErrFormatNotFound = errors.New("format not found")

// ErrSessionNotFound is returned for lookups of unknown or already
// removed sessions.
var ErrSessionNotFound = errors.New("session not found")

// ProviderError wraps a failure of the extraction provider: metadata
// fetch, stream open, or mid-stream read, including timeouts.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err as a provider failure for the given
// operation.
func NewProviderError(op string, err error) *ProviderError {
	return &ProviderError{Op: op, Err: err}
}
