package entity

import (
	"errors"
	"fmt"
)

// ErrEmptyTranscript means there is no usable text to extract from. It is
// surfaced to the caller and never retried.
var ErrEmptyTranscript = errors.New("empty transcript")

// ProviderError reports the failure of a single extraction provider. It is
// absorbed at the orchestrator boundary and never fails the pipeline.
type ProviderError struct {
	Provider string
	Cause    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed: %v", e.Provider, e.Cause)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// ValidationError rejects a note before persistence.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// PersistenceError means the durable store was unreachable or rejected the
// write. The local cache is never touched on this path.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}
