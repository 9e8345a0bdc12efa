package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Retrieval and link ingestion are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStoreFailure indicates an I/O failure talking to the metadata,
	// chunk, rating or points store. It is never retried by the core.
	ErrStoreFailure = errors.New("store failure")

	// ErrPartialDelete indicates the chunks of a link were removed but the
	// link's metadata record could not be. The stores are left inconsistent.
	ErrPartialDelete = errors.New("partial delete")

	// ErrRateLimited indicates a provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// StoreError wraps a store failure with the operation and entity id
// it happened on. It matches both ErrStoreFailure and the cause.
type StoreError struct {
	// Op names the store operation, e.g. "scan metadata".
	Op string

	// ID is the entity the operation targeted. Empty for bulk operations.
	ID string

	// Err is the underlying adapter error.
	Err error
}

// NewStoreError returns a StoreError for op on id.
func NewStoreError(op, id string, err error) *StoreError {
	return &StoreError{Op: op, ID: id, Err: err}
}

func (e *StoreError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is and errors.As.
func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreFailure, e.Err}
}

// ValidationError describes which input field was rejected.
// It matches ErrInvalidInput.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
