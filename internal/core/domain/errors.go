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

	// ErrConfiguration indicates missing or invalid configuration.
	// Configuration errors are fatal and abort the run.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrModelMismatch indicates the embedding model identity of cached
	// label embeddings differs from the configured model. Mixing embedding
	// spaces is a fatal configuration error, never a silent degradation.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrSourceUnavailable indicates the graph source or embedding
	// provider is unreachable after retries were exhausted.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedHierarchy indicates a cyclic or malformed note
	// hierarchy. Fatal for the affected subtree only; the run continues
	// for other subtrees.
	ErrMalformedHierarchy = errors.New("malformed note hierarchy")

	// ErrActiveSession indicates the reviewer already has a live session.
	ErrActiveSession = errors.New("reviewer already has an active session")

	// ErrNoSession indicates no live session exists for the reviewer.
	ErrNoSession = errors.New("no active session")

	// ErrIllegalTransition indicates a ledger state change the assignment
	// state machine does not allow.
	ErrIllegalTransition = errors.New("illegal assignment transition")

	// ErrEmptyCatalog indicates classification was attempted before any
	// labels were loaded.
	ErrEmptyCatalog = errors.New("label catalog is empty")

	// ErrNoSnapshot indicates the snapshot store has no synced data yet.
	ErrNoSnapshot = errors.New("no snapshot available, run sync first")

	// ErrRunInProgress indicates a classification run is already active.
	ErrRunInProgress = errors.New("classification run already in progress")
)

// PartialApplyError reports an apply batch where one or more approved
// entries failed to commit. Succeeded entries have already moved to
// Applied; failed ones remain Approved and are retryable.
type PartialApplyError struct {
	Report ApplyReport
}

// Error implements the error interface.
func (e *PartialApplyError) Error() string {
	return fmt.Sprintf("apply batch partially failed: %d applied, %d failed",
		e.Report.AppliedCount(), e.Report.FailedCount())
}
