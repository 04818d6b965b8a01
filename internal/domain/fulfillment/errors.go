package fulfillment

import (
	"fmt"

	"github.com/storefront/backend/internal/domain/shared"
)

// TransitionError is returned when a requested status is not reachable from
// the current one. It names both so an operator can see why the move failed.
type TransitionError struct {
	*shared.DomainError
	From     Status `json:"from"`
	To       Status `json:"to"`
	// Observed is the status the request was made against when another
	// transition committed first. Empty for plain INVALID_TRANSITION.
	Observed Status `json:"observed,omitempty"`
}

// NewTransitionError creates an INVALID_TRANSITION error for from -> to
func NewTransitionError(from, to Status) *TransitionError {
	return &TransitionError{
		DomainError: shared.NewDomainError(
			shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot transition fulfillment order from %s to %s", from, to),
		),
		From: from,
		To:   to,
	}
}

// NewRacedTransitionError creates a CONFLICTING_WRITE error for a request
// made against observed that lost the row lock to a transition into current,
// from which to is not reachable
func NewRacedTransitionError(observed, current, to Status) *TransitionError {
	return &TransitionError{
		DomainError: shared.NewDomainError(
			shared.CodeConflictingWrite,
			fmt.Sprintf("Fulfillment order moved from %s to %s concurrently; cannot transition to %s", observed, current, to),
		),
		From:     current,
		To:       to,
		Observed: observed,
	}
}

// Unwrap exposes the embedded DomainError to errors.As
func (e *TransitionError) Unwrap() error {
	return e.DomainError
}

// NewNotFoundError creates a NOT_FOUND error for the named record
func NewNotFoundError(what string, id fmt.Stringer) *shared.DomainError {
	return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("%s %s not found", what, id))
}

// NewValidationError creates a VALIDATION_ERROR with the given message
func NewValidationError(message string) *shared.DomainError {
	return shared.NewDomainError(shared.CodeValidation, message)
}

// NewConflictingWriteError creates a CONFLICTING_WRITE error for a lost race
func NewConflictingWriteError(id fmt.Stringer, expected, actual int) *shared.DomainError {
	return shared.NewDomainError(
		shared.CodeConflictingWrite,
		fmt.Sprintf("Fulfillment order %s was modified concurrently (expected version %d, found %d)", id, expected, actual),
	)
}
