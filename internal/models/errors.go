package models

import (
	"fmt"
	"strings"
)

// Domain error types. Guard and validation failures are raised before any
// mutation; handlers map these to HTTP statuses with errors.As.

// NotFoundError reports an unknown id, or an id outside the caller's tenant
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// InvalidTransitionError reports an operation not allowed from the current status
type InvalidTransitionError struct {
	Current   DepositStatus
	Operation string
	Allowed   []DepositStatus
}

func (e *InvalidTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("cannot %s a deposit in status %s; allowed from: %s",
		e.Operation, e.Current, strings.Join(allowed, ", "))
}

// ValidationError reports an invalid input value
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConcurrentModificationError reports an optimistic write conflict. Retrying
// the transition against the latest state is safe; the guard re-runs there.
type ConcurrentModificationError struct {
	DepositID int
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("deposit %d was modified concurrently, retry against latest state", e.DepositID)
}

// DuplicateDepositError reports a second deposit for a rental that already has one
type DuplicateDepositError struct {
	RentalID int
}

func (e *DuplicateDepositError) Error() string {
	return fmt.Sprintf("rental %d already has a deposit", e.RentalID)
}
