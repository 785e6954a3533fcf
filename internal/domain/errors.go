package domain

import "fmt"

// ValidationError: malformed or incomplete input; rejected before any state change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// IllegalTransitionError: requested state change is not an allowed edge.
type IllegalTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal %s transition: %s -> %s", e.Entity, e.From, e.To)
}

// ConcurrencyConflictError: optimistic check-and-set failed because another actor
// moved the record first. Caller should refresh and retry.
type ConcurrencyConflictError struct {
	Entity   string
	ID       string
	Expected string
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrent update on %s %s: no longer in state %q", e.Entity, e.ID, e.Expected)
}

// ConstraintViolationError names the specific invariant a request would break.
type ConstraintViolationError struct {
	Invariant string
	Detail    string
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("constraint violated (%s): %s", e.Invariant, e.Detail)
}

// NotFoundError: referenced entity does not exist (or is archived).
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}
