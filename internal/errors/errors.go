package errors

import (
	"errors"
	"fmt"
)

// Input errors: deterministic for a given request, rejected before any write.
var (
	ErrSelfDecision      = errors.New("cannot decide on yourself")
	ErrInvalidPair       = errors.New("decision requires one company and one agent")
	ErrProfileIncomplete = errors.New("profile incomplete")
	ErrNotFound          = errors.New("not found")
	ErrInvalidArgument   = errors.New("invalid argument")
)

// Storage and consistency errors.
var (
	// ErrPersistence is transient. Callers retry the whole operation.
	ErrPersistence = errors.New("persistence failure")
	// ErrLockContention is returned (wrapped in ErrPersistence) when a pair lock
	// could not be acquired within the retry budget.
	ErrLockContention = errors.New("pair lock contention")
	// ErrInvariantViolation means the ledger is in a state the state machine can
	// never produce. It is fatal for the request and never repaired silently.
	ErrInvariantViolation = errors.New("ledger invariant violation")
)

// Persistence wraps a storage failure so that errors.Is matches both ErrPersistence
// and the underlying cause. Input errors and invariant violations pass through.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsInput(err) || errors.Is(err, ErrPersistence) || errors.Is(err, ErrInvariantViolation) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// Invalid returns an ErrInvalidArgument carrying a message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// IsInput reports whether err is one of the input errors.
func IsInput(err error) bool {
	return errors.Is(err, ErrSelfDecision) ||
		errors.Is(err, ErrInvalidPair) ||
		errors.Is(err, ErrProfileIncomplete) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidArgument)
}
