package domain

import (
	"errors"
	"fmt"
)

// The five failure kinds surfaced by grading and dispute resolution.
// Callers branch with errors.Is; details are wrapped around these sentinels.
var (
	// ErrNotFound is returned when a referenced question, game, or dispute
	// does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a dispute is already resolved or a
	// duplicate grading race lost the slot uniqueness check.
	ErrConflict = errors.New("conflict")
	// ErrForbidden is returned when the caller does not own the referenced
	// game or lacks resolver privilege.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation is returned on malformed input (empty answer, unknown
	// round or mode value).
	ErrValidation = errors.New("invalid input")
	// ErrConsistency means a grading invariant was found violated
	// mid-transaction; the transaction must abort, never partially repair.
	ErrConsistency = errors.New("consistency failure")
)

// NotFoundf wraps ErrNotFound with context.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Conflictf wraps ErrConflict with context.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}

// Forbiddenf wraps ErrForbidden with context.
func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrForbidden)...)
}

// Validationf wraps ErrValidation with context.
func Validationf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// Consistencyf wraps ErrConsistency with context.
func Consistencyf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConsistency)...)
}
