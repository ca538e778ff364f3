// Package apperr defines the error kinds surfaced by the mastery engine.
// Use errors.Is to check: errors.Is(err, apperr.ErrNotFound)
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input rejected before any state mutation.
	ErrValidation = errors.New("mastery: validation failed")
	// ErrNotFound marks a missing learner, course record, concept or session.
	ErrNotFound = errors.New("mastery: not found")
	// ErrDependencyUnavailable marks an unreachable or unusable remote service.
	ErrDependencyUnavailable = errors.New("mastery: dependency unavailable")
	// ErrConcurrencyConflict marks a write that lost a version race.
	ErrConcurrencyConflict = errors.New("mastery: concurrency conflict")
)

var kinds = []error{ErrValidation, ErrNotFound, ErrDependencyUnavailable, ErrConcurrencyConflict}

func Validationf(format string, args ...any) error {
	return wrap(ErrValidation, format, args...)
}

func NotFoundf(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

func Unavailablef(format string, args ...any) error {
	return wrap(ErrDependencyUnavailable, format, args...)
}

func Conflictf(format string, args ...any) error {
	return wrap(ErrConcurrencyConflict, format, args...)
}

// Kind returns the sentinel err wraps, or nil for unclassified errors.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
