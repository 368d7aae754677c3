package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during tabulation.
var (
	// ErrDataIntegrity indicates that ballots or the candidate set violate the
	// election invariants. It is fatal for the affected election.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrUnknownRule indicates that a rule name is not one of the built-in rules.
	ErrUnknownRule = errors.New("unknown rule")

	// ErrEmptyValue indicates that a required value is empty or nil.
	ErrEmptyValue = errors.New("empty value")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// DataIntegrityError describes a ballot or candidate set that breaks the
// election invariants. It wraps ErrDataIntegrity.
type DataIntegrityError struct {
	// Candidate is the offending candidate, if any.
	Candidate Candidate

	// Ranking is the offending ballot ranking, if any.
	Ranking Ranking

	// Reason explains which invariant was violated.
	Reason string

	// Suggestion is the closest declared candidate for an unknown name.
	// It is filled in by loaders that can compute one.
	Suggestion Candidate
}

// Error implements the error interface for DataIntegrityError.
func (e *DataIntegrityError) Error() string {
	msg := fmt.Sprintf("data integrity error: %s", e.Reason)
	if e.Candidate != "" {
		msg += fmt.Sprintf(", candidate=%q", string(e.Candidate))
	}
	if e.Ranking != nil {
		msg += fmt.Sprintf(", ballot=%s", e.Ranking)
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", string(e.Suggestion))
	}
	return msg
}

// Unwrap returns ErrDataIntegrity so callers can use errors.Is.
func (e *DataIntegrityError) Unwrap() error { return ErrDataIntegrity }

// NewDataIntegrityError creates a new DataIntegrityError with the given details.
func NewDataIntegrityError(candidate Candidate, ranking Ranking, reason string) *DataIntegrityError {
	return &DataIntegrityError{
		Candidate: candidate,
		Ranking:   ranking,
		Reason:    reason,
	}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Unwrap returns ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error { return ErrInvalidConfiguration }

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
