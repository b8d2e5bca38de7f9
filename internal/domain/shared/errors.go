// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrAlreadyDone     = errors.New("already done")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")

	// Persistence errors
	ErrPersistence        = errors.New("persistence error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "plan", "profile", "leaderboard"
	Op      string // Operation that failed, e.g., "Transition", "Award"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Plan domain errors
var (
	ErrPlanNotFound      = NewDomainError("plan", "Find", ErrNotFound, "study plan not found")
	ErrPlanAlreadyExists = NewDomainError("plan", "Create", ErrAlreadyExists, "study plan already exists")
	ErrInvalidTransition = NewDomainError("plan", "Transition", ErrStateTransition, "illegal plan status transition")
	ErrInvalidPlanStatus = NewDomainError("plan", "Validate", ErrInvalidInput, "invalid plan status")
	ErrNotPlanOwner      = NewDomainError("plan", "Authorize", ErrForbidden, "plan belongs to another user")
)

// Profile domain errors
var (
	ErrProfileNotFound = NewDomainError("profile", "Find", ErrNotFound, "profile not found")
	ErrProfileExists   = NewDomainError("profile", "Create", ErrAlreadyExists, "profile already exists")
	ErrInvalidXPAmount = NewDomainError("profile", "Award", ErrValueOutOfRange, "xp amount must be positive")
	ErrProfileConflict = NewDomainError("profile", "Update", ErrOptimisticLock, "profile changed concurrently")
	ErrInvalidUsername = NewDomainError("profile", "Validate", ErrInvalidInput, "invalid username")
	ErrXPWouldDecrease = NewDomainError("profile", "Update", ErrInvalidState, "total xp cannot decrease")
)

// Session domain errors
var (
	ErrSessionNotFound = NewDomainError("session", "Find", ErrNotFound, "study session not found")
	ErrInvalidSession  = NewDomainError("session", "Validate", ErrInvalidInput, "invalid study session")
)

// Leaderboard domain errors
var (
	ErrInvalidLimit     = NewDomainError("leaderboard", "Validate", ErrValueOutOfRange, "limit must be positive")
	ErrLeaderboardEmpty = NewDomainError("leaderboard", "Rank", ErrNotFound, "no profiles to rank")
)

// Identity errors
var (
	ErrUserNotFound       = NewDomainError("identity", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists  = NewDomainError("identity", "Register", ErrAlreadyExists, "user already registered")
	ErrInvalidCredentials = NewDomainError("identity", "Login", ErrUnauthorized, "invalid credentials")
	ErrSessionExpired     = NewDomainError("identity", "Authenticate", ErrUnauthorized, "session expired")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsConflict checks if the error is a concurrent-modification conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrOptimisticLock) ||
		errors.Is(err, ErrConcurrentModification)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrOptimisticLock) ||
		errors.Is(err, ErrConcurrentModification)
}
