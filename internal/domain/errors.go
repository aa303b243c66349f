// Package domain holds the shared models, status machines and error
// taxonomy used across the scheduling and screening pipeline.
package domain

import (
	"errors"
	"fmt"
)

// ErrRaceSkip signals that a fresh read or optimistic-concurrency guard
// found the record already advanced by another tick or a user action.
// Callers skip the item silently; this is not a failure.
var ErrRaceSkip = errors.New("record advanced concurrently, skipping")

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ValidationError rejects bad input shape. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ProviderError carries a non-success response from an external
// dependency (call provider, LLM, embedding service) verbatim, so the
// caller can surface the provider's own code and message.
type ProviderError struct {
	Provider   string
	Code       string
	Message    string
	HTTPStatus int
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s error %s (http %d): %s", e.Provider, e.Code, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s error (http %d): %s", e.Provider, e.HTTPStatus, e.Message)
}

// InvariantError rejects an action that would violate a business rule,
// e.g. stopping a call at or after its scheduled time. Surfaced to the
// caller, never silently swallowed.
type InvariantError struct {
	Rule    string
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

// NewInvariantError builds an InvariantError for a named rule.
func NewInvariantError(rule, format string, args ...interface{}) *InvariantError {
	return &InvariantError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInvariant reports whether err is an InvariantError.
func IsInvariant(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}

// AsProviderError unwraps err to a ProviderError if possible.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
