// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Evaluation errors.
	ErrMalformedInput = errors.New("malformed input")
	ErrInvalidRule    = errors.New("invalid rule")

	// Persistence errors.
	ErrDurableWrite    = errors.New("durable write failed")
	ErrFlushInProgress = errors.New("flush already in progress")

	// ErrCacheMiss signals an absent snapshot. It is not a failure.
	ErrCacheMiss = errors.New("cache miss")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// MalformedInputError reports a record field that could not be parsed.
type MalformedInputError struct {
	Field string
	Value string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("%s: %s %q", ErrMalformedInput, e.Field, e.Value)
}

func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}

// InvalidRuleError reports a rule that cannot be evaluated.
type InvalidRuleError struct {
	Rule   string
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidRule, e.Rule, e.Reason)
}

func (e *InvalidRuleError) Unwrap() error {
	return ErrInvalidRule
}

// DurableWriteError wraps a failed transactional batch insert.
type DurableWriteError struct {
	Err       error
	BatchSize int
}

func (e *DurableWriteError) Error() string {
	return fmt.Sprintf("%s for batch of %d: %v", ErrDurableWrite, e.BatchSize, e.Err)
}

func (e *DurableWriteError) Unwrap() []error {
	return []error{ErrDurableWrite, e.Err}
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
