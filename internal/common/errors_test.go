package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrors(t *testing.T) {
	cause := errors.New("database is locked")

	tests := []struct {
		err      error
		sentinel error
		name     string
		message  string
	}{
		{
			name:     "malformed input",
			err:      &MalformedInputError{Field: "ip", Value: "10.0"},
			sentinel: ErrMalformedInput,
			message:  `malformed input: ip "10.0"`,
		},
		{
			name:     "invalid rule",
			err:      &InvalidRuleError{Rule: "geo_velocity", Reason: "unknown rule id"},
			sentinel: ErrInvalidRule,
			message:  `invalid rule "geo_velocity": unknown rule id`,
		},
		{
			name:     "durable write",
			err:      &DurableWriteError{Err: cause, BatchSize: 50},
			sentinel: ErrDurableWrite,
			message:  "durable write failed for batch of 50: database is locked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error())
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.ErrorIs(t, fmt.Errorf("wrapped: %w", tt.err), tt.sentinel)
		})
	}
}

func TestDurableWriteError_UnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("flush: %w", &DurableWriteError{Err: cause, BatchSize: 1})

	assert.ErrorIs(t, err, cause)

	var writeErr *DurableWriteError
	assert.ErrorAs(t, err, &writeErr)
	assert.Equal(t, 1, writeErr.BatchSize)
}

func TestUserError(t *testing.T) {
	cause := errors.New("permission denied")
	err := NewUserError("could not open the transaction database", cause)

	assert.Equal(t, "could not open the transaction database: permission denied", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "no cause", NewUserError("no cause", nil).Error())
}
