package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// ErrMaxRetries indicates that every delivery attempt failed with a transient error.
var ErrMaxRetries = errors.New("max retries exceeded")

// DeliveryPolicy controls how a call to an external service, such as a mail relay,
// is retried. Zero fields fall back to three attempts with a 100ms delay doubling up
// to 30s.
type DeliveryPolicy struct {
	// Permanent reports failures that retrying cannot fix. A nil Permanent treats
	// every failure as transient.
	Permanent    func(error) bool
	Target       string
	MaxAttempts  uint64
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func (p DeliveryPolicy) withDefaults() DeliveryPolicy {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = 3
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 100 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	return p
}

// Deliver calls deliver until it succeeds, fails permanently, ctx is done, or the
// policy's attempts run out. Exhaustion is reported as ErrMaxRetries wrapping the
// last failure.
func Deliver(ctx context.Context, policy DeliveryPolicy, deliver func(ctx context.Context) error) error {
	policy = policy.withDefaults()

	b := retry.NewExponential(policy.InitialDelay)
	b = retry.WithCappedDuration(policy.MaxDelay, b)
	b = retry.WithMaxRetries(policy.MaxAttempts-1, b)

	var attempts uint64
	var transient error
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempts++
		err := deliver(ctx)
		if err == nil {
			return nil
		}
		if policy.Permanent != nil && policy.Permanent(err) {
			transient = nil
			return err
		}

		transient = err
		if attempts < policy.MaxAttempts {
			slog.Warn("Delivery failed, retrying",
				"target", policy.Target,
				"attempt", attempts,
				"max_attempts", policy.MaxAttempts,
				"error", err)
		}
		return retry.RetryableError(err)
	})

	if err == nil || transient == nil || ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, attempts, err)
}
