package hue

import (
	"context"
	"time"

	"github.com/lampgrid/lampgrid-core/internal/infrastructure/config"
)

// RetryPolicy bounds retries of transport-level failures against one bridge.
//
// The policy is an explicit value passed into dispatch calls rather than
// control flow buried in the client, so retry behaviour is testable on its
// own and tunable per deployment.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the delay between attempts as backoff doubles.
	MaxBackoff time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
	}
}

// RetryPolicyFromConfig converts configured retry settings into a policy.
func RetryPolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialBackoff > 0 {
		p.InitialBackoff = time.Duration(cfg.InitialBackoff) * time.Millisecond
	}
	if cfg.MaxBackoff > 0 {
		p.MaxBackoff = time.Duration(cfg.MaxBackoff) * time.Millisecond
	}
	return p
}

// Do runs fn, retrying transport errors up to the policy's attempt bound
// with doubling backoff. Application-level bridge errors return immediately.
//
// Context cancellation during a backoff wait returns the context error, so
// a caller-level timeout is never extended by pending retries.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	backoff := p.InitialBackoff
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
				backoff = p.MaxBackoff
			}
		}

		err = fn(ctx)
		if err == nil || !IsTransient(err) {
			return err
		}
	}
	return err
}
