// Package retry is a small fixed-delay retry policy shared by all upstream
// call sites. A predicate decides which errors are worth another attempt;
// everything else fails immediately.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy holds the attempt budget, the delay between attempts and the
// retryable-error predicate. Zero MaxAttempts means one attempt. A nil
// Retryable retries every error.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Retryable   func(error) bool

	// OnRetry runs before each re-attempt with the attempt number about
	// to start (2-based) and the error that caused it.
	OnRetry func(attempt int, err error)
}

// Do runs op under the policy. The last error is returned when all
// attempts fail; context cancellation stops further attempts.
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(attempts-1)),
		ctx,
	)
	attempt := 1
	return backoff.RetryNotify(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, bo, func(err error, _ time.Duration) {
		attempt++
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
	})
}

// DoValue runs a value-returning op under the policy.
func DoValue[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func() error {
		var err error
		out, err = op()
		return err
	})
	return out, err
}
