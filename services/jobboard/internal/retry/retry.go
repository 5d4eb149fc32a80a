package retry

import (
	"context"
	"time"

	apperrors "campusjobs/services/jobboard/internal/errors"

	"github.com/cenkalti/backoff/v4"
)

// Policy decides whether a failed attempt is retried. attempts counts the
// attempts made so far, including the one that just failed.
type Policy interface {
	ShouldRetry(kind apperrors.ErrorType, attempts int) bool
}

// ClassifiedPolicy retries timeouts and network failures up to MaxRetries
// extra attempts. Backend error responses are never retried.
type ClassifiedPolicy struct {
	MaxRetries int
}

func (p ClassifiedPolicy) ShouldRetry(kind apperrors.ErrorType, attempts int) bool {
	switch kind {
	case apperrors.ErrTypeTimeout, apperrors.ErrTypeNetwork:
		return attempts <= p.MaxRetries
	default:
		return false
	}
}

// NewBackOff returns an exponential schedule doubling from initial up to max,
// without jitter.
func NewBackOff(initial, max time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = max
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Do runs fn until it succeeds or policy refuses another attempt, sleeping
// per b between attempts. It returns the last error and the attempt count.
func Do[T any](ctx context.Context, policy Policy, b backoff.BackOff, fn func(ctx context.Context, attempt int) (T, error)) (T, int, error) {
	var zero T
	attempts := 0
	for {
		attempts++
		result, err := fn(ctx, attempts)
		if err == nil {
			return result, attempts, nil
		}
		if ctx.Err() != nil || !policy.ShouldRetry(apperrors.TypeOf(err), attempts) {
			return zero, attempts, err
		}

		delay := b.NextBackOff()
		if delay == backoff.Stop {
			return zero, attempts, err
		}
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, attempts, err
			case <-timer.C:
			}
		}
	}
}
