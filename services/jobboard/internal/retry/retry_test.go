package retry

import (
	"context"
	"testing"
	"time"

	apperrors "campusjobs/services/jobboard/internal/errors"

	"github.com/cenkalti/backoff/v4"
)

func TestClassifiedPolicy(t *testing.T) {
	policy := ClassifiedPolicy{MaxRetries: 2}

	tests := []struct {
		kind     apperrors.ErrorType
		attempts int
		want     bool
	}{
		{apperrors.ErrTypeTimeout, 1, true},
		{apperrors.ErrTypeTimeout, 2, true},
		{apperrors.ErrTypeTimeout, 3, false},
		{apperrors.ErrTypeNetwork, 1, true},
		{apperrors.ErrTypeNetwork, 3, false},
		{apperrors.ErrTypeAPI, 1, false},
		{apperrors.ErrTypeValidation, 1, false},
		{apperrors.ErrTypeInternal, 1, false},
	}
	for _, tt := range tests {
		if got := policy.ShouldRetry(tt.kind, tt.attempts); got != tt.want {
			t.Fatalf("ShouldRetry(%s, %d) = %v, want %v", tt.kind, tt.attempts, got, tt.want)
		}
	}
}

func TestDoStopsAfterThreeAttemptsOnTimeout(t *testing.T) {
	calls := 0
	_, attempts, err := Do(context.Background(), ClassifiedPolicy{MaxRetries: 2}, &backoff.ZeroBackOff{},
		func(ctx context.Context, attempt int) (int, error) {
			calls++
			return 0, apperrors.Timeout(context.DeadlineExceeded)
		})
	if !apperrors.Is(err, apperrors.ErrTypeTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if calls != 3 || attempts != 3 {
		t.Fatalf("expected 3 attempts, got calls=%d attempts=%d", calls, attempts)
	}
}

func TestDoDoesNotRetryAPIError(t *testing.T) {
	calls := 0
	_, _, err := Do(context.Background(), ClassifiedPolicy{MaxRetries: 2}, &backoff.ZeroBackOff{},
		func(ctx context.Context, attempt int) (string, error) {
			calls++
			return "", apperrors.API(500, "db down", nil)
		})
	if !apperrors.Is(err, apperrors.ErrTypeAPI) || calls != 1 {
		t.Fatalf("expected single API failure, got calls=%d err=%v", calls, err)
	}
}

func TestDoReturnsFirstSuccess(t *testing.T) {
	got, attempts, err := Do(context.Background(), ClassifiedPolicy{MaxRetries: 2}, &backoff.ZeroBackOff{},
		func(ctx context.Context, attempt int) (int, error) {
			if attempt == 1 {
				return 0, apperrors.Network("network error", nil)
			}
			return 7, nil
		})
	if err != nil || got != 7 || attempts != 2 {
		t.Fatalf("unexpected result got=%d attempts=%d err=%v", got, attempts, err)
	}
}

func TestBackOffDoubles(t *testing.T) {
	b := NewBackOff(time.Second, 3*time.Second)
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
	for i, w := range want {
		if got := b.NextBackOff(); got != w {
			t.Fatalf("step %d: expected %s, got %s", i, w, got)
		}
	}
}
