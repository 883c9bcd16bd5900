package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy defines retry behavior for model calls.
type RetryPolicy struct {
	MaxRetries   int           // Maximum number of retry attempts (0 = no retries)
	InitialDelay time.Duration // Initial delay before first retry
	MaxDelay     time.Duration // Maximum delay cap
	Multiplier   float64       // Exponential backoff multiplier (e.g., 2.0)
	Jitter       bool          // Whether to add random jitter to delays
}

// DefaultRetryPolicy never retries; failed calls become error replies and the
// iteration ceiling bounds recovery. Raise MaxRetries to retry transport errors.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   0,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// RetryableFunc is a function that can be retried.
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// RetryWithPolicy executes fn, retrying errors classifyError does not reject.
func RetryWithPolicy[T any](
	ctx context.Context,
	policy RetryPolicy,
	fn RetryableFunc[T],
	classifyError func(error) RetryClass,
	onRetry func(attempt int, delay time.Duration, err error),
) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		class := classifyError(err)
		if class == RetryClassNonRetryable {
			return zero, err
		}
		if attempt >= policy.MaxRetries {
			if policy.MaxRetries == 0 {
				return zero, err
			}
			return zero, &RetryExhaustedError{Err: err, Attempts: attempt + 1}
		}
		// "maybe" errors get at most two retries
		if class == RetryClassMaybe && attempt >= 2 {
			return zero, &RetryExhaustedError{Err: err, Attempts: attempt + 1}
		}

		delay := calculateDelay(policy, attempt, err)
		if onRetry != nil {
			onRetry(attempt+1, delay, err)
		}

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
}

// calculateDelay computes the delay for a retry attempt.
func calculateDelay(policy RetryPolicy, attempt int, err error) time.Duration {
	if retryAfter := ExtractRetryAfter(err); retryAfter > 0 {
		if retryAfter > policy.MaxDelay {
			return policy.MaxDelay
		}
		return retryAfter
	}

	delay := float64(policy.InitialDelay) * math.Pow(policy.Multiplier, float64(attempt))
	if delay > float64(policy.MaxDelay) {
		delay = float64(policy.MaxDelay)
	}
	if policy.Jitter {
		delay += rand.Float64() * 0.2 * delay
	}
	return time.Duration(delay)
}
