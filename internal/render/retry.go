package render

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RetryPolicy configures retry behavior for failed renders.
type RetryPolicy struct {
	// MaxAttempts is the total number of render attempts per target.
	MaxAttempts int

	// BaseDelay is the initial backoff delay before the second attempt.
	BaseDelay time.Duration

	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns a RetryPolicy with sensible defaults:
// 2 attempts, 1s base delay, 15s max delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 2,
		BaseDelay:   1 * time.Second,
		MaxDelay:    15 * time.Second,
	}
}

// AttemptError is a terminal render error carrying the number of attempts
// actually made. A failed target may stop short of the configured budget
// when the error is not retryable, so callers building failure records
// read the real count from here instead of the policy.
type AttemptError struct {
	// Attempts is the number of render attempts made before giving up.
	Attempts int

	// Err is the last render error.
	Err error
}

// Error reports the underlying error with the attempt count.
func (e *AttemptError) Error() string {
	return fmt.Sprintf("%v (after %d attempts)", e.Err, e.Attempts)
}

// Unwrap returns the underlying render error.
func (e *AttemptError) Unwrap() error { return e.Err }

// RetryRenderer wraps a Renderer with exponential-backoff retry logic.
// The crawl loop observes only the final attempt count; the retry policy
// is internal to the render capability.
type RetryRenderer struct {
	inner  Renderer
	policy RetryPolicy
}

// NewRetryRenderer wraps the given renderer with the given policy.
// A MaxAttempts below 1 is treated as 1.
func NewRetryRenderer(inner Renderer, policy RetryPolicy) *RetryRenderer {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &RetryRenderer{inner: inner, policy: policy}
}

// Render attempts the inner render up to MaxAttempts times with
// exponential backoff between attempts. On success the result's Attempts
// field reflects the attempts made; on failure the last error is returned
// as an AttemptError carrying the attempts actually made.
func (r *RetryRenderer) Render(ctx context.Context, url string) (*Result, error) {
	backoff := r.policy.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, &AttemptError{Attempts: attempt - 1, Err: fmt.Errorf("render %s: %w", url, ctx.Err())}
			case <-time.After(backoff):
				backoff = min(backoff*2, r.policy.MaxDelay)
			}
		}

		result, err := r.inner.Render(ctx, url)
		if err == nil {
			result.Attempts = attempt
			return result, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return nil, &AttemptError{Attempts: attempt, Err: err}
		}
	}

	return nil, &AttemptError{Attempts: r.policy.MaxAttempts, Err: lastErr}
}

// isRetryable determines whether a render error indicates a transient
// condition worth another attempt. Navigation timeouts, DNS hiccups, and
// connection resets are retryable; a cancelled context is not.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if strings.Contains(err.Error(), context.Canceled.Error()) {
		return false
	}

	retryablePatterns := []string{
		"timeout",
		"deadline exceeded",
		"connection refused",
		"connection reset",
		"no such host",
		"temporarily unavailable",
		"net::ERR_",
	}

	msg := err.Error()
	for _, pattern := range retryablePatterns {
		if strings.Contains(strings.ToLower(msg), strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}
