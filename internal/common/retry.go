package common

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// RetryableFunc is the operation to retry. A nil return stops the loop.
type RetryableFunc func() error

// retryConfig holds backoff parameters.
type retryConfig struct {
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
}

// Option configures retry behavior.
type Option func(*retryConfig)

// WithMaxRetries sets the retry attempt cap (default 3).
func WithMaxRetries(n int) Option {
	return func(c *retryConfig) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithInitialDelay sets the delay before the first retry (default 1s).
func WithInitialDelay(d time.Duration) Option {
	return func(c *retryConfig) {
		if d > 0 {
			c.initialDelay = d
		}
	}
}

// WithMaxDelay caps the backoff delay (default 30s).
func WithMaxDelay(d time.Duration) Option {
	return func(c *retryConfig) {
		if d > 0 {
			c.maxDelay = d
		}
	}
}

// Do runs fn with exponential backoff, honoring ctx cancellation.
// It returns nil as soon as an attempt succeeds, and the last error
// (wrapped) once all attempts are spent.
//
// Note: the scan pipeline deliberately does NOT use this for LLM or
// per-candidate metadata calls; those fail fast and fall back to cache.
func Do(ctx context.Context, fn RetryableFunc, opts ...Option) error {
	if fn == nil {
		return errors.New("retry: function cannot be nil")
	}

	cfg := &retryConfig{
		maxRetries:   3,
		initialDelay: time.Second,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var lastErr error
	if lastErr = fn(); lastErr == nil {
		return nil
	}

	for attempt := 1; attempt <= cfg.maxRetries; attempt++ {
		delay := backoffDelay(attempt, cfg)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted (attempt %d/%d): %w", attempt, cfg.maxRetries, ctx.Err())
		case <-timer.C:
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("retry failed after %d attempts: %w", cfg.maxRetries+1, lastErr)
}

// backoffDelay computes initialDelay * multiplier^(attempt-1), capped at maxDelay.
func backoffDelay(attempt int, cfg *retryConfig) time.Duration {
	d := float64(cfg.initialDelay) * math.Pow(cfg.multiplier, float64(attempt-1))
	if time.Duration(d) > cfg.maxDelay {
		return cfg.maxDelay
	}
	return time.Duration(d)
}
