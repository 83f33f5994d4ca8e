// Package retry provides the exponential backoff schedule used to re-establish
// the chat transport.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	apierr "github.com/p-blackswan/taskhub/internal/errors"
)

// Config holds retry configuration. MaxAttempts <= 0 retries until the
// context is done.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
	// Retryable decides whether an error is worth another attempt.
	// Nil uses apierr.IsRetryable.
	Retryable func(error) bool
}

// DefaultConfig returns the chat reconnect defaults: 5s doubling up to 30s.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 0,
		BaseDelay:   5 * time.Second,
		MaxDelay:    30 * time.Second,
		Jitter:      true,
	}
}

// Delay returns the wait before retry number attempt (0-based).
func (c Config) Delay(attempt int) time.Duration {
	delay := c.MaxDelay
	if scaled := float64(c.BaseDelay) * math.Pow(2, float64(attempt)); scaled < float64(c.MaxDelay) {
		delay = time.Duration(scaled)
	}
	if c.Jitter {
		delay = time.Duration(float64(delay) * (0.5 + rand.Float64()*0.5))
	}
	return delay
}

func (c Config) retryable(err error) bool {
	if c.Retryable != nil {
		return c.Retryable(err)
	}
	return apierr.IsRetryable(err)
}

// Do executes fn with exponential backoff. Only retries if the error is retryable.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; cfg.MaxAttempts <= 0 || attempt < cfg.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !cfg.retryable(lastErr) {
			return lastErr
		}
		if cfg.MaxAttempts > 0 && attempt == cfg.MaxAttempts-1 {
			break
		}

		timer := time.NewTimer(cfg.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
