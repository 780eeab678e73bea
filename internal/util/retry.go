package util

import (
	"context"
	"time"
)

// Retry calls fn until it succeeds or maxRetries additional attempts after
// the first have failed, so maxRetries=3 means at most 4 calls. The delay
// between attempts starts at baseDelay and doubles each step. Context
// cancellation is honoured between attempts.
func Retry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func() error) error {
	var err error
	delay := baseDelay

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		// No sleep after the final attempt.
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return err
}
