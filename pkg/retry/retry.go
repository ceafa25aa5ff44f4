// Package retry implements the fixed exponential backoff schedule used
// throughout the orchestrator for retryable ProviderError/StoreError
// conditions (§7): up to 3 attempts, waiting 500ms after the first failure
// and 1s after the second; the 2s step in Delays is not reached within
// MaxAttempts, and no delay exceeds 4s. The schedule is a literal constant
// per spec and must not be tuned per
// call site.
package retry

import (
	"context"
	"time"
)

// Delays is the fixed backoff schedule: Delays[i] is the wait after the
// (i+1)th failed attempt. With MaxAttempts = 3 only Delays[0] and Delays[1]
// are used.
var Delays = []time.Duration{
	500 * time.Millisecond,
	1 * time.Second,
	2 * time.Second,
}

// MaxAttempts is the total number of attempts (1 initial + up to 2 retries,
// for 3 attempts total) per spec §4.3 step 4 / §7.
const MaxAttempts = 3

// Do runs fn up to MaxAttempts times, sleeping per Delays between attempts.
// It stops retrying immediately if shouldRetry(err) is false, returning that
// error. A cancelled ctx aborts the wait and returns ctx.Err().
func Do(ctx context.Context, shouldRetry func(error) bool, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if shouldRetry != nil && !shouldRetry(lastErr) {
			return lastErr
		}
		if attempt == MaxAttempts-1 {
			break
		}
		delay := Delays[attempt]
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}
