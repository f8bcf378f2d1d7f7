package db

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds connection attempts. With the defaults a store that never
// answers is tried 5 times, waiting 1s, 2s, 4s and 8s in between.
type RetryPolicy struct {
	// MaxAttempts counts the first attempt too.
	MaxAttempts int
	// BaseDelay is the wait after the first failure; each later wait doubles.
	BaseDelay time.Duration
	// NewBackoff replaces the exponential schedule. It is called once per Connect
	// because backoffs are stateful. Tests use it to skip real sleeping.
	NewBackoff func() retry.Backoff
}

// DefaultRetryPolicy returns 5 attempts starting from a one second delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second}
}

// Budget is the worst case time to exhaust the policy: every attempt hits
// attemptTimeout and every nominal wait is slept in full.
func (p RetryPolicy) Budget(attemptTimeout time.Duration) time.Duration {
	attempts := max(p.MaxAttempts, 1)
	total := time.Duration(attempts) * attemptTimeout
	if p.BaseDelay <= 0 {
		return total
	}
	b := RetryPolicy{MaxAttempts: attempts, BaseDelay: p.BaseDelay}.Backoff()
	for {
		wait, stop := b.Next()
		if stop {
			return total
		}
		total += wait
	}
}

// Backoff returns a fresh delay schedule capped at MaxAttempts-1 retries.
func (p RetryPolicy) Backoff() retry.Backoff {
	var b retry.Backoff
	if p.NewBackoff != nil {
		b = p.NewBackoff()
	} else {
		b = retry.NewExponential(p.BaseDelay)
	}
	retries := p.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return retry.WithMaxRetries(uint64(retries), b)
}
