package utils

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry policy for transient storage failures during webhook reconciliation:
// bounded exponential backoff, base 200ms doubling per attempt, 4 attempts total.
const (
	ReconcileMaxAttempts  = 4
	ReconcileInitialDelay = 200 * time.Millisecond
)

// NewReconcileBackOff returns the bounded exponential policy used when writing
// payment/order rows from a webhook. Jitter is disabled so retry timing stays
// deterministic in tests.
func NewReconcileBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = ReconcileInitialDelay
	b.Multiplier = 2.0
	b.RandomizationFactor = 0
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0 // bounded by attempt count, not wall clock
	return backoff.WithMaxRetries(b, ReconcileMaxAttempts-1)
}

// RetryBounded runs op under the reconcile policy. Permanent errors
// (wrapped with backoff.Permanent) abort immediately.
func RetryBounded(op func() error) error {
	return backoff.Retry(op, NewReconcileBackOff())
}
