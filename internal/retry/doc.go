/*
Package retry runs an operation under an explicit retry policy.

# Purpose

Several pipeline sources are eventually consistent: a photo that was just
captured or synced may not be in the asset catalog yet. Instead of nested
callback chains, a caller describes how often and how patiently to retry as
a Policy value and hands the operation to Do.

# Usage

	policy := retry.Policy{
	    MaxAttempts: 5,
	    Backoff:     retry.LinearWithin(5, 200*time.Millisecond, time.Second),
	    Retryable:   func(err error) bool { return errors.Is(err, geo.ErrNotFound) },
	}
	err := retry.Do(ctx, "asset_lookup", policy, func(ctx context.Context, attempt int) error {
	    return lookup(ctx)
	})

Only errors accepted by Retryable are retried. Any other error, or a nil
error, ends the loop immediately. Delays are never slept after the last
attempt.

# Testing

Sleeping goes through the Sleeper interface. Tests install a fake that
records requested delays and returns immediately, so timing properties can
be asserted without wall-clock waits.
*/
package retry
