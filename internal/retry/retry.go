package retry

import (
	"context"
	"time"

	"snapspot/internal/logging"
)

// Sleeper waits between attempts.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f(ctx, d).
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// timerSleeper sleeps on a real timer and wakes early on cancellation.
type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RealSleeper returns the wall-clock Sleeper.
func RealSleeper() Sleeper {
	return timerSleeper{}
}

// Observer records retry metrics. Implementations are provided by the
// metrics package to break the import cycle between retry and metrics.
type Observer interface {
	ObserveRetryAttempt(op string)
	ObserveRetrySuccess(op string)
	ObserveRetryFailure(op string)
	ObserveRetryDuration(op string, durationSeconds float64)
}

// Policy configures retry behavior for one operation.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int
	// Backoff returns the delay to wait after the given failed attempt (1-based).
	Backoff func(attempt int) time.Duration
	// Retryable decides whether an error is worth another attempt.
	// A nil Retryable retries every error.
	Retryable func(err error) bool
	// Sleeper overrides the wall-clock sleeper.
	Sleeper Sleeper
	// Observer receives metrics; nil skips recording.
	Observer Observer
}

// Linear grows the delay in proportion to the attempt number, capped at max.
// Once the cap is reached the delay stays flat; use LinearWithin when every
// pause must be longer than the one before.
func Linear(step, max time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := time.Duration(attempt) * step
		if max > 0 && d > max {
			d = max
		}
		return d
	}
}

// LinearWithin is Linear with the step shrunk, if needed, so that the last
// pause of a maxAttempts policy still fits under max. Delays then increase
// on every attempt. A non-positive max leaves the step as is.
func LinearWithin(maxAttempts int, step, max time.Duration) func(int) time.Duration {
	if pauses := maxAttempts - 1; max > 0 && pauses > 0 && step*time.Duration(pauses) > max {
		step = max / time.Duration(pauses)
		if step <= 0 {
			step = time.Nanosecond
		}
	}
	return Linear(step, max)
}

// Exponential doubles the delay each attempt starting at initial, capped at max.
func Exponential(initial, max time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := initial
		for i := 1; i < attempt; i++ {
			d *= 2
			if max > 0 && d >= max {
				return max
			}
		}
		return d
	}
}

// DefaultPolicy returns the asset lookup defaults: five attempts with
// 200ms, 400ms, 600ms and 800ms pauses, two seconds in total.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		Backoff:     LinearWithin(5, 200*time.Millisecond, time.Second),
	}
}

func (p Policy) sleeper() Sleeper {
	if p.Sleeper != nil {
		return p.Sleeper
	}
	return timerSleeper{}
}

func (p Policy) retryable(err error) bool {
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

// Do calls fn until it succeeds, returns a non-retryable error, the policy
// runs out of attempts, or ctx is done. It returns the last error from fn,
// or ctx.Err() if the wait between attempts was interrupted.
func Do(ctx context.Context, op string, p Policy, fn func(ctx context.Context, attempt int) error) error {
	start := time.Now()
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			if attempt > 1 {
				logging.Debug("%s succeeded on attempt %d", op, attempt)
				if p.Observer != nil {
					p.Observer.ObserveRetrySuccess(op)
				}
			}
			p.observeDuration(op, start)
			return nil
		}

		lastErr = err

		if !p.retryable(err) {
			p.observeDuration(op, start)
			return err
		}

		// Don't sleep after the last attempt
		if attempt < maxAttempts {
			var delay time.Duration
			if p.Backoff != nil {
				delay = p.Backoff(attempt)
			}
			if p.Observer != nil {
				p.Observer.ObserveRetryAttempt(op)
			}
			logging.Debug("%s attempt %d/%d failed: %v, retrying in %v",
				op, attempt, maxAttempts, err, delay)

			if sleepErr := p.sleeper().Sleep(ctx, delay); sleepErr != nil {
				p.observeDuration(op, start)
				return sleepErr
			}
		}
	}

	logging.Debug("%s gave up after %d attempts: %v", op, maxAttempts, lastErr)
	if p.Observer != nil {
		p.Observer.ObserveRetryFailure(op)
	}
	p.observeDuration(op, start)
	return lastErr
}

func (p Policy) observeDuration(op string, start time.Time) {
	if p.Observer != nil {
		p.Observer.ObserveRetryDuration(op, time.Since(start).Seconds())
	}
}
