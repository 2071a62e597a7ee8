// Package retry provides the bounded retry-with-backoff helper wrapping every
// pipeline step. Delays grow exponentially (initial << attempt); exhausting
// the attempt budget returns the last error. Errors marked Permanent (input
// validation) are never retried.
package retry

import (
	"context"
	"errors"
	"time"
)

// Config tunes the retry loop.
type Config struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt; each subsequent
	// wait doubles.
	InitialDelay time.Duration

	// Sleep is injectable for tests. Defaults to a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultConfig retries three times starting at one second.
var DefaultConfig = Config{MaxAttempts: 3, InitialDelay: time.Second}

// permanentError wraps an error that must not be retried.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as non-retryable: Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do invokes fn up to cfg.MaxAttempts times, waiting
// cfg.InitialDelay * 2^attempt between failures. A Permanent error, a
// cancelled context or an exhausted budget ends the loop; the last error is
// returned unwrapped from its Permanent marker's perspective (callers can
// still errors.As into the cause).
func Do[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultConfig.InitialDelay
	}
	sleepFn := cfg.Sleep
	if sleepFn == nil {
		sleepFn = sleep
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if IsPermanent(err) {
			return zero, err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}
		delay := cfg.InitialDelay << attempt
		if err := sleepFn(ctx, delay); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}
