// Package retry provides bounded retries with exponential backoff for the
// banking API calls.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// PermanentError marks an error that must not be retried (client-side
// rejections such as validation failures).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so that Do fails immediately instead of retrying.
func Permanent(err error) error {
	return &PermanentError{Err: err}
}

// DelayedError is a retryable error carrying a server-requested wait, e.g.
// from a Retry-After header. Do honours the hint instead of its own backoff.
type DelayedError struct {
	Err   error
	After time.Duration
}

func (e *DelayedError) Error() string { return e.Err.Error() }
func (e *DelayedError) Unwrap() error { return e.Err }

// Do calls fn up to maxAttempts times. It returns early when fn succeeds,
// when fn returns a *PermanentError, or when ctx is cancelled during
// backoff. The delay doubles after every failed attempt, with up to 25%
// jitter subtracted so the sequence stays strictly increasing.
func Do(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var err error
	delay := baseDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		var pe *PermanentError
		if errors.As(err, &pe) {
			return pe.Err
		}

		if attempt == maxAttempts {
			break
		}

		sleep := delay - time.Duration(rand.Int63n(int64(delay/4)+1))
		var de *DelayedError
		if errors.As(err, &de) && de.After > 0 {
			sleep = de.After
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}

		delay *= 2
	}

	return err
}
