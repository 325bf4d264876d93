// Package retry implements the retry policy shared by the transfer and
// search layers: a linear backoff whose delay grows with the attempt
// number, and a wrapper that re-runs an operation until the policy is
// exhausted or the error is not worth retrying.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy decides whether a failed attempt is retried and how long to wait
// before the next one. The zero value never retries.
type Policy struct {
	// MaxRetries is the number of re-tries after the initial attempt.
	// Zero means the operation runs exactly once.
	MaxRetries int

	// Backoff is the linear backoff factor. The delay before retry n is
	// Backoff * n, so later attempts wait longer. No jitter, no cap.
	Backoff time.Duration
}

// Retry reports whether retry number attempt (1-based) should proceed.
func (p Policy) Retry(attempt int) bool {
	return attempt >= 1 && attempt <= p.MaxRetries
}

// Delay returns how long to wait before retry number attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	return time.Duration(attempt) * p.Backoff
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so Do will not retry it. Local I/O failures are the
// main customer: re-running a download will not fix a permissions or disk
// space problem.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retryable classifies an error. Errors marked Permanent are final. Errors
// exposing Retryable() decide for themselves (HTTP status errors). Anything
// else, network-level failures included, is treated as transient.
func Retryable(err error) bool {
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// Do runs op, consulting the policy between failed attempts. The last
// observed error is returned unchanged once the policy gives up. The sleep
// between attempts honors ctx cancellation.
func Do(ctx context.Context, p Policy, op func(context.Context) error) error {
	err := op(ctx)
	for attempt := 1; err != nil && Retryable(err); attempt++ {
		if !p.Retry(attempt) {
			break
		}
		if sleepErr := Sleep(ctx, p.Delay(attempt)); sleepErr != nil {
			return sleepErr
		}
		err = op(ctx)
	}
	return err
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
