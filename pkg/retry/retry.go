package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type RetryableError interface {
	error
	IsRetryable() bool
}

type FatalError interface {
	error
	IsFatal() bool
}

type retryableError struct {
	err error
}

func (e *retryableError) Error() string     { return e.err.Error() }
func (e *retryableError) IsRetryable() bool { return true }
func (e *retryableError) Unwrap() error     { return e.err }

func NewRetryableError(err error) RetryableError {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) IsFatal() bool { return true }
func (e *fatalError) Unwrap() error { return e.err }

func NewFatalError(err error) FatalError {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxElapsedTime  time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
		MaxElapsedTime:  30 * time.Second,
	}
}

// OnRetry is called before each new attempt with the attempt that just
// failed and the delay until the next one.
type OnRetry func(attempt int, err error, nextDelay time.Duration)

func Retry(ctx context.Context, policy Policy, fn func() error) error {
	return RetryWithCallback(ctx, policy, fn, nil)
}

// RetryWithCallback runs fn until it succeeds, returns a fatal error, or the
// policy is exhausted. Errors that report IsFatal() stop immediately; an
// error reporting IsRetryable() == false is treated the same way.
func RetryWithCallback(ctx context.Context, policy Policy, fn func() error, onRetry OnRetry) error {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 3
	}

	attempt := 0
	operation := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}

		var fatalErr FatalError
		if errors.As(err, &fatalErr) && fatalErr.IsFatal() {
			return backoff.Permanent(err)
		}

		var retryableErr RetryableError
		if errors.As(err, &retryableErr) && !retryableErr.IsRetryable() {
			return backoff.Permanent(err)
		}

		return err
	}

	// notify only runs when another attempt is scheduled, with the
	// randomized delay the backoff actually chose.
	notify := func(err error, next time.Duration) {
		if onRetry != nil {
			onRetry(attempt, err, next)
		}
	}

	return backoff.RetryNotify(operation, policy.backOff(ctx), notify)
}
