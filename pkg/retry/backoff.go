package retry

import (
	"context"

	"github.com/cenkalti/backoff/v4"
)

// backOff builds the exponential schedule for p, bounded by MaxAttempts
// and cancelled with ctx. A zero MaxElapsedTime leaves elapsed time unbounded.
func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.MaxInterval = p.MaxInterval
	exp.Multiplier = p.Multiplier
	exp.MaxElapsedTime = p.MaxElapsedTime

	var b backoff.BackOff = backoff.WithContext(exp, ctx)
	return backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
}
