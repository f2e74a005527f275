package circuitbreaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"alertbridge/pkg/metrics"
)

type Config struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
	// IsSuccessful decides whether an error counts against the breaker.
	// Nil counts every error.
	IsSuccessful  func(err error) bool
	OnStateChange func(name string, from, to gobreaker.State)
}

func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.6,
		MinRequests:  5,
	}
}

type Wrapper struct {
	cb *gobreaker.CircuitBreaker
}

func NewWrapper(cfg Config) *Wrapper {
	settings := gobreaker.Settings{
		Name:         cfg.Name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		IsSuccessful: cfg.IsSuccessful,
	}

	if cfg.MinRequests > 0 && cfg.FailureRatio > 0 {
		minRequests, ratio := cfg.MinRequests, cfg.FailureRatio
		settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
		}
	}

	settings.OnStateChange = func(name string, from, to gobreaker.State) {
		updateStateMetric(name, to)
		if cfg.OnStateChange != nil {
			cfg.OnStateChange(name, from, to)
		}
	}

	cb := gobreaker.NewCircuitBreaker(settings)
	updateStateMetric(cfg.Name, cb.State())

	return &Wrapper{cb: cb}
}

// ExecuteWithContext runs fn through the breaker. A cancelled context is
// returned before fn runs and does not count as a failure.
func (w *Wrapper) ExecuteWithContext(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state := w.cb.State().String()
	result, err := w.cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})

	metrics.CircuitBreakerRequests.WithLabelValues(w.cb.Name(), state).Inc()
	if err != nil {
		metrics.CircuitBreakerFailures.WithLabelValues(w.cb.Name()).Inc()
	}

	return result, err
}

// Execute is the typed form of ExecuteWithContext.
func Execute[T any](ctx context.Context, w *Wrapper, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	result, err := w.ExecuteWithContext(ctx, func(ctx context.Context) (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		if v, ok := result.(T); ok {
			return v, err
		}
		return zero, err
	}
	v, _ := result.(T)
	return v, nil
}

func (w *Wrapper) State() gobreaker.State {
	return w.cb.State()
}

func (w *Wrapper) Name() string {
	return w.cb.Name()
}

func (w *Wrapper) IsOpen() bool {
	return w.cb.State() == gobreaker.StateOpen
}

func updateStateMetric(name string, state gobreaker.State) {
	var stateValue float64
	switch state {
	case gobreaker.StateClosed:
		stateValue = 0
	case gobreaker.StateHalfOpen:
		stateValue = 1
	case gobreaker.StateOpen:
		stateValue = 2
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue)
}
