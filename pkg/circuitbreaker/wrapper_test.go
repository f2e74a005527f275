package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")
var errRejected = errors.New("rejected")

func TestWrapper_OpensAfterFailures(t *testing.T) {
	w := NewWrapper(Config{
		Name:         "test-open",
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  2,
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := Execute(ctx, w, func(context.Context) (string, error) { return "", errBoom })
		require.ErrorIs(t, err, errBoom)
	}

	assert.True(t, w.IsOpen())
	_, err := Execute(ctx, w, func(context.Context) (string, error) { return "ok", nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestWrapper_IsSuccessfulIgnoresRejections(t *testing.T) {
	w := NewWrapper(Config{
		Name:         "test-ignore",
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  1,
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, errRejected) },
	})

	for i := 0; i < 3; i++ {
		_, err := Execute(context.Background(), w, func(context.Context) (int, error) { return 0, errRejected })
		require.ErrorIs(t, err, errRejected)
	}
	assert.Equal(t, gobreaker.StateClosed, w.State())
}

func TestExecute_CancelledContext(t *testing.T) {
	w := NewWrapper(DefaultConfig("test-cancel"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := Execute(ctx, w, func(context.Context) (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
