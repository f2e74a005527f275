package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"alertbridge/pkg/logging"
)

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New("verbose", "json", "alertbridge")
	require.Error(t, err)

	l, err := New("debug", "json", "alertbridge")
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestCtxVariantsAddContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &SugaredLogger{SugaredLogger: zap.New(core).Sugar(), serviceName: "alertbridge"}

	ctx := logging.WithChannelID(context.Background(), "C1")
	l.With("cycle", 3).InfowCtx(ctx, "processed", "count", 2)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "C1", fields["channel_id"])
	assert.Equal(t, "alertbridge", fields["service_name"])
	assert.EqualValues(t, 3, fields["cycle"])
	assert.EqualValues(t, 2, fields["count"])
}
