package logging

import (
	"context"
)

type contextKey string

const (
	TraceIDKey     contextKey = "trace_id"
	ChannelIDKey   contextKey = "channel_id"
	MessageTSKey   contextKey = "message_ts"
	ServiceNameKey contextKey = "service_name"
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func WithChannelID(ctx context.Context, channelID string) context.Context {
	return context.WithValue(ctx, ChannelIDKey, channelID)
}

func WithMessageTS(ctx context.Context, ts string) context.Context {
	return context.WithValue(ctx, MessageTSKey, ts)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, ServiceNameKey, serviceName)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

func GetTraceID(ctx context.Context) string     { return stringValue(ctx, TraceIDKey) }
func GetChannelID(ctx context.Context) string   { return stringValue(ctx, ChannelIDKey) }
func GetMessageTS(ctx context.Context) string   { return stringValue(ctx, MessageTSKey) }
func GetServiceName(ctx context.Context) string { return stringValue(ctx, ServiceNameKey) }

// GetLogFields returns the context values as alternating key/value pairs
// suitable for the sugared logger.
func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 8)

	for _, key := range []contextKey{TraceIDKey, ChannelIDKey, MessageTSKey, ServiceNameKey} {
		if v := stringValue(ctx, key); v != "" {
			fields = append(fields, string(key), v)
		}
	}

	return fields
}
