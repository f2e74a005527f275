package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertbridge/internal/config"
	"alertbridge/internal/logger"
	"alertbridge/internal/metadata"
	apperrors "alertbridge/pkg/errors"
	"alertbridge/pkg/health"
)

type fakeMeta struct {
	err   error
	loads int
}

func (f *fakeMeta) EnsureLoaded(context.Context) error {
	f.loads++
	return f.err
}

func (f *fakeMeta) Snapshot() metadata.Snapshot {
	return metadata.Snapshot{
		Priorities:      []metadata.Priority{{ID: "2", Name: "High"}},
		CategoryOptions: []metadata.CategoryOption{{ID: "10", Value: "Plantão - API / Transportadoras"}},
	}
}

type fakeLast struct {
	raw json.RawMessage
}

func (f fakeLast) LastMessage() (json.RawMessage, bool) {
	return f.raw, f.raw != nil
}

func newTestRouter(meta Metadata, last LastMessage, registry *health.CheckerRegistry, opts Options) http.Handler {
	return NewRouter(NewHandler(meta, last, registry, logger.NopLogger()), opts)
}

func serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestLiveness(t *testing.T) {
	router := newTestRouter(&fakeMeta{}, fakeLast{}, nil, Options{})

	for _, path := range []string{"/", "/health"} {
		w := serve(t, router, http.MethodGet, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "ok", w.Body.String(), path)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	}
}

func TestHealthz(t *testing.T) {
	registry := health.NewCheckerRegistry()
	registry.Register(health.NewFuncChecker("poller", func(context.Context) error {
		return &health.Degraded{Err: apperrors.ErrRemote}
	}))
	router := newTestRouter(&fakeMeta{}, fakeLast{}, registry, Options{})

	w := serve(t, router, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)

	var body health.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, health.StatusDegraded, body.Status)
	assert.Equal(t, health.StatusDegraded, body.Checks["poller"].Status)
}

func TestGetMeta(t *testing.T) {
	meta := &fakeMeta{}
	router := newTestRouter(meta, fakeLast{}, nil, Options{})

	w := serve(t, router, http.MethodGet, "/meta")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"priorities":[{"id":"2","name":"High"}],
		"assuntoOptions":[{"id":"10","value":"Plantão - API / Transportadoras"}]
	}`, w.Body.String())
	assert.Equal(t, 1, meta.loads)

	w = serve(t, router, http.MethodPost, "/meta/refresh")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1, meta.loads)
}

func TestGetMetaError(t *testing.T) {
	meta := &fakeMeta{err: apperrors.ErrRemote.WithMessage("jira unavailable")}
	router := newTestRouter(meta, fakeLast{}, nil, Options{})

	w := serve(t, router, http.MethodGet, "/meta")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "REMOTE_ERROR")
}

func TestGetMetaRateLimited(t *testing.T) {
	router := newTestRouter(&fakeMeta{}, fakeLast{}, nil, Options{
		RateLimit: config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1},
	})

	assert.Equal(t, http.StatusOK, serve(t, router, http.MethodGet, "/meta").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(t, router, http.MethodGet, "/meta").Code)
	assert.Equal(t, http.StatusOK, serve(t, router, http.MethodGet, "/health").Code, "liveness is not limited")
}

func TestGetLastMessage(t *testing.T) {
	router := newTestRouter(&fakeMeta{}, fakeLast{}, nil, Options{})
	w := serve(t, router, http.MethodGet, "/debug/last")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no message processed yet")

	raw := json.RawMessage(`{"ts":"1700000001.000100","text":"Triggered: CPU high"}`)
	router = newTestRouter(&fakeMeta{}, fakeLast{raw: raw}, nil, Options{})
	w = serve(t, router, http.MethodGet, "/debug/last")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, string(raw), w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(&fakeMeta{}, fakeLast{}, nil, Options{})
	w := serve(t, router, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
}
