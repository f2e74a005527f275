// Package cursor persists the last processed message timestamp per channel.
package cursor

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"alertbridge/internal/config"
	"alertbridge/internal/constants"
	"alertbridge/internal/logger"
	apperrors "alertbridge/pkg/errors"
	"alertbridge/pkg/metrics"
)

// Cursor is the persisted position for one channel. LastTS is a Slack
// timestamp kept in its string form.
type Cursor struct {
	LastTS string `json:"lastTs"`
}

// State maps channel id to cursor.
type State map[string]Cursor

// LastTS returns the cursor for channelID, or "" when none is stored.
func (s State) LastTS(channelID string) string {
	if s == nil {
		return ""
	}
	return s[channelID].LastTS
}

// Store loads and saves cursor state. Load returns an error wrapping
// ErrTransientRead when stored state exists but cannot be read; callers
// treat that as an empty state.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
	Name() string
}

// Deps carries the connections a backend may need. Unused fields may be nil.
type Deps struct {
	Redis    *redis.Client
	Postgres *sql.DB
}

func NewStore(cfg config.CursorConfig, deps Deps, log logger.Logger) (Store, error) {
	switch cfg.Backend {
	case constants.CursorBackendFile, "":
		return NewFileStore(cfg.File, log), nil
	case constants.CursorBackendRedis:
		if deps.Redis == nil {
			return nil, apperrors.ErrConfiguration.WithMessage("redis cursor backend requires a redis connection")
		}
		return NewRedisStore(deps.Redis, cfg.RedisKey, log), nil
	case constants.CursorBackendPostgres:
		if deps.Postgres == nil {
			return nil, apperrors.ErrConfiguration.WithMessage("postgres cursor backend requires a database connection")
		}
		return NewPostgresStore(deps.Postgres, log), nil
	default:
		return nil, apperrors.ErrConfiguration.WithMessage(fmt.Sprintf("unknown cursor backend: %s", cfg.Backend))
	}
}

func transientRead(backend string, err error) error {
	return apperrors.ErrTransientRead.
		WithMessage("failed to read cursor state").
		WithCause(err).
		WithDetail("backend", backend)
}

func recordOperation(backend, operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.IncCursorOperation(backend, operation, status)
}

func recordPositions(state State) {
	for channel, c := range state {
		if ts, err := strconv.ParseFloat(c.LastTS, 64); err == nil {
			metrics.SetCursorPosition(channel, ts)
		}
	}
}
