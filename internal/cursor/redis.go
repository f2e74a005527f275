package cursor

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"alertbridge/internal/constants"
	"alertbridge/internal/logger"
)

// RedisStore keeps state in a hash: field = channel id, value = last ts.
type RedisStore struct {
	client *redis.Client
	key    string
	logger logger.Logger
}

func NewRedisStore(client *redis.Client, key string, log logger.Logger) *RedisStore {
	if key == "" {
		key = constants.DefaultCursorRedisKey
	}
	return &RedisStore{client: client, key: key, logger: log}
}

func (s *RedisStore) Name() string {
	return constants.CursorBackendRedis
}

func (s *RedisStore) Load(ctx context.Context) (State, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	recordOperation(s.Name(), "load", err)
	if err != nil {
		return State{}, transientRead(s.Name(), err)
	}

	state := make(State, len(values))
	for channel, ts := range values {
		state[channel] = Cursor{LastTS: ts}
	}
	return state, nil
}

func (s *RedisStore) Save(ctx context.Context, state State) error {
	if len(state) == 0 {
		return nil
	}

	fields := make(map[string]interface{}, len(state))
	for channel, c := range state {
		fields[channel] = c.LastTS
	}

	err := s.client.HSet(ctx, s.key, fields).Err()
	recordOperation(s.Name(), "save", err)
	if err != nil {
		return fmt.Errorf("failed to save cursor state to redis: %w", err)
	}
	recordPositions(state)
	return nil
}
