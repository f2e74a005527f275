package cursor

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"alertbridge/internal/constants"
	"alertbridge/internal/logger"
)

// PostgresStore keeps one row per channel. The table is created by
// pkg/migrations.
type PostgresStore struct {
	db     *sql.DB
	table  string
	logger logger.Logger
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		table:  pq.QuoteIdentifier(constants.CursorTable),
		logger: log,
	}
}

func (s *PostgresStore) Name() string {
	return constants.CursorBackendPostgres
}

func (s *PostgresStore) Load(ctx context.Context) (State, error) {
	state, err := s.load(ctx)
	recordOperation(s.Name(), "load", err)
	if err != nil {
		return State{}, transientRead(s.Name(), err)
	}
	return state, nil
}

func (s *PostgresStore) load(ctx context.Context) (State, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT channel_id, last_ts FROM %s", s.table))
	if err != nil {
		return nil, fmt.Errorf("failed to query cursors: %w", err)
	}
	defer rows.Close()

	state := State{}
	for rows.Next() {
		var channel, ts string
		if err := rows.Scan(&channel, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan cursor row: %w", err)
		}
		state[channel] = Cursor{LastTS: ts}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cursor rows: %w", err)
	}
	return state, nil
}

func (s *PostgresStore) Save(ctx context.Context, state State) error {
	err := s.save(ctx, state)
	recordOperation(s.Name(), "save", err)
	if err != nil {
		return err
	}
	recordPositions(state)
	return nil
}

func (s *PostgresStore) save(ctx context.Context, state State) error {
	if len(state) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`INSERT INTO %s (channel_id, last_ts, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (channel_id) DO UPDATE SET last_ts = EXCLUDED.last_ts, updated_at = NOW()`, s.table)

	for channel, c := range state {
		if _, err := tx.ExecContext(ctx, query, channel, c.LastTS); err != nil {
			return fmt.Errorf("failed to upsert cursor for %s: %w", channel, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cursor state: %w", err)
	}
	return nil
}
