package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed session store.
type PgStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool, ttl time.Duration) *PgStore {
	return &PgStore{pool: pool, ttl: ttl}
}

// EnsureTable creates the sessions table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			data       JSONB NOT NULL DEFAULT '[]',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at)`)
	return err
}

// Load returns the session data if it was saved within the TTL.
func (s *PgStore) Load(ctx context.Context, id string) ([]byte, error) {
	cutoff := time.Now().Add(-s.ttl)
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM sessions WHERE id = $1 AND updated_at > $2`, id, cutoff).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return data, nil
}

// Save upserts the session row.
func (s *PgStore) Save(ctx context.Context, id string, data []byte) error {
	now := time.Now().Truncate(time.Microsecond)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, data, updated_at) VALUES ($1, $2::jsonb, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		id, string(data), now)
	if err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

// Delete removes the session row.
func (s *PgStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// GC deletes sessions idle for longer than the TTL.
func (s *PgStore) GC(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE updated_at <= $1`, time.Now().Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("gc sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
