package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// MySQLStore is a MySQL-backed session store. The *sql.DB must use the
// github.com/go-sql-driver/mysql driver (see internal/db.OpenMySQL).
type MySQLStore struct {
	db  *sql.DB
	ttl time.Duration
}

// NewMySQLStore creates a MySQLStore.
func NewMySQLStore(db *sql.DB, ttl time.Duration) *MySQLStore {
	return &MySQLStore{db: db, ttl: ttl}
}

// EnsureTable creates the sessions table if it doesn't exist.
func (s *MySQLStore) EnsureTable(ctx context.Context) error {
	createSessions := `CREATE TABLE IF NOT EXISTS sessions (
    id VARCHAR(36) PRIMARY KEY,
    data MEDIUMBLOB NOT NULL,
    updated_at DATETIME(6) NOT NULL,
    INDEX idx_sessions_updated (updated_at)
)`
	if _, err := s.db.ExecContext(ctx, createSessions); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

func (s *MySQLStore) Load(ctx context.Context, id string) ([]byte, error) {
	cutoff := time.Now().UTC().Add(-s.ttl)
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id = ? AND updated_at > ?`, id, cutoff).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return data, nil
}

func (s *MySQLStore) Save(ctx context.Context, id string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO sessions (id, data, updated_at) VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE data = VALUES(data), updated_at = VALUES(updated_at)`,
		id, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

func (s *MySQLStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (s *MySQLStore) GC(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at <= ?`, time.Now().UTC().Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("gc sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("gc sessions: %w", err)
	}
	return int(n), nil
}
