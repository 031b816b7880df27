package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskpad/internal/db"
)

// These tests need a live database and are skipped unless a DSN is provided.

func TestPgStore(t *testing.T) {
	dsn := os.Getenv("TASKPAD_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TASKPAD_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	exerciseStore(t, NewPgStore(pool, time.Hour))
}

func TestMySQLStore(t *testing.T) {
	dsn := os.Getenv("TASKPAD_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TASKPAD_TEST_MYSQL_DSN not set")
	}
	conn, err := db.OpenMySQL(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	exerciseStore(t, NewMySQLStore(conn, time.Hour))
}
