// Package dbtest provisions migrated SQLite databases for tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/expensely/ledger/config"
	"github.com/expensely/ledger/internal/db"
	"github.com/stretchr/testify/require"
)

// Config returns a SQLite configuration rooted in a per-test directory.
func Config(t testing.TB) config.Config {
	t.Helper()
	return config.Config{
		Database: config.DatabaseConfig{
			Driver: config.DriverSQLite,
			Path:   filepath.Join(t.TempDir(), "ledger.db"),
		},
		BcryptCost: 4,
		MQ:         config.MQConfig{Backend: config.BackendNone},
		Storage:    config.StorageConfig{Backend: config.BackendNone},
	}
}

// NewSQLite returns an open, fully migrated database closed at test end.
func NewSQLite(t testing.TB) *sql.DB {
	t.Helper()
	cfg := Config(t)
	require.NoError(t, db.MigrateUp(cfg))

	conn, err := db.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SeedUser inserts a user row directly and returns its id.
func SeedUser(t testing.TB, conn *sql.DB, email string) int64 {
	t.Helper()
	var id int64
	err := conn.QueryRow(
		`INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?) RETURNING id`,
		"Test User", email, "x",
	).Scan(&id)
	require.NoError(t, err)
	return id
}
