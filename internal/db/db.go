package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/expensely/ledger/config"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	defaultPingTimeout  = 5 * time.Second
	defaultConnMaxIdle  = 2 * time.Minute
	defaultConnMaxLife  = 30 * time.Minute
	defaultMaxIdleConns = 5
	defaultMaxOpenConns = 25
	sqliteBusyTimeoutMS = 5000
)

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	dialect, err := DialectFor(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName(), DSN(cfg))
	if err != nil {
		return nil, err
	}

	if dialect == SQLite {
		// SQLite allows one writer; a single connection serializes
		// transactions instead of surfacing SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetConnMaxIdleTime(defaultConnMaxIdle)
		db.SetConnMaxLifetime(defaultConnMaxLife)
		db.SetMaxIdleConns(defaultMaxIdleConns)
		db.SetMaxOpenConns(defaultMaxOpenConns)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// DSN returns the driver-specific connection string for cfg.
func DSN(cfg config.Config) string {
	if cfg.Database.Driver == config.DriverSQLite {
		return sqliteDSN(cfg.Database.Path)
	}
	return postgresURL(cfg)
}

// MigrationURL returns the URL golang-migrate uses to reach the database.
func MigrationURL(cfg config.Config) string {
	if cfg.Database.Driver == config.DriverSQLite {
		return "sqlite://" + sqliteDSN(cfg.Database.Path)
	}
	return postgresURL(cfg)
}

func sqliteDSN(path string) string {
	return fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", path, sqliteBusyTimeoutMS)
}

func postgresURL(cfg config.Config) string {
	sslmode := "disable"
	if cfg.Database.UseSSL {
		sslmode = "require"
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port),
		User:   url.UserPassword(cfg.Database.User, cfg.Database.Password),
		Path:   cfg.Database.DBName,
	}

	q := u.Query()
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()

	return u.String()
}
