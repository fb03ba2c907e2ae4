package db

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/expensely/ledger/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migrations returns the embedded migration files for the dialect.
func Migrations(d Dialect) (fs.FS, error) {
	return fs.Sub(migrationsFS, "migrations/"+d.DriverName())
}

// MigrateUp applies all pending migrations.
func MigrateUp(cfg config.Config) error {
	return runMigrations(cfg, func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown reverts the given number of migrations, or all of them when
// steps is zero.
func MigrateDown(cfg config.Config, steps int) error {
	return runMigrations(cfg, func(m *migrate.Migrate) error {
		if steps > 0 {
			return m.Steps(-steps)
		}
		return m.Down()
	})
}

func runMigrations(cfg config.Config, apply func(*migrate.Migrate) error) error {
	dialect, err := DialectFor(cfg.Database.Driver)
	if err != nil {
		return err
	}

	source, err := iofs.New(migrationsFS, "migrations/"+dialect.DriverName())
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	// migrate opens and closes its own connection.
	migrator, err := migrate.NewWithSourceInstance("iofs", source, MigrationURL(cfg))
	if err != nil {
		return fmt.Errorf("init migrator failed: %w", err)
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := apply(migrator); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migrate failed: %w", err)
	}
	return nil
}
