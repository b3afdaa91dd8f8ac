// Package migration applies the versioned identity schema with golang-migrate.
// The SQL files are embedded and written to run unchanged on postgres and
// sqlite.
package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/kbukum/authgate/database"
)

//go:embed sql/*.sql
var files embed.FS

const sourcePath = "sql"

// Up applies every pending migration. No pending migrations is not an error.
func Up(ctx context.Context, db *database.DB) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back every applied migration.
func Down(ctx context.Context, db *database.DB) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Version returns the current schema version and dirty flag. A database with
// no migrations applied reports version 0.
func Version(db *database.DB) (uint, bool, error) {
	m, err := newMigrator(db)
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func driverFor(name string, sqlDB *sql.DB) (migratedb.Driver, error) {
	switch name {
	case database.DriverPostgres:
		return migratepg.WithInstance(sqlDB, &migratepg.Config{})
	case database.DriverSQLite:
		return migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
	default:
		return nil, fmt.Errorf("no migration driver for %q", name)
	}
}

// newMigrator builds a migrator over the shared pool. Callers must not Close
// it; that would close the pool.
func newMigrator(db *database.DB) (*migrate.Migrate, error) {
	sqlDB, err := db.GormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	driver, err := driverFor(db.Driver(), sqlDB)
	if err != nil {
		return nil, fmt.Errorf("create database driver: %w", err)
	}

	source, err := iofs.New(files, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, db.Driver(), driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}
