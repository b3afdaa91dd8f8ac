// Package testutil opens throwaway databases for tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/kbukum/authgate/database"
	"github.com/kbukum/authgate/logger"
)

// SQLiteConfig returns a config for a private in-memory sqlite database.
func SQLiteConfig() database.Config {
	cfg := database.Config{Driver: database.DriverSQLite, DSN: ":memory:", MaxRetries: 1, LogLevel: "silent"}
	cfg.ApplyDefaults()
	return cfg
}

// OpenSQLite opens an in-memory database, auto-migrates models and closes the
// database when the test ends.
func OpenSQLite(t testing.TB, models ...interface{}) *database.DB {
	t.Helper()
	db, err := database.New(context.Background(), SQLiteConfig(), logger.NewNop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("auto-migrate: %v", err)
		}
	}
	return db
}

// CountRows returns the number of rows in a table.
func CountRows(db *gorm.DB, table string) (int64, error) {
	var count int64
	err := db.Raw(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count).Error
	return count, err
}

// AssertRowCount fails the test if the table doesn't have the expected row count.
func AssertRowCount(t testing.TB, db *gorm.DB, table string, expected int64) {
	t.Helper()
	count, err := CountRows(db, table)
	if err != nil {
		t.Fatalf("failed to count rows in %s: %v", table, err)
	}
	if count != expected {
		t.Errorf("table %s row count = %d, want %d", table, count, expected)
	}
}
