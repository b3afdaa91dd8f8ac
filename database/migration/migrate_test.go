package migration

import (
	"context"
	"testing"

	"github.com/kbukum/authgate/database/testutil"
)

func TestUpDown(t *testing.T) {
	db := testutil.OpenSQLite(t)
	ctx := context.Background()

	if err := Up(ctx, db); err != nil {
		t.Fatalf("Up() = %v", err)
	}
	for _, table := range []string{"users", "roles", "user_roles"} {
		if !db.GormDB.Migrator().HasTable(table) {
			t.Errorf("expected table %s", table)
		}
	}

	v, dirty, err := Version(db)
	if err != nil || v != 1 || dirty {
		t.Fatalf("Version() = %d, %v, %v", v, dirty, err)
	}

	// Up again is a no-op.
	if err := Up(ctx, db); err != nil {
		t.Fatalf("second Up() = %v", err)
	}

	if err := Down(ctx, db); err != nil {
		t.Fatalf("Down() = %v", err)
	}
	if db.GormDB.Migrator().HasTable("users") {
		t.Error("expected users table to be dropped")
	}
}

func TestUp_UniqueNormalizedUsername(t *testing.T) {
	db := testutil.OpenSQLite(t)
	if err := Up(context.Background(), db); err != nil {
		t.Fatal(err)
	}

	insert := `INSERT INTO users (id, username, normalized_username, password_hash, security_stamp, created_at, updated_at)
		VALUES (?, ?, ?, 'h', 's', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	if err := db.GormDB.Exec(insert, "1", "alice", "ALICE").Error; err != nil {
		t.Fatal(err)
	}
	if err := db.GormDB.Exec(insert, "2", "Alice", "ALICE").Error; err == nil {
		t.Error("expected unique violation on normalized_username")
	}
}

func TestUp_CanceledContext(t *testing.T) {
	db := testutil.OpenSQLite(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Up(ctx, db); err == nil {
		t.Error("expected error")
	}
}
