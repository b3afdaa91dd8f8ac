package credential

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/kbukum/authgate/auth/password"
	"github.com/kbukum/authgate/component"
	"github.com/kbukum/authgate/database/migration"
	"github.com/kbukum/authgate/database/testutil"
	apperrors "github.com/kbukum/authgate/errors"
	"github.com/kbukum/authgate/logger"
)

const strongPassword = "Secret123!"

func newStore(t *testing.T) *GormStore {
	t.Helper()
	db := testutil.OpenSQLite(t, Models()...)
	hasher := password.NewBcryptHasher(password.WithCost(bcrypt.MinCost))
	return NewGormStore(db, hasher, password.Policy{}, logger.NewNop())
}

func mustCreate(t *testing.T, s *GormStore, username string, roles ...string) *User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), username, strongPassword, roles)
	if err != nil {
		t.Fatalf("CreateUser(%q): %v", username, err)
	}
	return u
}

func TestCreateUser(t *testing.T) {
	s := newStore(t)
	u := mustCreate(t, s, "Alice", "user", "admin", "user")

	if len(u.ID) != 36 {
		t.Errorf("expected uuid id, got %q", u.ID)
	}
	if u.Username != "Alice" || u.NormalizedUsername != "ALICE" {
		t.Errorf("unexpected names %q / %q", u.Username, u.NormalizedUsername)
	}
	if u.PasswordHash == strongPassword || !strings.HasPrefix(u.PasswordHash, "$2") {
		t.Error("password must be stored as a bcrypt hash")
	}
	if u.SecurityStamp == "" {
		t.Error("expected security stamp")
	}
	if got := strings.Join(u.RoleNames(), ","); got != "admin,user" {
		t.Errorf("roles = %s, want admin,user", got)
	}
	testutil.AssertRowCount(t, s.db.GormDB, "roles", 2)
	testutil.AssertRowCount(t, s.db.GormDB, "user_roles", 2)
}

func TestCreateUser_CaseInsensitiveCollision(t *testing.T) {
	s := newStore(t)
	mustCreate(t, s, "alice")

	_, err := s.CreateUser(context.Background(), "ALICE", strongPassword, nil)
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	testutil.AssertRowCount(t, s.db.GormDB, "users", 1)
}

func TestCreateUser_ConcurrentSameName(t *testing.T) {
	s := newStore(t)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		ok    int
		taken int
	)
	for _, name := range []string{"bob", "BOB", "Bob", "bOb"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := s.CreateUser(context.Background(), name, strongPassword, nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrUsernameTaken):
				taken++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(name)
	}
	wg.Wait()

	if ok != 1 || taken != 3 {
		t.Errorf("expected 1 winner and 3 collisions, got %d/%d", ok, taken)
	}
}

func TestCreateUser_Rejects(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, name := range []string{"", "has space", "tab\tname", "ünïcode", strings.Repeat("a", MaxUsernameLength+1)} {
		if _, err := s.CreateUser(ctx, name, strongPassword, nil); !errors.Is(err, ErrInvalidUsername) {
			t.Errorf("username %q: expected ErrInvalidUsername, got %v", name, err)
		}
	}

	_, err := s.CreateUser(ctx, "weak", "password", nil)
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeWeakPassword {
		t.Fatalf("expected weak password error, got %v", err)
	}
	testutil.AssertRowCount(t, s.db.GormDB, "users", 0)
}

func TestFindByUsername(t *testing.T) {
	s := newStore(t)
	created := mustCreate(t, s, "Carol", "user")
	ctx := context.Background()

	for _, name := range []string{"Carol", "carol", "CAROL"} {
		u, err := s.FindByUsername(ctx, name)
		if err != nil {
			t.Fatalf("FindByUsername(%q): %v", name, err)
		}
		if u.ID != created.ID || !u.HasRole("user") {
			t.Errorf("unexpected user %+v", u)
		}
	}

	if _, err := s.FindByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.FindByUsername(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty name, got %v", err)
	}
	if _, err := s.FindByID(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound by id, got %v", err)
	}
}

func TestVerifyPassword(t *testing.T) {
	s := newStore(t)
	u := mustCreate(t, s, "dave")

	if !s.VerifyPassword(u, strongPassword) {
		t.Error("expected correct password to verify")
	}
	if s.VerifyPassword(u, "Secret123?") {
		t.Error("expected wrong password to fail")
	}
	if s.VerifyPassword(nil, strongPassword) {
		t.Error("nil user must never verify")
	}
}

func TestChangePassword(t *testing.T) {
	s := newStore(t)
	u := mustCreate(t, s, "erin")
	ctx := context.Background()

	updated, err := s.ChangePassword(ctx, u, "N3w-Secret!")
	if err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if updated.SecurityStamp == u.SecurityStamp {
		t.Error("expected a new security stamp")
	}
	if !s.VerifyPassword(updated, "N3w-Secret!") || s.VerifyPassword(updated, strongPassword) {
		t.Error("expected only the new password to verify")
	}

	// The original copy is now stale.
	if _, err := s.ChangePassword(ctx, u, "Other-S3cret!"); !errors.Is(err, ErrStampMismatch) {
		t.Errorf("expected ErrStampMismatch, got %v", err)
	}
}

func TestChangePassword_Errors(t *testing.T) {
	s := newStore(t)
	u := mustCreate(t, s, "frank")
	ctx := context.Background()

	if _, err := s.ChangePassword(ctx, u, "short"); err == nil {
		t.Error("expected policy error")
	}

	ghost := &User{SecurityStamp: "stamp"}
	ghost.ID = "00000000-0000-0000-0000-000000000000"
	if _, err := s.ChangePassword(ctx, ghost, "N3w-Secret!"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestChangePassword_ConcurrentSingleWinner(t *testing.T) {
	s := newStore(t)
	u := mustCreate(t, s, "grace")

	const writers = 5
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		mismatch int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stale := *u
			_, err := s.ChangePassword(context.Background(), &stale, "N3w-Secret!")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrStampMismatch):
				mismatch++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 || mismatch != writers-1 {
		t.Errorf("expected exactly one winner, got wins=%d mismatch=%d", wins, mismatch)
	}
}

func TestSetRoles(t *testing.T) {
	s := newStore(t)
	u := mustCreate(t, s, "heidi", "user")
	ctx := context.Background()

	updated, err := s.SetRoles(ctx, u, []string{"admin", " auditor ", "admin"})
	if err != nil {
		t.Fatalf("SetRoles: %v", err)
	}
	if got := strings.Join(updated.RoleNames(), ","); got != "admin,auditor" {
		t.Errorf("roles = %s", got)
	}
	if updated.SecurityStamp == u.SecurityStamp {
		t.Error("expected a new security stamp")
	}
	testutil.AssertRowCount(t, s.db.GormDB, "user_roles", 2)

	if _, err := s.SetRoles(ctx, u, []string{"user"}); !errors.Is(err, ErrStampMismatch) {
		t.Errorf("expected ErrStampMismatch on stale user, got %v", err)
	}

	cleared, err := s.SetRoles(ctx, updated, nil)
	if err != nil {
		t.Fatalf("clear roles: %v", err)
	}
	if len(cleared.RoleNames()) != 0 {
		t.Errorf("expected no roles, got %v", cleared.RoleNames())
	}
}

func TestReachable(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if !s.Reachable(ctx) {
		t.Fatal("expected reachable store")
	}
	_ = s.db.Close()
	if s.Reachable(ctx) {
		t.Error("expected unreachable after close")
	}
}

func TestStore_OnMigratedSchema(t *testing.T) {
	db := testutil.OpenSQLite(t)
	if err := migration.Up(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	hasher := password.NewBcryptHasher(password.WithCost(bcrypt.MinCost))
	s := NewGormStore(db, hasher, password.Policy{}, logger.NewNop())

	u := mustCreate(t, s, "ivan", "user")
	if _, err := s.CreateUser(context.Background(), "IVAN", strongPassword, nil); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken on migrated schema, got %v", err)
	}
	if _, err := s.SetRoles(context.Background(), u, []string{"admin"}); err != nil {
		t.Errorf("SetRoles on migrated schema: %v", err)
	}
}

func TestUser_Subject(t *testing.T) {
	u := &User{Roles: []Role{{Name: "user"}, {Name: "admin"}}}
	u.ID = "id-1"
	if u.SubjectID() != "id-1" {
		t.Error("unexpected subject")
	}
	if got := strings.Join(u.RoleNames(), ","); got != "admin,user" {
		t.Errorf("RoleNames = %s", got)
	}
}

func TestHealthComponent(t *testing.T) {
	s := newStore(t)
	h := NewHealthComponent(s)
	ctx := context.Background()

	if got := h.Health(ctx); got.Status != component.StatusHealthy || got.Name != HealthName {
		t.Fatalf("health = %+v", got)
	}

	_ = s.db.Close()
	if got := h.Health(ctx); got.Status != component.StatusUnhealthy {
		t.Fatalf("health after close = %+v", got)
	}
}
