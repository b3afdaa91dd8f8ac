package account

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kbukum/authgate/auth/jwt"
	"github.com/kbukum/authgate/auth/password"
	"github.com/kbukum/authgate/credential"
	"github.com/kbukum/authgate/database/testutil"
	apperrors "github.com/kbukum/authgate/errors"
	"github.com/kbukum/authgate/logger"
	"github.com/kbukum/authgate/throttle"
)

const strongPassword = "Secret123!"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testJWTConfig() jwt.Config {
	return jwt.Config{
		Secret:   strings.Repeat("k", jwt.MinKeyLength),
		Issuer:   "authgate",
		Audience: "authgate-api",
		Lifetime: time.Hour,
	}
}

type fixture struct {
	store     *credential.GormStore
	keys      *jwt.Keyring
	validator *jwt.Validator
	service   *Service
	now       time.Time
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db := testutil.OpenSQLite(t, credential.Models()...)
	hasher := password.NewBcryptHasher(password.WithCost(bcrypt.MinCost))
	store := credential.NewGormStore(db, hasher, password.Policy{}, logger.NewNop())

	cfg := testJWTConfig()
	kr, err := cfg.Keyring()
	if err != nil {
		t.Fatalf("Keyring: %v", err)
	}
	f := &fixture{store: store, keys: kr, validator: jwt.NewValidator(kr, cfg), now: testNow}
	opts = append([]Option{WithClock(func() time.Time { return f.now }), WithDefaultRoles("user")}, opts...)
	f.service = NewService(store, jwt.NewIssuer(kr, cfg), logger.NewNop(), opts...)
	return f
}

func TestRegister_GrantsDefaultRoles(t *testing.T) {
	f := newFixture(t)
	u, err := f.service.Register(context.Background(), "alice", strongPassword)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := strings.Join(u.RoleNames(), ","); got != "user" {
		t.Errorf("roles = %q, want user", got)
	}
}

func TestRegister_WeakPassword(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Register(context.Background(), "alice", "short")
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeWeakPassword {
		t.Fatalf("expected weak password error, got %v", err)
	}
}

func TestLogin_IssuesValidToken(t *testing.T) {
	f := newFixture(t)
	if _, err := f.service.CreateUser(context.Background(), "alice", strongPassword, []string{"admin"}); err != nil {
		t.Fatal(err)
	}

	tok, err := f.service.Login(context.Background(), "ALICE", strongPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	p, err := f.validator.Validate(tok.Value, f.now)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !p.HasRole("admin") {
		t.Errorf("principal roles = %v", p.Roles)
	}
	if !tok.ExpiresAt.Equal(testNow.Add(time.Hour)) {
		t.Errorf("expires at %s", tok.ExpiresAt)
	}
}

func TestLogin_FailuresAreIndistinguishableToCallers(t *testing.T) {
	f := newFixture(t)
	if _, err := f.service.Register(context.Background(), "alice", strongPassword); err != nil {
		t.Fatal(err)
	}

	_, unknown := f.service.Login(context.Background(), "bob", strongPassword)
	_, wrong := f.service.Login(context.Background(), "alice", "Wrong123!")

	for name, err := range map[string]error{"unknown": unknown, "wrong": wrong} {
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%s: expected ErrInvalidCredentials, got %v", name, err)
		}
		if got := toAppError(err, "x").Code; got != apperrors.ErrCodeInvalidCredentials {
			t.Errorf("%s: code = %s", name, got)
		}
	}
	if !errors.Is(unknown, credential.ErrNotFound) {
		t.Error("unknown user must stay distinguishable inside the service")
	}
	if errors.Is(wrong, credential.ErrNotFound) {
		t.Error("wrong password must not match ErrNotFound")
	}
}

func TestLogin_LockoutAndReset(t *testing.T) {
	clock := testNow
	limiter := throttle.NewMemoryLimiterWithClock(
		throttle.Config{Enabled: true, MaxAttempts: 3, Window: time.Minute},
		func() time.Time { return clock },
	)
	f := newFixture(t, WithLimiter(limiter))
	ctx := context.Background()
	if _, err := f.service.Register(ctx, "alice", strongPassword); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if _, err := f.service.Login(ctx, "alice", "Wrong123!"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}

	// Locked even with the right password, and under any casing.
	_, err := f.service.Login(ctx, "Alice", strongPassword)
	var locked *LockedOutError
	if !errors.As(err, &locked) {
		t.Fatalf("expected lockout, got %v", err)
	}
	if locked.RetryAfterSeconds() != 60 {
		t.Errorf("retry after = %ds, want 60", locked.RetryAfterSeconds())
	}
	if appErr := toAppError(err, "alice"); appErr.HTTPStatus != 429 {
		t.Errorf("lockout status = %d", appErr.HTTPStatus)
	}

	clock = clock.Add(time.Minute)
	if _, err := f.service.Login(ctx, "alice", strongPassword); err != nil {
		t.Fatalf("login after window: %v", err)
	}
	if n := limiter.Len(); n != 0 {
		t.Errorf("successful login should clear the window, %d keys tracked", n)
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}
func (failingLimiter) Reset(context.Context, string) error { return errors.New("redis down") }

func TestLogin_LimiterErrorFailsOpen(t *testing.T) {
	f := newFixture(t, WithLimiter(failingLimiter{}))
	if _, err := f.service.Register(context.Background(), "alice", strongPassword); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.Login(context.Background(), "alice", strongPassword); err != nil {
		t.Fatalf("Login: %v", err)
	}
}

// racingStore loses the compare-and-swap a fixed number of times.
type racingStore struct {
	*credential.GormStore
	losses atomic.Int32
}

func (s *racingStore) ChangePassword(ctx context.Context, u *credential.User, next string) (*credential.User, error) {
	if s.losses.Add(-1) >= 0 {
		return nil, credential.ErrStampMismatch
	}
	return s.GormStore.ChangePassword(ctx, u, next)
}

func (s *racingStore) SetRoles(ctx context.Context, u *credential.User, roles []string) (*credential.User, error) {
	if s.losses.Add(-1) >= 0 {
		return nil, credential.ErrStampMismatch
	}
	return s.GormStore.SetRoles(ctx, u, roles)
}

func newRacingFixture(t *testing.T, losses int32) (*fixture, *racingStore) {
	t.Helper()
	f := newFixture(t)
	rs := &racingStore{GormStore: f.store}
	rs.losses.Store(losses)
	f.service.store = rs
	return f, rs
}

func TestChangePassword_RetriesOnStampMismatch(t *testing.T) {
	f, _ := newRacingFixture(t, 2)
	ctx := context.Background()
	u, err := f.service.Register(ctx, "alice", strongPassword)
	if err != nil {
		t.Fatal(err)
	}

	updated, err := f.service.ChangePassword(ctx, u.ID, strongPassword, "N3w-Secret!")
	if err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if updated.SecurityStamp == u.SecurityStamp {
		t.Error("expected a new security stamp")
	}
	if _, err := f.service.Login(ctx, "alice", "N3w-Secret!"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestChangePassword_GivesUpAfterRepeatedConflicts(t *testing.T) {
	f, _ := newRacingFixture(t, 100)
	ctx := context.Background()
	u, err := f.service.Register(ctx, "alice", strongPassword)
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.service.ChangePassword(ctx, u.ID, strongPassword, "N3w-Secret!")
	if !errors.Is(err, credential.ErrStampMismatch) {
		t.Fatalf("expected ErrStampMismatch, got %v", err)
	}
	if got := toAppError(err, "").Code; got != apperrors.ErrCodeConflict {
		t.Errorf("code = %s, want CONFLICT", got)
	}
}

func TestChangePassword_WrongCurrentPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := f.service.Register(ctx, "alice", strongPassword)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.ChangePassword(ctx, u.ID, "Wrong123!", "N3w-Secret!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSetRoles_RetriesOnStampMismatch(t *testing.T) {
	f, _ := newRacingFixture(t, 1)
	ctx := context.Background()
	if _, err := f.service.Register(ctx, "alice", strongPassword); err != nil {
		t.Fatal(err)
	}
	u, err := f.service.SetRoles(ctx, "ALICE", []string{"auditor", "admin"})
	if err != nil {
		t.Fatalf("SetRoles: %v", err)
	}
	if got := strings.Join(u.RoleNames(), ","); got != "admin,auditor" {
		t.Errorf("roles = %q", got)
	}
}

func TestSetRoles_UnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.SetRoles(context.Background(), "ghost", []string{"admin"})
	if !errors.Is(err, credential.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := toAppError(err, "ghost").HTTPStatus; got != 404 {
		t.Errorf("status = %d", got)
	}
}

func TestToAppError_StoreDown(t *testing.T) {
	err := errors.New("sql: database is closed")
	got := toAppError(err, "alice")
	if got.Code != apperrors.ErrCodeServiceUnavailable || got.HTTPStatus != 503 {
		t.Errorf("got %s/%d, want SERVICE_UNAVAILABLE/503", got.Code, got.HTTPStatus)
	}
	if got := toAppError(errors.New("boom"), "alice"); got.HTTPStatus != 500 {
		t.Errorf("unexpected error status = %d", got.HTTPStatus)
	}
}
