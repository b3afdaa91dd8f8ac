package credential

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/authgate/logger"
)

const seedDoc = `
users:
  - username: admin
    password_env: AUTHGATE_TEST_ADMIN_PASSWORD
    roles: [admin, user]
  - username: alice
    password: Secret123!
    roles: [user]
`

func TestParseSeed(t *testing.T) {
	f, err := ParseSeed(strings.NewReader(seedDoc))
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	if len(f.Users) != 2 || f.Users[0].Username != "admin" || len(f.Users[0].Roles) != 2 {
		t.Errorf("unexpected seed %+v", f)
	}
}

func TestParseSeed_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "users:\n  - username: a\n    password: x\n    email: a@b\n",
		"missing username": "users:\n  - password: x\n",
		"missing password": "users:\n  - username: a\n",
		"not yaml":         "users: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseSeed(strings.NewReader(doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseSeed_Empty(t *testing.T) {
	f, err := ParseSeed(strings.NewReader(""))
	if err != nil || len(f.Users) != 0 {
		t.Errorf("expected empty seed, got %+v %v", f, err)
	}
}

func TestSeed_CreatesOnce(t *testing.T) {
	t.Setenv("AUTHGATE_TEST_ADMIN_PASSWORD", "Adm1n-Secret!")
	s := newStore(t)
	ctx := context.Background()

	f, err := ParseSeed(strings.NewReader(seedDoc))
	if err != nil {
		t.Fatal(err)
	}

	n, err := Seed(ctx, s, f, logger.NewNop())
	if err != nil || n != 2 {
		t.Fatalf("first seed: n=%d err=%v", n, err)
	}
	n, err = Seed(ctx, s, f, logger.NewNop())
	if err != nil || n != 0 {
		t.Fatalf("second seed: n=%d err=%v", n, err)
	}

	admin, err := s.FindByUsername(ctx, "ADMIN")
	if err != nil {
		t.Fatal(err)
	}
	if !admin.HasRole("admin") || !s.VerifyPassword(admin, "Adm1n-Secret!") {
		t.Error("admin seeded incorrectly")
	}
}

func TestSeed_MissingEnv(t *testing.T) {
	t.Setenv("AUTHGATE_TEST_ADMIN_PASSWORD", "")
	s := newStore(t)
	f, _ := ParseSeed(strings.NewReader(seedDoc))
	if _, err := Seed(context.Background(), s, f, logger.NewNop()); err == nil {
		t.Error("expected error for unset password env")
	}
}

func TestSeedFromFile(t *testing.T) {
	s := newStore(t)
	path := filepath.Join(t.TempDir(), "users.yml")
	doc := "users:\n  - username: judy\n    password: Secret123!\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	n, err := SeedFromFile(context.Background(), s, path, logger.NewNop())
	if err != nil || n != 1 {
		t.Fatalf("SeedFromFile: n=%d err=%v", n, err)
	}
	if _, err := SeedFromFile(context.Background(), s, filepath.Join(t.TempDir(), "missing.yml"), logger.NewNop()); err == nil {
		t.Error("expected error for missing file")
	}
}
