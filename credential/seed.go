package credential

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kbukum/authgate/logger"
)

// SeedUser is one entry of a seed file. PasswordEnv names an environment
// variable holding the password so seed files need not carry secrets.
type SeedUser struct {
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
	PasswordEnv string   `yaml:"password_env"`
	Roles       []string `yaml:"roles"`
}

// SeedFile is the YAML document read by Seed.
type SeedFile struct {
	Users []SeedUser `yaml:"users"`
}

// ParseSeed decodes a seed document. Unknown keys are rejected.
func ParseSeed(r io.Reader) (*SeedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f SeedFile
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("credential: parse seed: %w", err)
	}
	for i, u := range f.Users {
		if u.Username == "" {
			return nil, fmt.Errorf("credential: seed user %d: username is required", i)
		}
		if u.Password == "" && u.PasswordEnv == "" {
			return nil, fmt.Errorf("credential: seed user %q: password or password_env is required", u.Username)
		}
	}
	return &f, nil
}

// Seed creates every user in f that does not exist yet and returns how many
// were created. Existing usernames are left untouched.
func Seed(ctx context.Context, store Store, f *SeedFile, log *logger.Logger) (int, error) {
	created := 0
	for _, su := range f.Users {
		plaintext := su.Password
		if su.PasswordEnv != "" {
			plaintext = os.Getenv(su.PasswordEnv)
			if plaintext == "" {
				return created, fmt.Errorf("credential: seed user %q: %s is not set", su.Username, su.PasswordEnv)
			}
		}

		_, err := store.CreateUser(ctx, su.Username, plaintext, su.Roles)
		switch {
		case errors.Is(err, ErrUsernameTaken):
			log.Debug("Seed user exists, skipping", map[string]interface{}{logger.FieldUsername: su.Username})
		case err != nil:
			return created, fmt.Errorf("credential: seed user %q: %w", su.Username, err)
		default:
			created++
		}
	}
	if created > 0 {
		log.Info("Seeded users", map[string]interface{}{"count": created})
	}
	return created, nil
}

// SeedFromFile reads path and seeds store from it.
func SeedFromFile(ctx context.Context, store Store, path string, log *logger.Logger) (int, error) {
	fh, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("credential: open seed file: %w", err)
	}
	defer fh.Close()

	f, err := ParseSeed(fh)
	if err != nil {
		return 0, err
	}
	return Seed(ctx, store, f, log)
}
