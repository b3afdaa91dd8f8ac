package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/authgate/config"
	"github.com/kbukum/authgate/throttle"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func load(t *testing.T, body string) *Config {
	t.Helper()
	var cfg Config
	err := config.LoadConfig(serviceName, &cfg,
		config.WithConfigFile(writeConfig(t, body)),
		config.WithEnvFile(filepath.Join(t.TempDir(), "missing.env")),
	)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.ApplyDefaults()
	return &cfg
}

const minimalConfig = `
environment: production
database:
  driver: sqlite
  dsn: ":memory:"
auth:
  jwt:
    issuer: authgate
    audience: authgate-api
server:
  cors:
    allowed_origins: ["https://*.example.com"]
`

func TestConfig_SecretFromEnvironment(t *testing.T) {
	t.Setenv("AUTHGATE_AUTH_JWT_SECRET", testSecret)
	cfg := load(t, minimalConfig)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Name != serviceName || cfg.Environment != config.EnvProduction {
		t.Errorf("service = %s/%s", cfg.Name, cfg.Environment)
	}
	if cfg.Auth.JWT.Secret != testSecret {
		t.Error("secret not read from environment")
	}
	if got := cfg.Server.CORS.AllowedOrigins; len(got) != 1 || got[0] != "https://*.example.com" {
		t.Errorf("allowed origins = %v", got)
	}
}

func TestConfig_MissingOrShortSecretIsFatal(t *testing.T) {
	for _, secret := range []string{"", "too-short"} {
		t.Setenv("AUTHGATE_AUTH_JWT_SECRET", secret)
		cfg := load(t, minimalConfig)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "auth.jwt") {
			t.Fatalf("secret %q: expected auth.jwt error, got %v", secret, err)
		}
	}
}

func TestConfig_UnknownEnvironment(t *testing.T) {
	t.Setenv("AUTHGATE_AUTH_JWT_SECRET", testSecret)
	cfg := load(t, strings.Replace(minimalConfig, "production", "qa", 1))
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected environment error")
	}
}

func TestConfig_UsesRedis(t *testing.T) {
	cfg := &Config{}
	if cfg.UsesRedis() {
		t.Fatal("zero config must not need redis")
	}
	cfg.Throttle = throttle.Config{Enabled: true, Backend: throttle.BackendRedis}
	if !cfg.UsesRedis() {
		t.Fatal("redis throttle needs redis")
	}
	cfg.Throttle.Enabled = false
	cfg.Server.RateLimit = throttle.Config{Enabled: true, Backend: throttle.BackendRedis}
	if !cfg.UsesRedis() {
		t.Fatal("redis rate limit needs redis")
	}
}

func TestSampleConfigIsValid(t *testing.T) {
	t.Setenv("AUTHGATE_AUTH_JWT_SECRET", testSecret)
	body, err := os.ReadFile("config.yml")
	if err != nil {
		t.Fatal(err)
	}
	cfg := load(t, string(body))
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config: %v", err)
	}
}

func TestAuthConfig_DescribeOmitsKeys(t *testing.T) {
	var c AuthConfig
	c.JWT.Secret = testSecret
	c.JWT.Issuer = "authgate"
	c.JWT.Audience = "authgate-api"
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	got := c.Describe()
	if strings.Contains(got, testSecret) {
		t.Fatalf("Describe leaked the secret: %s", got)
	}
	if !strings.Contains(got, "iss=authgate") || !strings.Contains(got, "keys=1") {
		t.Errorf("Describe() = %s", got)
	}
	if len(c.DefaultRoles) != 1 || c.DefaultRoles[0] != "user" {
		t.Errorf("DefaultRoles = %v", c.DefaultRoles)
	}
}
