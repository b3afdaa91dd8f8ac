package main

import (
	"fmt"

	"github.com/kbukum/authgate/auth/jwt"
	"github.com/kbukum/authgate/auth/password"
	"github.com/kbukum/authgate/config"
	"github.com/kbukum/authgate/database"
	"github.com/kbukum/authgate/observability"
	"github.com/kbukum/authgate/redis"
	"github.com/kbukum/authgate/server"
	"github.com/kbukum/authgate/throttle"
)

const serviceName = "authgate"

// Config is the authgate process configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Database  database.Config      `yaml:"database" mapstructure:"database"`
	Redis     redis.Config         `yaml:"redis" mapstructure:"redis"`
	Auth      AuthConfig           `yaml:"auth" mapstructure:"auth"`
	Throttle  throttle.Config      `yaml:"throttle" mapstructure:"throttle"`
	Server    server.Config        `yaml:"server" mapstructure:"server"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`

	// SeedFile is an optional YAML file of users created at startup.
	SeedFile string `yaml:"seed_file" mapstructure:"seed_file"`
}

func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Throttle.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
	if c.UsesRedis() {
		c.Redis.ApplyDefaults()
	}
}

func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if c.UsesRedis() {
		if err := c.Redis.Validate(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Throttle.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}

// UsesRedis reports whether any limiter is configured with the redis backend.
func (c *Config) UsesRedis() bool {
	uses := func(t throttle.Config) bool { return t.Enabled && t.Backend == throttle.BackendRedis }
	return uses(c.Throttle) || uses(c.Server.RateLimit)
}

// AuthConfig composes token and password settings.
type AuthConfig struct {
	JWT      jwt.Config      `yaml:"jwt" mapstructure:"jwt"`
	Password password.Config `yaml:"password" mapstructure:"password"`
	// DefaultRoles are granted to self-registered users.
	DefaultRoles []string `yaml:"default_roles" mapstructure:"default_roles"`
}

func (c *AuthConfig) ApplyDefaults() {
	c.JWT.ApplyDefaults()
	c.Password.ApplyDefaults()
	if c.DefaultRoles == nil {
		c.DefaultRoles = []string{"user"}
	}
}

// Validate fails on a missing or weak signing key, which must stop the
// process from serving.
func (c *AuthConfig) Validate() error {
	if err := c.JWT.Validate(); err != nil {
		return fmt.Errorf("auth.jwt: %w", err)
	}
	if err := c.Password.Validate(); err != nil {
		return fmt.Errorf("auth.password: %w", err)
	}
	return nil
}

// Describe is a one-line summary for startup logs without key material.
func (c *AuthConfig) Describe() string {
	return fmt.Sprintf("jwt(HS256 iss=%s aud=%s lifetime=%s keys=%d) password=%s",
		c.JWT.Issuer, c.JWT.Audience, c.JWT.Lifetime, c.JWT.KeyCount(), c.Password.Algorithm)
}
