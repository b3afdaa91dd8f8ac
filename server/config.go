package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/authgate/security"
	"github.com/kbukum/authgate/server/middleware"
	"github.com/kbukum/authgate/throttle"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string                `yaml:"host" mapstructure:"host"`
	Port         int                   `yaml:"port" mapstructure:"port"`
	ReadTimeout  int                   `yaml:"read_timeout" mapstructure:"read_timeout"`   // seconds
	WriteTimeout int                   `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds
	IdleTimeout  int                   `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
	MaxBodySize  string                `yaml:"max_body_size" mapstructure:"max_body_size"` // e.g. "1MB"
	TLS          security.TLSConfig    `yaml:"tls" mapstructure:"tls"`
	CORS         middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
	HSTS         HSTSConfig            `yaml:"hsts" mapstructure:"hsts"`
	// RateLimit bounds requests per client IP on the public auth routes.
	RateLimit throttle.Config `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// HSTSConfig configures Strict-Transport-Security. It is sent in production only.
type HSTSConfig struct {
	MaxAge            time.Duration `yaml:"max_age" mapstructure:"max_age"`
	IncludeSubdomains bool          `yaml:"include_subdomains" mapstructure:"include_subdomains"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "1MB"
	}
	if c.CORS.MaxAge == 0 {
		c.CORS.MaxAge = 10 * time.Minute
	}
	if c.HSTS.MaxAge == 0 {
		c.HSTS.MaxAge = 365 * 24 * time.Hour
	}
	if c.RateLimit.MaxAttempts == 0 {
		c.RateLimit.MaxAttempts = 60
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.RateLimit.KeyPrefix == "" {
		c.RateLimit.KeyPrefix = "authgate:rl:"
	}
	c.RateLimit.ApplyDefaults()
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("server.read_timeout must be non-negative (got: %d)", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("server.write_timeout must be non-negative (got: %d)", c.WriteTimeout)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("server.idle_timeout must be non-negative (got: %d)", c.IdleTimeout)
	}
	if _, err := ParseSize(c.MaxBodySize); err != nil {
		return fmt.Errorf("server.max_body_size: %w", err)
	}
	if err := c.TLS.Validate(); err != nil {
		return fmt.Errorf("server.tls: %w", err)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("server.rate_limit: %w", err)
	}
	return nil
}

// MaxBodyBytes returns MaxBodySize in bytes. Call after Validate.
func (c *Config) MaxBodyBytes() int64 {
	n, _ := ParseSize(c.MaxBodySize)
	return n
}

// ParseSize parses a size such as "512KB", "10MB" or "1GB" (binary units).
// A bare number is bytes.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	multiplier := int64(1)
	for _, unit := range []struct {
		suffix string
		bytes  int64
	}{{"GB", 1 << 30}, {"MB", 1 << 20}, {"KB", 1 << 10}, {"B", 1}} {
		if rest, ok := strings.CutSuffix(s, unit.suffix); ok {
			s, multiplier = strings.TrimSpace(rest), unit.bytes
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * multiplier, nil
}
