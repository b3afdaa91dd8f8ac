package throttle

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kbukum/authgate/redis"
)

// Backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Limiter decides whether another attempt for key may proceed.
type Limiter interface {
	// Allow records an attempt and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (bool, error)
	// Reset clears the attempt history for key.
	Reset(ctx context.Context, key string) error
}

// RetryAfterer is implemented by limiters that can tell how long a locked
// key stays locked.
type RetryAfterer interface {
	RetryAfter(ctx context.Context, key string) (time.Duration, error)
}

// Config configures the login throttle.
type Config struct {
	// Enabled turns throttling on. When off, NopLimiter is used.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Backend is "memory" (single instance) or "redis" (shared).
	Backend string `yaml:"backend" mapstructure:"backend"`
	// MaxAttempts is the number of attempts allowed per window.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	// Window is the lockout span.
	Window time.Duration `yaml:"window" mapstructure:"window"`
	// KeyPrefix namespaces redis keys.
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Window <= 0 {
		c.Window = 5 * time.Minute
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "authgate:login:"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if !slices.Contains([]string{BackendMemory, BackendRedis}, c.Backend) {
		return fmt.Errorf("throttle.backend: unsupported %q (use memory or redis)", c.Backend)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("throttle.max_attempts must be > 0")
	}
	if c.Window <= 0 {
		return fmt.Errorf("throttle.window must be positive")
	}
	return nil
}

// NopLimiter allows everything.
type NopLimiter struct{}

func (NopLimiter) Allow(context.Context, string) (bool, error) { return true, nil }
func (NopLimiter) Reset(context.Context, string) error         { return nil }

// New builds the limiter cfg describes. client is required for the redis
// backend and ignored otherwise.
func New(cfg Config, client *redis.Client) (Limiter, error) {
	if !cfg.Enabled {
		return NopLimiter{}, nil
	}
	cfg.ApplyDefaults()
	switch cfg.Backend {
	case BackendRedis:
		if client == nil {
			return nil, fmt.Errorf("throttle: redis backend selected but redis is not configured")
		}
		return NewRedisLimiter(client, cfg), nil
	default:
		return NewMemoryLimiter(cfg), nil
	}
}
