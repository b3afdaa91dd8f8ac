package database

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds database connection configuration.
type Config struct {
	// Driver selects the dialect: "postgres" or "sqlite".
	Driver string `yaml:"driver" mapstructure:"driver"`

	// DSN is the connection string. For sqlite this is a file path or
	// "file::memory:?cache=shared".
	DSN string `yaml:"dsn" mapstructure:"dsn"`

	MaxOpenConns int `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`

	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`

	// MaxRetries is the number of connection attempts at startup. The
	// credential store is required, so the process exits once they run out.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`

	// AutoMigrate runs GORM auto-migration for registered models on start.
	AutoMigrate bool `yaml:"auto_migrate" mapstructure:"auto_migrate"`

	// Migrate applies the embedded versioned SQL migrations on start.
	Migrate bool `yaml:"migrate" mapstructure:"migrate"`

	// SlowQueryThreshold logs queries slower than this at warn level.
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold" mapstructure:"slow_query_threshold"`

	// LogLevel is the GORM log level: silent, error, warn or info.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverPostgres
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = time.Hour
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = 5 * time.Minute
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	if c.SlowQueryThreshold == 0 {
		c.SlowQueryThreshold = 200 * time.Millisecond
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// Validate checks the settings after ApplyDefaults.
func (c *Config) Validate() error {
	if !slices.Contains([]string{DriverPostgres, DriverSQLite}, c.Driver) {
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}
	if c.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if c.MaxOpenConns <= 0 {
		return fmt.Errorf("max_open_conns must be > 0")
	}
	if c.MaxIdleConns <= 0 {
		return fmt.Errorf("max_idle_conns must be > 0")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("max_idle_conns (%d) must be <= max_open_conns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	if c.ConnMaxLifetime < 0 || c.ConnMaxIdleTime < 0 {
		return fmt.Errorf("connection lifetimes must not be negative")
	}
	if c.SlowQueryThreshold < 0 {
		return fmt.Errorf("slow_query_threshold must not be negative")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max_retries must be > 0")
	}
	return nil
}

// InMemory reports whether the DSN names an in-memory sqlite database.
func (c *Config) InMemory() bool {
	return c.Driver == DriverSQLite && (strings.Contains(c.DSN, ":memory:") || strings.Contains(c.DSN, "mode=memory"))
}
