package jwt

import (
	"errors"
	"fmt"
	"time"
)

// MinKeyLength is the shortest HMAC secret accepted, in bytes.
const MinKeyLength = 32

// KeyConfig describes one signing key. A zero NotBefore or NotAfter leaves
// that side of the window open.
type KeyConfig struct {
	ID        string    `yaml:"id" mapstructure:"id"`
	Secret    string    `yaml:"secret" mapstructure:"secret"`
	NotBefore time.Time `yaml:"not_before" mapstructure:"not_before"`
	NotAfter  time.Time `yaml:"not_after" mapstructure:"not_after"`
}

// Config configures token issuance and validation. Either Secret (a single
// key) or Keys (a rotation keyring) must be set.
type Config struct {
	Secret   string        `yaml:"secret" mapstructure:"secret"`
	Keys     []KeyConfig   `yaml:"keys" mapstructure:"keys"`
	Issuer   string        `yaml:"issuer" mapstructure:"issuer"`
	Audience string        `yaml:"audience" mapstructure:"audience"`
	Lifetime time.Duration `yaml:"lifetime" mapstructure:"lifetime"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Lifetime == 0 {
		c.Lifetime = time.Hour
	}
}

// Validate checks the configuration, including key lengths.
func (c *Config) Validate() error {
	if c.Issuer == "" {
		return errors.New("issuer is required")
	}
	if c.Audience == "" {
		return errors.New("audience is required")
	}
	if c.Lifetime <= 0 {
		return fmt.Errorf("lifetime must be positive (got: %s)", c.Lifetime)
	}
	_, err := c.Keyring()
	return err
}

// KeyCount returns how many signing keys the config declares.
func (c *Config) KeyCount() int {
	if c.Secret != "" {
		return 1
	}
	return len(c.Keys)
}

// Keyring builds the immutable keyring described by the config.
func (c *Config) Keyring() (*Keyring, error) {
	if c.Secret != "" && len(c.Keys) > 0 {
		return nil, errors.New("set either secret or keys, not both")
	}
	if c.Secret != "" {
		return NewKeyring(Key{ID: "default", Secret: []byte(c.Secret)})
	}
	keys := make([]Key, 0, len(c.Keys))
	for _, k := range c.Keys {
		keys = append(keys, Key{ID: k.ID, Secret: []byte(k.Secret), NotBefore: k.NotBefore, NotAfter: k.NotAfter})
	}
	return NewKeyring(keys...)
}
