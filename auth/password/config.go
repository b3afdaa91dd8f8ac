package password

import "fmt"

// Algorithm names a supported hashing algorithm.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

// Config selects the hashing algorithm and the password policy.
type Config struct {
	Algorithm     Algorithm `yaml:"algorithm" mapstructure:"algorithm"`
	BcryptCost    int       `yaml:"bcrypt_cost" mapstructure:"bcrypt_cost"`
	Argon2Time    uint32    `yaml:"argon2_time" mapstructure:"argon2_time"`
	Argon2Memory  uint32    `yaml:"argon2_memory" mapstructure:"argon2_memory"`
	Argon2Threads uint8     `yaml:"argon2_threads" mapstructure:"argon2_threads"`
	Policy        Policy    `yaml:"policy" mapstructure:"policy"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmBcrypt
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.Argon2Time == 0 {
		c.Argon2Time = 1
	}
	if c.Argon2Memory == 0 {
		c.Argon2Memory = 64 * 1024
	}
	if c.Argon2Threads == 0 {
		c.Argon2Threads = 4
	}
	c.Policy.ApplyDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id:
	default:
		return fmt.Errorf("password.algorithm: unsupported %q (use bcrypt or argon2id)", c.Algorithm)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("password.bcrypt_cost must be between 4 and 31 (got: %d)", c.BcryptCost)
	}
	if c.Algorithm == AlgorithmBcrypt && c.Policy.MaxLength > bcryptMaxBytes {
		return fmt.Errorf("password.policy.max_length cannot exceed %d with bcrypt", bcryptMaxBytes)
	}
	return c.Policy.Validate()
}

// NewHasher creates the Hasher named by cfg.
func NewHasher(cfg Config) Hasher {
	cfg.ApplyDefaults()
	if cfg.Algorithm == AlgorithmArgon2id {
		return NewArgon2Hasher(
			WithArgon2Time(cfg.Argon2Time),
			WithArgon2Memory(cfg.Argon2Memory),
			WithArgon2Threads(cfg.Argon2Threads),
		)
	}
	return NewBcryptHasher(WithCost(cfg.BcryptCost))
}
