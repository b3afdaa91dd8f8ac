package password

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/kbukum/authgate/errors"
)

// Policy holds the rules a new password must satisfy. The Require* flags are
// pointers so an explicit false in config survives ApplyDefaults.
type Policy struct {
	MinLength              int   `yaml:"min_length" mapstructure:"min_length"`
	MaxLength              int   `yaml:"max_length" mapstructure:"max_length"`
	RequireDigit           *bool `yaml:"require_digit" mapstructure:"require_digit"`
	RequireLowercase       *bool `yaml:"require_lowercase" mapstructure:"require_lowercase"`
	RequireUppercase       *bool `yaml:"require_uppercase" mapstructure:"require_uppercase"`
	RequireNonAlphanumeric *bool `yaml:"require_non_alphanumeric" mapstructure:"require_non_alphanumeric"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (p *Policy) ApplyDefaults() {
	if p.MinLength == 0 {
		p.MinLength = 8
	}
	if p.MaxLength == 0 {
		p.MaxLength = bcryptMaxBytes
	}
	for _, flag := range []**bool{&p.RequireDigit, &p.RequireLowercase, &p.RequireUppercase, &p.RequireNonAlphanumeric} {
		if *flag == nil {
			t := true
			*flag = &t
		}
	}
}

// Validate checks the policy bounds.
func (p *Policy) Validate() error {
	if p.MinLength < 1 {
		return fmt.Errorf("password.policy.min_length must be >= 1 (got: %d)", p.MinLength)
	}
	if p.MaxLength < p.MinLength {
		return fmt.Errorf("password.policy.max_length (%d) must be >= min_length (%d)", p.MaxLength, p.MinLength)
	}
	return nil
}

// Check returns a WeakPassword error listing every rule plaintext breaks, or nil.
func (p *Policy) Check(plaintext string) *errors.AppError {
	var failures []string

	if n := utf8.RuneCountInString(plaintext); n < p.MinLength {
		failures = append(failures, fmt.Sprintf("must be at least %d characters", p.MinLength))
	}
	if len(plaintext) > p.MaxLength {
		failures = append(failures, fmt.Sprintf("must be at most %d bytes", p.MaxLength))
	}

	var digit, lower, upper, other bool
	for _, r := range plaintext {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case !unicode.IsLetter(r):
			other = true
		}
	}
	if enabled(p.RequireDigit) && !digit {
		failures = append(failures, "must contain a digit")
	}
	if enabled(p.RequireLowercase) && !lower {
		failures = append(failures, "must contain a lowercase letter")
	}
	if enabled(p.RequireUppercase) && !upper {
		failures = append(failures, "must contain an uppercase letter")
	}
	if enabled(p.RequireNonAlphanumeric) && !other {
		failures = append(failures, "must contain a non-alphanumeric character")
	}

	if len(failures) == 0 {
		return nil
	}
	return errors.WeakPassword(failures)
}

func enabled(b *bool) bool {
	return b != nil && *b
}
