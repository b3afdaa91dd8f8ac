package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kbukum/authgate/errors"
)

// FieldError is one failed rule, keyed by the client-facing field path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates field errors for values that do not come from a
// bound struct, such as path parameters.
type Validator struct {
	errors []FieldError
}

func New() *Validator {
	return &Validator{}
}

func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns nil when every check passed, otherwise an invalid-input
// AppError whose "fields" detail lists each failure in order.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}
	parts := make([]string, 0, len(v.errors))
	for _, e := range v.errors {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return errors.Validation(strings.Join(parts, "; ")).WithDetail("fields", v.errors)
}

// Required fails on an empty or blank value. Later checks on the same field
// are skipped once it fails.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// MaxLength bounds value in characters.
func (v *Validator) MaxLength(field, value string, max int) *Validator {
	if v.failed(field) {
		return v
	}
	if utf8.RuneCountInString(value) > max {
		v.AddError(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return v
}

// Check records message against field when ok is false.
func (v *Validator) Check(ok bool, field, message string) *Validator {
	if !ok && !v.failed(field) {
		v.AddError(field, message)
	}
	return v
}

// Each runs valid over values and reports failures as field[i].
func (v *Validator) Each(field string, values []string, valid func(string) bool, message string) *Validator {
	for i, s := range values {
		if !valid(s) {
			v.AddError(fmt.Sprintf("%s[%d]", field, i), message)
		}
	}
	return v
}

func (v *Validator) failed(field string) bool {
	for _, e := range v.errors {
		if e.Field == field {
			return true
		}
	}
	return false
}
