package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/authgate/errors"
)

// transient error fragments from pgx, lib/pq and sqlite.
var unavailableFragments = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"i/o timeout",
	"no route to host",
	"network is unreachable",
	"connection closed",
	"driver: bad connection",
	"database is closed",
	"database is locked",
	"deadlock",
	"lock timeout",
	"too many connections",
}

// IsUnavailable reports whether err means the store could not serve the
// request right now, as opposed to rejecting it.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, f := range unavailableFragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}

// IsNotFoundError checks if the error is a GORM record-not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError checks if the error is a unique constraint violation.
// Requires a DB opened by New, which enables GORM error translation.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// FromDatabase converts an unexpected storage error into an AppError. A
// store that is down maps to 503 so clients retry; everything else is a 500.
func FromDatabase(err error, resource string) *apperrors.AppError {
	switch {
	case err == nil:
		return nil
	case IsNotFoundError(err):
		return apperrors.NotFound(resource, "")
	case IsDuplicateError(err):
		return apperrors.Conflict(resource + " already exists").WithCause(err)
	case IsUnavailable(err):
		return apperrors.ServiceUnavailable("credential store").WithCause(err)
	default:
		return apperrors.DatabaseError(err)
	}
}
