package account

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kbukum/authgate/credential"
	"github.com/kbukum/authgate/database"
	apperrors "github.com/kbukum/authgate/errors"
)

// ErrInvalidCredentials means the username/password pair did not match. When
// the username does not exist the error also matches credential.ErrNotFound.
var ErrInvalidCredentials = errors.New("account: invalid credentials")

// LockedOutError means the login throttle refused the attempt.
type LockedOutError struct {
	RetryAfter time.Duration
}

func (e *LockedOutError) Error() string {
	return fmt.Sprintf("account: locked out, retry after %s", e.RetryAfter)
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds.
func (e *LockedOutError) RetryAfterSeconds() int {
	return int(math.Ceil(e.RetryAfter.Seconds()))
}

// toAppError maps service errors onto the HTTP error envelope. username is
// used for the username-taken detail.
func toAppError(err error, username string) *apperrors.AppError {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	var locked *LockedOutError
	switch {
	case errors.As(err, &locked):
		return apperrors.LockedOut(locked.RetryAfterSeconds())
	case errors.Is(err, ErrInvalidCredentials):
		return apperrors.InvalidCredentials()
	case errors.Is(err, credential.ErrUsernameTaken):
		return apperrors.UsernameTaken(username)
	case errors.Is(err, credential.ErrInvalidUsername):
		return apperrors.Validation("The username is invalid.").WithDetail("username", username)
	case errors.Is(err, credential.ErrStampMismatch):
		return apperrors.Conflict("The account was modified concurrently. Please retry.")
	case errors.Is(err, credential.ErrNotFound):
		return apperrors.NotFound("user", username)
	default:
		return database.FromDatabase(err, "user")
	}
}
