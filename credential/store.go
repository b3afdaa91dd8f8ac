package credential

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means no user matches the lookup.
	ErrNotFound = errors.New("credential: user not found")
	// ErrUsernameTaken means the normalized username already exists.
	ErrUsernameTaken = errors.New("credential: username already taken")
	// ErrStampMismatch means the user changed since it was read.
	ErrStampMismatch = errors.New("credential: security stamp mismatch")
	// ErrInvalidUsername means the username is empty, too long or uses
	// characters outside the allowed alphabet.
	ErrInvalidUsername = errors.New("credential: invalid username")
)

// Store reads and writes user credentials.
type Store interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	// VerifyPassword reports whether plaintext matches u's hash. A nil u
	// costs the same as a real check and returns false.
	VerifyPassword(u *User, plaintext string) bool
	CreateUser(ctx context.Context, username, plaintext string, roles []string) (*User, error)
	ChangePassword(ctx context.Context, u *User, newPlaintext string) (*User, error)
	SetRoles(ctx context.Context, u *User, roles []string) (*User, error)
	Ping(ctx context.Context) error
	Reachable(ctx context.Context) bool
}
