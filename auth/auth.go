package auth

import "time"

// TokenValidator turns a bearer token into a Principal as of now. Errors from
// implementations describe why the token was rejected; callers at the HTTP
// boundary collapse them into a single unauthenticated response.
type TokenValidator interface {
	Validate(token string, now time.Time) (*Principal, error)
}

// TokenValidatorFunc adapts a function to TokenValidator.
type TokenValidatorFunc func(token string, now time.Time) (*Principal, error)

// Validate implements TokenValidator.
func (f TokenValidatorFunc) Validate(token string, now time.Time) (*Principal, error) {
	return f(token, now)
}

// Clock supplies the current time to issuers, validators and enforcers.
type Clock func() time.Time

// SystemClock returns time.Now in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}
