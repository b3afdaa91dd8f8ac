package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Authentication and authorization
const (
	// ErrCodeUnauthenticated means no valid bearer token accompanied the request.
	ErrCodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	// ErrCodeForbidden means the caller is authenticated but lacks a required role.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
	// ErrCodeInvalidCredentials means a username/password pair did not match.
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	// ErrCodeLockedOut means too many failed logins were recorded for the account.
	ErrCodeLockedOut ErrorCode = "LOCKED_OUT"
	// ErrCodeRateLimited means a client sent too many requests.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Identity records
const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUsernameTaken ErrorCode = "USERNAME_TAKEN"
	// ErrCodeConflict signals a lost optimistic-concurrency race.
	ErrCodeConflict ErrorCode = "CONFLICT"
)

// Input
const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeWeakPassword ErrorCode = "WEAK_PASSWORD"
)

// Infrastructure
const (
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError      ErrorCode = "DATABASE_ERROR"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeConflict:           true,
	ErrCodeLockedOut:          true,
	ErrCodeRateLimited:        true,
	ErrCodeDatabaseError:      true,
	ErrCodeServiceUnavailable: true,
}

// IsRetryableCode reports whether a request failing with code may succeed if repeated.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
