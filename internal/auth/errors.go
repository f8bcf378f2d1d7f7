package auth

import "errors"

// Error kinds returned by Service. Callers distinguish them with errors.Is.
var (
	// ErrValidation means the request itself is unusable (missing or oversized fields).
	ErrValidation = errors.New("validation failed")
	// ErrConflict means the username is already registered.
	ErrConflict = errors.New("username already exists")
	// ErrAuthenticationFailed covers both unknown usernames and wrong passwords.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrIssuance means a session token could not be signed.
	ErrIssuance = errors.New("token issuance failed")
	// ErrInternal covers store and hashing failures.
	ErrInternal = errors.New("internal error")
)

// ValidationError carries a client-facing message and matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
