package session

import "errors"

var (
	// ErrInvalidCredentials is returned at login for a bad username or
	// password. The two cases are deliberately not distinguished.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionLimit is returned when a login would exceed the per-user
	// concurrent-device cap while the existing sessions are still fresh.
	ErrSessionLimit = errors.New("session limit exceeded")

	// ErrUnauthenticated is returned for any post-login auth check failure:
	// missing, malformed, expired, signature-invalid or revoked token.
	// Callers cannot tell which; that is intentional.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidToken is returned when a bearer token fails verification.
	// The auth gate normalizes it to ErrUnauthenticated.
	ErrInvalidToken = errors.New("invalid token")

	// ErrSessionNotFound is returned when a referenced session is absent or
	// not owned by the caller.
	ErrSessionNotFound = errors.New("session not found")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
