package session

import (
	"time"

	"rollcall/cmd/identity"
)

// Claims is the identity assertion carried inside a verified bearer token.
type Claims struct {
	UserID   int64
	Username string
	// TokenID is a per-issuance ULID. It makes every issued token unique
	// even when two logins for the same user land in the same instant, so
	// the ledger's token column never collides.
	TokenID string
}

// TokenManager issues and verifies signed, self-contained bearer tokens.
//
// Verification is pure computation: no revocation state is consulted here.
// Liveness is the ledger's job.
type TokenManager interface {
	// Issue mints a token for the user with the configured TTL.
	Issue(user identity.User, now time.Time) (token string, expiresAt time.Time, err error)

	// Verify checks structure, signature and expiry as of now, returning
	// ErrInvalidToken on any failure.
	Verify(token string, now time.Time) (Claims, error)
}
