package session

import (
	"context"
	"net"
	"time"
)

// Device describes the client device that owns a session.
type Device struct {
	// Name is a short human-readable summary ("Chrome 120 on macOS").
	Name string
	// UserAgent is the raw User-Agent header, if any.
	UserAgent string
	// IP is the originating network address, if known.
	IP net.IP
}

// Row mirrors a sessions table row.
//
// The bearer token is stored verbatim and is unique across all sessions;
// it is the ledger's revocation key.
type Row struct {
	ID         int64
	UserID     int64
	DeviceName string
	Token      string
	UserAgent  string
	IP         net.IP
	CreatedAt  time.Time
	LastSeen   time.Time
}

// CapPolicy is the per-user capacity rule applied at session creation.
// A session counts as active when its last-seen timestamp is at or after
// FreshCutoff.
type CapPolicy struct {
	MaxSessions int
	FreshCutoff time.Time
}

// Store abstracts persistence for the session ledger.
//
// Implementations must make Create's capacity check and insert atomic per
// user: two concurrent logins for the same user must not both observe
// count < max and both insert.
type Store interface {
	// Create inserts a new session row, enforcing caps. Returns
	// ErrSessionLimit when the user already has MaxSessions fresh sessions.
	Create(ctx context.Context, now time.Time, userID int64, dev Device, token string, cap CapPolicy) (Row, error)

	// GetByToken loads the session whose stored token equals token.
	GetByToken(ctx context.Context, token string) (Row, error)

	// Touch advances last_seen to now. It is monotonic: last_seen never
	// moves backward.
	Touch(ctx context.Context, id int64, now time.Time) error

	// CountActive counts the user's sessions with last_seen at or after cutoff.
	CountActive(ctx context.Context, userID int64, cutoff time.Time) (int, error)

	// ListByUser returns the user's sessions, most recently seen first.
	ListByUser(ctx context.Context, userID int64) ([]Row, error)

	// DeleteByToken removes the matching session. Deleting an unknown token
	// is a no-op success (idempotent logout).
	DeleteByToken(ctx context.Context, token string) error

	// Delete removes the session only when owned by userID. Returns
	// ErrSessionNotFound when the session is absent or owned by another user.
	Delete(ctx context.Context, userID, id int64) error
}
