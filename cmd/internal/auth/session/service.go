package session

import (
	"context"
	"errors"
	"time"

	"rollcall/cmd/identity"
	"rollcall/cmd/security/password"
)

// Service implements the high-level authentication operations for Rollcall.
//
// It verifies credentials, issues capacity-checked sessions, validates
// bearer tokens against both signature and ledger state, and supports
// per-session enumeration and revocation.
type Service struct {
	cfg    Config
	users  identity.Store
	store  Store
	tokens TokenManager
	hasher password.Config

	// dummyHash absorbs a bcrypt verify when the user does not exist, so a
	// login miss costs the same as a hash mismatch.
	dummyHash string
}

// Issued is the result of a successful login.
type Issued struct {
	Token     string
	ExpiresAt time.Time
	Session   Row
	User      identity.User
}

// NewService constructs a Service with the provided configuration and
// collaborators.
func NewService(cfg Config, users identity.Store, store Store, tokens TokenManager, hasher password.Config) *Service {
	s := &Service{
		cfg:    cfg,
		users:  users,
		store:  store,
		tokens: tokens,
		hasher: hasher,
	}
	if h, err := hasher.Hash("dummy-password-for-timing-only"); err == nil {
		s.dummyHash = h
	}
	return s
}

// Login verifies credentials and creates a capacity-checked session.
//
// Failure modes visible to callers: ErrInvalidCredentials for a bad
// username or password (undifferentiated), ErrSessionLimit when the user's
// device cap is reached while existing sessions are still fresh. Store
// failures propagate unchanged.
func (s *Service) Login(ctx context.Context, now time.Time, username, plainPassword string, dev Device) (Issued, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if identity.IsNotFound(err) {
			if s.dummyHash != "" {
				_ = s.hasher.Verify(s.dummyHash, plainPassword)
			}
			return Issued{}, ErrInvalidCredentials
		}
		return Issued{}, err
	}

	if !user.Active || !s.hasher.Verify(user.PasswordHash, plainPassword) {
		return Issued{}, ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(user, now)
	if err != nil {
		return Issued{}, err
	}

	row, err := s.store.Create(ctx, now, user.ID, dev, token, CapPolicy{
		MaxSessions: s.cfg.MaxDevicesPerUser,
		FreshCutoff: now.Add(-s.cfg.FreshnessWindow),
	})
	if err != nil {
		return Issued{}, err
	}

	return Issued{Token: token, ExpiresAt: exp, Session: row, User: user}, nil
}

// Logout deletes the session bound to token. Unknown tokens are a no-op
// success so repeated logouts stay idempotent.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteByToken(ctx, token)
}

// Authenticate runs the per-request guard chain and yields the identity:
// verify signature/expiry, resolve the subject, confirm the ledger still
// holds the token, then advance last_seen.
//
// Every auth failure, whatever the step, is ErrUnauthenticated. Store I/O
// failures propagate unchanged so callers can distinguish infrastructure
// trouble from rejection.
func (s *Service) Authenticate(ctx context.Context, now time.Time, token string) (identity.User, error) {
	if token == "" {
		return identity.User{}, ErrUnauthenticated
	}

	claims, err := s.tokens.Verify(token, now)
	if err != nil {
		return identity.User{}, ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			return identity.User{}, ErrUnauthenticated
		}
		return identity.User{}, err
	}
	if !user.Active {
		return identity.User{}, ErrUnauthenticated
	}

	// Ledger check makes logout and revocation effective while the token
	// signature is still valid.
	row, err := s.store.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return identity.User{}, ErrUnauthenticated
		}
		return identity.User{}, err
	}
	if row.UserID != user.ID {
		return identity.User{}, ErrUnauthenticated
	}

	if err := s.store.Touch(ctx, row.ID, now); err != nil {
		return identity.User{}, err
	}

	return user, nil
}

// AuthenticateOptional is the non-failing variant of Authenticate for
// contexts that want best-effort identity. It never fails the surrounding
// request: any rejection or infrastructure error yields (zero, false).
func (s *Service) AuthenticateOptional(ctx context.Context, now time.Time, token string) (identity.User, bool) {
	user, err := s.Authenticate(ctx, now, token)
	if err != nil {
		return identity.User{}, false
	}
	return user, true
}

// ListSessions returns the user's sessions, most recently seen first.
func (s *Service) ListSessions(ctx context.Context, userID int64) ([]Row, error) {
	return s.store.ListByUser(ctx, userID)
}

// RevokeSession deletes one of the caller's own sessions by id. A session
// that is absent or owned by someone else reports ErrSessionNotFound; the
// two are indistinguishable on purpose.
func (s *Service) RevokeSession(ctx context.Context, userID, sessionID int64) error {
	return s.store.Delete(ctx, userID, sessionID)
}

// CountActive reports how many of the user's sessions are fresh as of now.
func (s *Service) CountActive(ctx context.Context, now time.Time, userID int64) (int, error) {
	return s.store.CountActive(ctx, userID, now.Add(-s.cfg.FreshnessWindow))
}
