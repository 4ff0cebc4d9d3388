package identity

import (
	"context"
	"time"
)

// User is Rollcall's security principal.
//
// Rows are immutable after creation except for password hash replacement
// and active-flag toggling.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
}

// CreateUserInput describes a new staff user. Username and Email are
// normalized by the store; PasswordHash must already be an encoded hash.
type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
	Now          time.Time
}

// Store is the credential persistence boundary.
type Store interface {
	// Create inserts a new user. Duplicate username/email yields ErrConflict.
	Create(ctx context.Context, in CreateUserInput) (User, error)

	// GetByID loads a user by numeric id.
	GetByID(ctx context.Context, id int64) (User, error)

	// GetByUsername loads a user by normalized username.
	GetByUsername(ctx context.Context, username string) (User, error)

	// UpdatePasswordHash replaces the stored hash for a username.
	UpdatePasswordHash(ctx context.Context, username, passwordHash string) error

	// SetActive toggles the active flag.
	SetActive(ctx context.Context, id int64, active bool) error
}
