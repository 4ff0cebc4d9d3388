package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must not close it.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed user store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

const userColumns = `id, username, email, password_hash, is_active, created_at`

// Create inserts a new user row.
func (s *PostgresStore) Create(ctx context.Context, in CreateUserInput) (User, error) {
	username := NormalizeUsername(in.Username)
	email := NormalizeEmail(in.Email)
	if username == "" || email == "" || strings.TrimSpace(in.PasswordHash) == "" {
		return User{}, ErrInvalidInput
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var u User
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, is_active, created_at)
		VALUES ($1, $2, $3, TRUE, $4)
		RETURNING `+userColumns+`
	`, username, email, in.PasswordHash, now).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Active, &u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return User{}, ErrConflict
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetByID loads a user by numeric id.
func (s *PostgresStore) GetByID(ctx context.Context, id int64) (User, error) {
	return s.get(ctx, `WHERE id = $1`, id)
}

// GetByUsername loads a user by normalized username.
func (s *PostgresStore) GetByUsername(ctx context.Context, username string) (User, error) {
	return s.get(ctx, `WHERE username = $1`, NormalizeUsername(username))
}

func (s *PostgresStore) get(ctx context.Context, where string, arg any) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		`+where+`
	`, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Active, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// UpdatePasswordHash replaces the stored hash for a username.
func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, username, passwordHash string) error {
	if strings.TrimSpace(passwordHash) == "" {
		return ErrInvalidInput
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $2
		WHERE username = $1
	`, NormalizeUsername(username), passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive toggles the active flag.
func (s *PostgresStore) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET is_active = $2
		WHERE id = $1
	`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
