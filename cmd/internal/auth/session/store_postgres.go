package session

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed session ledger.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// COALESCE keeps scanning simple: user_agent is nullable in the schema but
// plain string in Row.
const sessionColumns = `id, user_id, device_name, token, COALESCE(user_agent, ''), ip, created_at, last_seen`

// Create inserts a new session row after a capacity check.
//
// The check and insert run in one transaction that first locks the owning
// user row, serializing concurrent logins for the same user so the device
// cap cannot be exceeded by a read-check race.
func (s *PostgresStore) Create(ctx context.Context, now time.Time, userID int64, dev Device, token string, cap CapPolicy) (Row, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Row{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var lockedID int64
	err = tx.QueryRow(ctx, `
		SELECT id FROM users WHERE id = $1 FOR UPDATE
	`, userID).Scan(&lockedID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Row{}, ErrSessionNotFound
	}
	if err != nil {
		return Row{}, err
	}

	if cap.MaxSessions > 0 {
		var active int
		err = tx.QueryRow(ctx, `
			SELECT count(*) FROM sessions
			WHERE user_id = $1 AND last_seen >= $2
		`, userID, cap.FreshCutoff).Scan(&active)
		if err != nil {
			return Row{}, err
		}
		if active >= cap.MaxSessions {
			return Row{}, ErrSessionLimit
		}
	}

	var ip net.IP
	if dev.IP != nil {
		ip = dev.IP
	}

	var row Row
	err = tx.QueryRow(ctx, `
		INSERT INTO sessions (user_id, device_name, token, user_agent, ip, created_at, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING `+sessionColumns+`
	`, userID, dev.Name, token, nullIfEmpty(dev.UserAgent), ip, now).Scan(
		&row.ID, &row.UserID, &row.DeviceName, &row.Token,
		&row.UserAgent, &row.IP, &row.CreatedAt, &row.LastSeen,
	)
	if err != nil {
		return Row{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Row{}, err
	}
	return row, nil
}

// GetByToken loads a session row by its stored bearer token.
func (s *PostgresStore) GetByToken(ctx context.Context, token string) (Row, error) {
	var row Row
	err := s.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE token = $1
	`, token).Scan(
		&row.ID, &row.UserID, &row.DeviceName, &row.Token,
		&row.UserAgent, &row.IP, &row.CreatedAt, &row.LastSeen,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Row{}, ErrSessionNotFound
	}
	if err != nil {
		return Row{}, err
	}
	return row, nil
}

// Touch advances last_seen. GREATEST keeps the column monotonic when
// concurrent requests on the same session commit out of order.
func (s *PostgresStore) Touch(ctx context.Context, id int64, now time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sessions
		SET last_seen = GREATEST(last_seen, $2)
		WHERE id = $1
	`, id, now)
	return err
}

// CountActive counts sessions with last_seen at or after cutoff.
func (s *PostgresStore) CountActive(ctx context.Context, userID int64, cutoff time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM sessions
		WHERE user_id = $1 AND last_seen >= $2
	`, userID, cutoff).Scan(&n)
	return n, err
}

// ListByUser returns all of the user's sessions, most recently seen first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID int64) ([]Row, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE user_id = $1
		ORDER BY last_seen DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(
			&row.ID, &row.UserID, &row.DeviceName, &row.Token,
			&row.UserAgent, &row.IP, &row.CreatedAt, &row.LastSeen,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// DeleteByToken removes the matching session (idempotent).
func (s *PostgresStore) DeleteByToken(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM sessions WHERE token = $1
	`, token)
	return err
}

// Delete removes a session scoped to its owner.
func (s *PostgresStore) Delete(ctx context.Context, userID, id int64) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM sessions WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
