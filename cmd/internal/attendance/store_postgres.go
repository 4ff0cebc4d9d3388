package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must not close it.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed attendance store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("attendance: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

const attendanceColumns = `id, student_id, date, marked_by_user_id, created_at`

// Mark inserts one attendance row. The unique (student_id, date) index
// carries the no-double-marking rule.
func (s *PostgresStore) Mark(ctx context.Context, in MarkInput) (Record, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var rec Record
	err := s.pool.QueryRow(ctx, `
		INSERT INTO attendance (student_id, date, marked_by_user_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+attendanceColumns+`
	`, in.StudentID, NormalizeDate(in.Date), in.MarkedBy, now).Scan(
		&rec.ID, &rec.StudentID, &rec.Date, &rec.MarkedBy, &rec.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation on (student_id, date)
			return Record{}, ErrAlreadyMarked
		case "23503": // foreign_key_violation: unknown student
			return Record{}, ErrNotFound
		}
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Unmark removes the student's row for that date.
func (s *PostgresStore) Unmark(ctx context.Context, studentID int64, date time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM attendance
		WHERE student_id = $1 AND date = $2
	`, studentID, NormalizeDate(date))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByStudent returns the student's marks, newest date first.
func (s *PostgresStore) ListByStudent(ctx context.Context, studentID int64) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendance
		WHERE student_id = $1
		ORDER BY date DESC, id DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListByDateRange returns marks within the inclusive date range.
func (s *PostgresStore) ListByDateRange(ctx context.Context, from, to time.Time) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendance
		WHERE date >= $1 AND date <= $2
		ORDER BY date, student_id
	`, NormalizeDate(from), NormalizeDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows pgxRows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.Date, &rec.MarkedBy, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
