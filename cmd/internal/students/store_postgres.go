package students

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must not close it.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed roster store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("students: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

const studentColumns = `id, name, age_ciphertext, level, price_per_class, created_at, updated_at`

// Create inserts a new student row.
func (s *PostgresStore) Create(ctx context.Context, in CreateInput) (Record, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var rec Record
	err := s.pool.QueryRow(ctx, `
		INSERT INTO students (name, age_ciphertext, level, price_per_class, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING `+studentColumns+`
	`, in.Name, in.AgeCiphertext, in.Level, in.PricePerClass, now).Scan(
		&rec.ID, &rec.Name, &rec.AgeCiphertext, &rec.Level, &rec.PricePerClass, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// GetByID loads one student.
func (s *PostgresStore) GetByID(ctx context.Context, id int64) (Record, error) {
	var rec Record
	err := s.pool.QueryRow(ctx, `
		SELECT `+studentColumns+`
		FROM students
		WHERE id = $1
	`, id).Scan(
		&rec.ID, &rec.Name, &rec.AgeCiphertext, &rec.Level, &rec.PricePerClass, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// List returns all students ordered by name, then id.
func (s *PostgresStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+studentColumns+`
		FROM students
		ORDER BY name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.Name, &rec.AgeCiphertext, &rec.Level, &rec.PricePerClass, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Update replaces the row's mutable fields.
func (s *PostgresStore) Update(ctx context.Context, id int64, in UpdateInput) (Record, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var rec Record
	err := s.pool.QueryRow(ctx, `
		UPDATE students
		SET name = $2, age_ciphertext = $3, level = $4, price_per_class = $5, updated_at = $6
		WHERE id = $1
		RETURNING `+studentColumns+`
	`, id, in.Name, in.AgeCiphertext, in.Level, in.PricePerClass, now).Scan(
		&rec.ID, &rec.Name, &rec.AgeCiphertext, &rec.Level, &rec.PricePerClass, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Delete removes the student; attendance rows cascade at the schema level.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM students
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
