package students

import (
	"context"
	"time"
)

// Record mirrors a students table row. Age is present only in sealed form.
type Record struct {
	ID            int64
	Name          string
	AgeCiphertext []byte
	Level         string
	PricePerClass float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateInput describes a new roster entry. AgeCiphertext must already be
// sealed by the caller.
type CreateInput struct {
	Name          string
	AgeCiphertext []byte
	Level         string
	PricePerClass float64
	Now           time.Time
}

// UpdateInput carries replacement values for an existing row.
type UpdateInput struct {
	Name          string
	AgeCiphertext []byte
	Level         string
	PricePerClass float64
	Now           time.Time
}

// Store abstracts roster persistence.
type Store interface {
	Create(ctx context.Context, in CreateInput) (Record, error)

	// GetByID loads one student. Missing rows yield ErrNotFound.
	GetByID(ctx context.Context, id int64) (Record, error)

	// List returns all students ordered by name, then id.
	List(ctx context.Context) ([]Record, error)

	// Update replaces the row's mutable fields. Missing rows yield ErrNotFound.
	Update(ctx context.Context, id int64, in UpdateInput) (Record, error)

	// Delete removes the student and cascades to attendance records.
	// Missing rows yield ErrNotFound.
	Delete(ctx context.Context, id int64) error
}
