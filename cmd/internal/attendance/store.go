package attendance

import (
	"context"
	"time"
)

// Record mirrors an attendance table row. Date carries only the calendar
// day; its time-of-day component is always midnight UTC.
type Record struct {
	ID        int64
	StudentID int64
	Date      time.Time
	MarkedBy  int64
	CreatedAt time.Time
}

// MarkInput describes a new attendance mark.
type MarkInput struct {
	StudentID int64
	Date      time.Time
	MarkedBy  int64
	Now       time.Time
}

// Store abstracts attendance persistence.
type Store interface {
	// Mark inserts one attendance row. A duplicate student/date pair
	// yields ErrAlreadyMarked; an unknown student yields ErrNotFound.
	Mark(ctx context.Context, in MarkInput) (Record, error)

	// Unmark removes the student's row for that date. Missing rows yield
	// ErrNotFound.
	Unmark(ctx context.Context, studentID int64, date time.Time) error

	// ListByStudent returns the student's marks, newest date first.
	ListByStudent(ctx context.Context, studentID int64) ([]Record, error)

	// ListByDateRange returns marks with from <= date <= to, ordered by
	// date then student id.
	ListByDateRange(ctx context.Context, from, to time.Time) ([]Record, error)
}

// NormalizeDate strips the time-of-day component, keeping the calendar
// day in UTC.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
