package attendance

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used by tests and by DB-less
// development mode. It cannot see the roster, so unknown students are
// not rejected here; the in-memory wiring accepts that gap.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Record
}

// NewMemoryStore constructs an empty in-memory attendance store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[int64]Record)}
}

// Mark inserts one attendance row, enforcing one mark per student per day.
func (s *MemoryStore) Mark(_ context.Context, in MarkInput) (Record, error) {
	date := NormalizeDate(in.Date)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rows {
		if r.StudentID == in.StudentID && r.Date.Equal(date) {
			return Record{}, ErrAlreadyMarked
		}
	}

	s.nextID++
	rec := Record{
		ID:        s.nextID,
		StudentID: in.StudentID,
		Date:      date,
		MarkedBy:  in.MarkedBy,
		CreatedAt: in.Now,
	}
	s.rows[rec.ID] = rec
	return rec, nil
}

// Unmark removes the student's row for that date.
func (s *MemoryStore) Unmark(_ context.Context, studentID int64, date time.Time) error {
	date = NormalizeDate(date)

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.rows {
		if r.StudentID == studentID && r.Date.Equal(date) {
			delete(s.rows, id)
			return nil
		}
	}
	return ErrNotFound
}

// ListByStudent returns the student's marks, newest date first.
func (s *MemoryStore) ListByStudent(_ context.Context, studentID int64) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, r := range s.rows {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// ListByDateRange returns marks within the inclusive date range.
func (s *MemoryStore) ListByDateRange(_ context.Context, from, to time.Time) ([]Record, error) {
	from, to = NormalizeDate(from), NormalizeDate(to)

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, r := range s.rows {
		if !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out, nil
}
