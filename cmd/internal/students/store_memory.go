package students

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and by DB-less
// development mode.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Record
}

// NewMemoryStore constructs an empty in-memory roster store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[int64]Record)}
}

// Create inserts a new student row.
func (s *MemoryStore) Create(_ context.Context, in CreateInput) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec := Record{
		ID:            s.nextID,
		Name:          in.Name,
		AgeCiphertext: append([]byte(nil), in.AgeCiphertext...),
		Level:         in.Level,
		PricePerClass: in.PricePerClass,
		CreatedAt:     in.Now,
		UpdatedAt:     in.Now,
	}
	s.rows[rec.ID] = rec
	return rec, nil
}

// GetByID loads one student.
func (s *MemoryStore) GetByID(_ context.Context, id int64) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rows[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// List returns all students ordered by name, then id.
func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0, len(s.rows))
	for _, rec := range s.rows {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Update replaces the row's mutable fields.
func (s *MemoryStore) Update(_ context.Context, id int64, in UpdateInput) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rows[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.Name = in.Name
	rec.AgeCiphertext = append([]byte(nil), in.AgeCiphertext...)
	rec.Level = in.Level
	rec.PricePerClass = in.PricePerClass
	rec.UpdatedAt = in.Now
	s.rows[id] = rec
	return rec, nil
}

// Delete removes the student.
func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return ErrNotFound
	}
	delete(s.rows, id)
	return nil
}
