package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used by tests and by DB-less development
// mode. A single mutex covers every operation, which also gives Create the
// required per-user check-then-insert atomicity.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Row
}

// NewMemoryStore constructs an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[int64]Row)}
}

// Create inserts a new session row, enforcing the cap under the store lock.
func (s *MemoryStore) Create(_ context.Context, now time.Time, userID int64, dev Device, token string, cap CapPolicy) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cap.MaxSessions > 0 {
		active := 0
		for _, r := range s.rows {
			if r.UserID == userID && !r.LastSeen.Before(cap.FreshCutoff) {
				active++
			}
		}
		if active >= cap.MaxSessions {
			return Row{}, ErrSessionLimit
		}
	}

	s.nextID++
	row := Row{
		ID:         s.nextID,
		UserID:     userID,
		DeviceName: dev.Name,
		Token:      token,
		UserAgent:  dev.UserAgent,
		IP:         dev.IP,
		CreatedAt:  now,
		LastSeen:   now,
	}
	s.rows[row.ID] = row
	return row, nil
}

// GetByToken loads a session row by its stored bearer token.
func (s *MemoryStore) GetByToken(_ context.Context, token string) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rows {
		if r.Token == token {
			return r, nil
		}
	}
	return Row{}, ErrSessionNotFound
}

// Touch advances last_seen monotonically.
func (s *MemoryStore) Touch(_ context.Context, id int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[id]
	if !ok {
		return nil
	}
	if now.After(r.LastSeen) {
		r.LastSeen = now
		s.rows[id] = r
	}
	return nil
}

// CountActive counts sessions with last_seen at or after cutoff.
func (s *MemoryStore) CountActive(_ context.Context, userID int64, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.rows {
		if r.UserID == userID && !r.LastSeen.Before(cutoff) {
			n++
		}
	}
	return n, nil
}

// ListByUser returns the user's sessions, most recently seen first.
func (s *MemoryStore) ListByUser(_ context.Context, userID int64) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Row
	for _, r := range s.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].LastSeen.After(out[j].LastSeen)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// DeleteByToken removes the matching session (idempotent).
func (s *MemoryStore) DeleteByToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.rows {
		if r.Token == token {
			delete(s.rows, id)
			return nil
		}
	}
	return nil
}

// Delete removes a session scoped to its owner.
func (s *MemoryStore) Delete(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[id]
	if !ok || r.UserID != userID {
		return ErrSessionNotFound
	}
	delete(s.rows, id)
	return nil
}
