package identity

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and by DB-less
// development mode.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]User
}

// NewMemoryStore constructs an empty in-memory user store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[int64]User)}
}

// Create inserts a new user, enforcing username/email uniqueness.
func (s *MemoryStore) Create(_ context.Context, in CreateUserInput) (User, error) {
	username := NormalizeUsername(in.Username)
	email := NormalizeEmail(in.Email)
	if username == "" || in.PasswordHash == "" {
		return User{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.byID {
		if u.Username == username || (email != "" && u.Email == email) {
			return User{}, ErrConflict
		}
	}

	s.nextID++
	u := User{
		ID:           s.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: in.PasswordHash,
		Active:       true,
		CreatedAt:    in.Now,
	}
	s.byID[u.ID] = u
	return u, nil
}

// GetByID loads a user by numeric id.
func (s *MemoryStore) GetByID(_ context.Context, id int64) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// GetByUsername loads a user by normalized username.
func (s *MemoryStore) GetByUsername(_ context.Context, username string) (User, error) {
	username = NormalizeUsername(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// UpdatePasswordHash replaces the stored hash for a username.
func (s *MemoryStore) UpdatePasswordHash(_ context.Context, username, passwordHash string) error {
	username = NormalizeUsername(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, u := range s.byID {
		if u.Username == username {
			u.PasswordHash = passwordHash
			s.byID[id] = u
			return nil
		}
	}
	return ErrNotFound
}

// SetActive toggles the active flag.
func (s *MemoryStore) SetActive(_ context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.Active = active
	s.byID[id] = u
	return nil
}
