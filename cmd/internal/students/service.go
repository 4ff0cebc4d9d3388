package students

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rollcall/cmd/security/fieldcrypt"
)

// Student is the decrypted roster entry handed to callers.
type Student struct {
	ID            int64
	Name          string
	Age           int
	Level         string
	PricePerClass float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StudentInput carries the caller-supplied fields for create and update.
type StudentInput struct {
	Name          string
	Age           int
	Level         string
	PricePerClass float64
}

// Service seals and unseals the age field around the Store.
type Service struct {
	store  Store
	cipher *fieldcrypt.Cipher
}

// NewService constructs a roster Service.
func NewService(store Store, cipher *fieldcrypt.Cipher) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("students: nil store")
	}
	if cipher == nil {
		return nil, fmt.Errorf("students: nil cipher")
	}
	return &Service{store: store, cipher: cipher}, nil
}

func validate(in StudentInput) (StudentInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Level = strings.TrimSpace(in.Level)
	if in.Name == "" {
		return StudentInput{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Age <= 0 || in.Age > 150 {
		return StudentInput{}, fmt.Errorf("%w: age out of range", ErrInvalidInput)
	}
	if in.PricePerClass <= 0 {
		return StudentInput{}, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	return in, nil
}

// Create validates, seals the age and inserts a new student.
func (s *Service) Create(ctx context.Context, now time.Time, in StudentInput) (Student, error) {
	in, err := validate(in)
	if err != nil {
		return Student{}, err
	}
	sealed, err := s.cipher.EncryptInt(in.Age)
	if err != nil {
		return Student{}, err
	}
	rec, err := s.store.Create(ctx, CreateInput{
		Name:          in.Name,
		AgeCiphertext: sealed,
		Level:         in.Level,
		PricePerClass: in.PricePerClass,
		Now:           now,
	})
	if err != nil {
		return Student{}, err
	}
	return s.unseal(rec)
}

// Get loads and unseals one student.
func (s *Service) Get(ctx context.Context, id int64) (Student, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	return s.unseal(rec)
}

// List loads and unseals the whole roster. A single undecryptable row fails
// the call; key rotation without re-encryption is a deployment error that
// must surface loudly.
func (s *Service) List(ctx context.Context) ([]Student, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Student, 0, len(recs))
	for _, rec := range recs {
		st, err := s.unseal(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// Update validates, reseals the age and replaces the row.
func (s *Service) Update(ctx context.Context, now time.Time, id int64, in StudentInput) (Student, error) {
	in, err := validate(in)
	if err != nil {
		return Student{}, err
	}
	sealed, err := s.cipher.EncryptInt(in.Age)
	if err != nil {
		return Student{}, err
	}
	rec, err := s.store.Update(ctx, id, UpdateInput{
		Name:          in.Name,
		AgeCiphertext: sealed,
		Level:         in.Level,
		PricePerClass: in.PricePerClass,
		Now:           now,
	})
	if err != nil {
		return Student{}, err
	}
	return s.unseal(rec)
}

// Delete removes the student.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) unseal(rec Record) (Student, error) {
	age, err := s.cipher.DecryptInt(rec.AgeCiphertext)
	if err != nil {
		return Student{}, fmt.Errorf("student %d: %w", rec.ID, err)
	}
	return Student{
		ID:            rec.ID,
		Name:          rec.Name,
		Age:           age,
		Level:         rec.Level,
		PricePerClass: rec.PricePerClass,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}, nil
}
