package attendance

import "errors"

var (
	// ErrAlreadyMarked is returned when the student already has an
	// attendance row for that date.
	ErrAlreadyMarked = errors.New("attendance already marked")

	// ErrNotFound is returned when the referenced attendance row or
	// student does not exist.
	ErrNotFound = errors.New("attendance record not found")

	// ErrInvalidInput is returned for rejected field values.
	ErrInvalidInput = errors.New("invalid attendance input")
)
