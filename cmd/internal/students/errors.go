package students

import "errors"

var (
	// ErrNotFound is returned when a referenced student does not exist.
	ErrNotFound = errors.New("student not found")

	// ErrInvalidInput is returned for rejected field values.
	ErrInvalidInput = errors.New("invalid student input")
)
