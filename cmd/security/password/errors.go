package password

import "errors"

// Public, stable errors for callers.
var (
	ErrEmptyPassword = errors.New("empty password")
	ErrConfig        = errors.New("invalid password config")
)
