package fieldcrypt

import "errors"

var (
	// ErrDecrypt is returned when a ciphertext is malformed, was produced
	// under a different key, or fails integrity verification. The cases are
	// deliberately not distinguished.
	ErrDecrypt = errors.New("field decryption failed")

	// ErrKeySize is returned when the supplied key is not a valid AES key
	// length (16, 24 or 32 bytes).
	ErrKeySize = errors.New("invalid field key size")
)
