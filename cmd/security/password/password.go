package password

import (
	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past 72 bytes. We truncate explicitly because
// x/crypto/bcrypt rejects longer inputs instead of truncating them.
const maxSignificantBytes = 72

// Hash hashes a password with bcrypt at the configured cost and returns the
// encoded hash (salt embedded). The plaintext is never logged or retained.
func (c Config) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	if err := c.ValidateConfig(); err != nil {
		return "", err
	}

	h, err := bcrypt.GenerateFromPassword(truncate(plain), c.Cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify reports whether candidate matches the stored encoded hash.
// A malformed or unsupported stored hash yields false, never an error:
// the caller must not be able to distinguish "bad password" from
// "bad stored hash".
func (c Config) Verify(encodedHash, candidate string) bool {
	if encodedHash == "" || candidate == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), truncate(candidate)) == nil
}

func truncate(plain string) []byte {
	b := []byte(plain)
	if len(b) > maxSignificantBytes {
		b = b[:maxSignificantBytes]
	}
	return b
}
