package password

import "golang.org/x/crypto/bcrypt"

// Config defines the bcrypt work factor used when hashing new passwords.
//
// Verification reads the cost from the stored hash itself, so raising the
// cost only affects newly hashed passwords.
type Config struct {
	// Cost is the bcrypt cost factor (log2 of the iteration count).
	Cost int
}

// DefaultConfig returns the production default work factor.
func DefaultConfig() Config {
	return Config{Cost: 12}
}

// ValidateConfig reports ErrConfig when the cost is outside bcrypt's
// supported range.
func (c Config) ValidateConfig() error {
	if c.Cost < bcrypt.MinCost || c.Cost > bcrypt.MaxCost {
		return ErrConfig
	}
	return nil
}
