package app

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// ageKey resolves the AES key that seals the student age column.
//
// Fail-fast is intentional: a Postgres-backed deployment with a missing
// or malformed key must refuse to start rather than write rows a future
// restart cannot read. DB-less dev mode gets an ephemeral key because
// its data dies with the process anyway.
func ageKey(cfg Config, log Logger) ([]byte, error) {
	if cfg.AgeKeyHex == "" {
		if cfg.DatabaseURL != "" {
			return nil, errors.New("security policy: ROLLCALL_AGE_KEY is required when a database is configured")
		}
		log.Warn("security.age_key.ephemeral", "reason", "dev mode without ROLLCALL_AGE_KEY")
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
		return key, nil
	}

	key, err := hex.DecodeString(cfg.AgeKeyHex)
	if err != nil {
		return nil, fmt.Errorf("security policy: ROLLCALL_AGE_KEY is not valid hex: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	default:
		return nil, fmt.Errorf("security policy: ROLLCALL_AGE_KEY must decode to 16, 24 or 32 bytes, got %d", len(key))
	}
}
