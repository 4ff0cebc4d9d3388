package session

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config defines all runtime configuration for the authentication core.
//
// It is intentionally explicit and environment-driven so deployments can
// tune security parameters without code changes; there is no ambient global
// settings object.
type Config struct {
	// Issuer is the value set in the "iss" claim of access tokens.
	Issuer string

	// SecretKey signs bearer tokens (HMAC). Required, minimum 32 bytes.
	SecretKey []byte

	// TokenTTL is the lifetime embedded in each issued token.
	TokenTTL time.Duration

	// MaxDevicesPerUser caps concurrently active sessions per user.
	// A login that would exceed it is rejected, never auto-evicted.
	MaxDevicesPerUser int

	// FreshnessWindow bounds how far back a session's last-seen timestamp
	// may lie for the session to count toward the device cap.
	FreshnessWindow time.Duration
}

// DefaultConfig returns defaults matching the small-business deployment
// profile: day-long tokens, two shared devices per staff account.
func DefaultConfig() Config {
	return Config{
		Issuer:            "rollcall",
		TokenTTL:          24 * time.Hour,
		MaxDevicesPerUser: 2,
		FreshnessWindow:   24 * time.Hour,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - ROLLCALL_SECRET_KEY (min 32 bytes)
//
// Optional:
//   - ROLLCALL_TOKEN_ISSUER
//   - ROLLCALL_TOKEN_TTL
//   - ROLLCALL_MAX_DEVICES_PER_USER
//   - ROLLCALL_SESSION_FRESHNESS_WINDOW
//
// Returns ErrConfig if configuration is invalid. Silently falling back to a
// weak or absent signing secret is unacceptable, so the secret is validated
// here rather than at first use.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("ROLLCALL_TOKEN_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("ROLLCALL_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.TokenTTL = d
	}

	if v := os.Getenv("ROLLCALL_MAX_DEVICES_PER_USER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, ErrConfig
		}
		cfg.MaxDevicesPerUser = n
	}

	if v := os.Getenv("ROLLCALL_SESSION_FRESHNESS_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.FreshnessWindow = d
	}

	secret := strings.TrimSpace(os.Getenv("ROLLCALL_SECRET_KEY"))
	if len(secret) < 32 {
		return Config{}, ErrConfig
	}
	cfg.SecretKey = []byte(secret)

	return cfg, nil
}
