package authapi

import (
	"os"
	"strconv"
	"strings"
)

// Config controls auth API transport behavior.
type Config struct {
	// CookieName is the session cookie used by the web UI.
	CookieName string

	// CookieSecure marks the session cookie Secure. Off by default so
	// local development over plain HTTP keeps working.
	CookieSecure bool

	// TrustProxy enables X-Forwarded-For / X-Real-IP resolution for the
	// client address recorded on sessions.
	TrustProxy bool

	// MaxBodyBytes bounds request body size for JSON endpoints.
	MaxBodyBytes int64
}

// LoadConfigFromEnv loads auth API config from environment variables with
// safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		CookieName:   envString("ROLLCALL_AUTH_COOKIE_NAME", "session"),
		CookieSecure: envBool("ROLLCALL_AUTH_COOKIE_SECURE", false),
		TrustProxy:   envBool("ROLLCALL_AUTH_TRUST_PROXY", false),
		MaxBodyBytes: envInt64("ROLLCALL_AUTH_MAX_BODY_BYTES", 1<<20), // 1 MiB
	}

	if cfg.CookieName == "" {
		cfg.CookieName = "session"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	return cfg
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
