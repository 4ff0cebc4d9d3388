package session

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("ROLLCALL_SECRET_KEY", strings.Repeat("s", 32))

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.Issuer != "rollcall" {
		t.Fatalf("issuer = %q", cfg.Issuer)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("ttl = %v", cfg.TokenTTL)
	}
	if cfg.MaxDevicesPerUser != 2 {
		t.Fatalf("max devices = %d", cfg.MaxDevicesPerUser)
	}
	if cfg.FreshnessWindow != 24*time.Hour {
		t.Fatalf("freshness window = %v", cfg.FreshnessWindow)
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("ROLLCALL_SECRET_KEY", strings.Repeat("s", 32))
	t.Setenv("ROLLCALL_TOKEN_ISSUER", "rollcall-staging")
	t.Setenv("ROLLCALL_TOKEN_TTL", "45m")
	t.Setenv("ROLLCALL_MAX_DEVICES_PER_USER", "5")
	t.Setenv("ROLLCALL_SESSION_FRESHNESS_WINDOW", "2h")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.Issuer != "rollcall-staging" {
		t.Fatalf("issuer = %q", cfg.Issuer)
	}
	if cfg.TokenTTL != 45*time.Minute {
		t.Fatalf("ttl = %v", cfg.TokenTTL)
	}
	if cfg.MaxDevicesPerUser != 5 {
		t.Fatalf("max devices = %d", cfg.MaxDevicesPerUser)
	}
	if cfg.FreshnessWindow != 2*time.Hour {
		t.Fatalf("freshness window = %v", cfg.FreshnessWindow)
	}
}

func TestLoadConfigFromEnv_MissingSecret(t *testing.T) {
	t.Setenv("ROLLCALL_SECRET_KEY", "")
	if _, err := LoadConfigFromEnv(); err != ErrConfig {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestLoadConfigFromEnv_ShortSecret(t *testing.T) {
	t.Setenv("ROLLCALL_SECRET_KEY", "too-short")
	if _, err := LoadConfigFromEnv(); err != ErrConfig {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestLoadConfigFromEnv_BadValues(t *testing.T) {
	cases := map[string]string{
		"ROLLCALL_TOKEN_TTL":                "yesterday",
		"ROLLCALL_MAX_DEVICES_PER_USER":     "0",
		"ROLLCALL_SESSION_FRESHNESS_WINDOW": "-1h",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("ROLLCALL_SECRET_KEY", strings.Repeat("s", 32))
			t.Setenv(key, val)
			if _, err := LoadConfigFromEnv(); err != ErrConfig {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
		})
	}
}
