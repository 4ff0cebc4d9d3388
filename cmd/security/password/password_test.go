package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func testConfig() Config {
	// MinCost keeps the suite fast; production cost is set via app config.
	return Config{Cost: bcrypt.MinCost}
}

func TestHashAndVerify_OK(t *testing.T) {
	cfg := testConfig()

	h, err := cfg.Hash("pw123")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if h == "pw123" || !strings.HasPrefix(h, "$2") {
		t.Fatalf("unexpected encoded hash: %q", h)
	}

	if !cfg.Verify(h, "pw123") {
		t.Fatalf("expected match")
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	cfg := testConfig()

	h, err := cfg.Hash("pw123")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if cfg.Verify(h, "pw124") {
		t.Fatalf("expected mismatch")
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	cfg := testConfig()

	if cfg.Verify("not-a-bcrypt-hash", "whatever") {
		t.Fatalf("expected false for malformed hash")
	}
	if cfg.Verify("", "whatever") {
		t.Fatalf("expected false for empty hash")
	}
}

func TestHash_TruncatesAt72Bytes(t *testing.T) {
	cfg := testConfig()

	base := strings.Repeat("a", 72)

	h, err := cfg.Hash(base + "tail-one")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	// Only the first 72 bytes are significant.
	if !cfg.Verify(h, base+"tail-two") {
		t.Fatalf("expected match for identical 72-byte prefix")
	}
	if cfg.Verify(h, strings.Repeat("b", 72)) {
		t.Fatalf("expected mismatch for different prefix")
	}
}

func TestHash_EmptyPassword(t *testing.T) {
	cfg := testConfig()

	if _, err := cfg.Hash(""); err != ErrEmptyPassword {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	if err := DefaultConfig().ValidateConfig(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if err := (Config{Cost: 99}).ValidateConfig(); err != ErrConfig {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}
