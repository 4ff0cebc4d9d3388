package app

import (
	"encoding/hex"
	"log/slog"
	"testing"
)

func TestAgeKey_RequiredWithDatabase(t *testing.T) {
	log := slog.New(slog.DiscardHandler)

	_, err := ageKey(Config{DatabaseURL: "postgres://localhost/rollcall"}, log)
	if err == nil {
		t.Fatalf("expected error when database is configured without a key")
	}
}

func TestAgeKey_EphemeralInDevMode(t *testing.T) {
	log := slog.New(slog.DiscardHandler)

	key, err := ageKey(Config{}, log)
	if err != nil {
		t.Fatalf("ageKey: %v", err)
	}
	if len(key) != 32 {
		t.Fatalf("ephemeral key length=%d want=32", len(key))
	}

	other, err := ageKey(Config{}, log)
	if err != nil {
		t.Fatalf("ageKey: %v", err)
	}
	if string(key) == string(other) {
		t.Fatalf("ephemeral keys must differ between calls")
	}
}

func TestAgeKey_DecodesHex(t *testing.T) {
	log := slog.New(slog.DiscardHandler)

	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}
	key, err := ageKey(Config{AgeKeyHex: hex.EncodeToString(raw)}, log)
	if err != nil {
		t.Fatalf("ageKey: %v", err)
	}
	if string(key) != string(raw) {
		t.Fatalf("decoded key mismatch")
	}
}

func TestAgeKey_RejectsBadKeys(t *testing.T) {
	log := slog.New(slog.DiscardHandler)

	for _, bad := range []string{"not-hex", "abcd", hex.EncodeToString(make([]byte, 20))} {
		if _, err := ageKey(Config{AgeKeyHex: bad}, log); err == nil {
			t.Fatalf("expected error for key %q", bad)
		}
	}
}
