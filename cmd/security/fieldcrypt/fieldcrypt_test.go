package fieldcrypt

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return key
}

func TestRoundTrip(t *testing.T) {
	c, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, v := range []int{0, 1, 25, -3, 120, 1<<31 - 1} {
		ct, err := c.EncryptInt(v)
		if err != nil {
			t.Fatalf("EncryptInt(%d): %v", v, err)
		}
		got, err := c.DecryptInt(ct)
		if err != nil {
			t.Fatalf("DecryptInt(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip mismatch: got %d want %d", got, v)
		}
	}
}

func TestEncrypt_NonDeterministic(t *testing.T) {
	c, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a, err := c.EncryptInt(25)
	if err != nil {
		t.Fatalf("EncryptInt: %v", err)
	}
	b, err := c.EncryptInt(25)
	if err != nil {
		t.Fatalf("EncryptInt: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two encryptions of the same value must not be byte-equal")
	}
}

func TestDecrypt_Tampered(t *testing.T) {
	c, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ct, err := c.EncryptInt(25)
	if err != nil {
		t.Fatalf("EncryptInt: %v", err)
	}

	for i := range ct {
		mangled := append([]byte(nil), ct...)
		mangled[i] ^= 0x01
		if _, err := c.DecryptInt(mangled); err != ErrDecrypt {
			t.Fatalf("tamper at byte %d: expected ErrDecrypt, got %v", i, err)
		}
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	c1, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c2, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ct, err := c1.EncryptInt(42)
	if err != nil {
		t.Fatalf("EncryptInt: %v", err)
	}
	if _, err := c2.DecryptInt(ct); err != ErrDecrypt {
		t.Fatalf("expected ErrDecrypt under different key, got %v", err)
	}
}

func TestDecrypt_Malformed(t *testing.T) {
	c, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, ct := range [][]byte{nil, {}, {0x01}, make([]byte, 12)} {
		if _, err := c.DecryptInt(ct); err != ErrDecrypt {
			t.Fatalf("expected ErrDecrypt for %d-byte input, got %v", len(ct), err)
		}
	}
}

func TestNew_KeySizes(t *testing.T) {
	for _, n := range []int{16, 24, 32} {
		if _, err := New(make([]byte, n)); err != nil {
			t.Fatalf("New with %d-byte key: %v", n, err)
		}
	}
	for _, n := range []int{0, 8, 31, 64} {
		if _, err := New(make([]byte, n)); err != ErrKeySize {
			t.Fatalf("New with %d-byte key: expected ErrKeySize, got %v", n, err)
		}
	}
}
