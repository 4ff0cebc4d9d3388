package fieldcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"
	"strconv"
)

// Cipher seals and opens field values under a process-lifetime key.
type Cipher struct {
	aead cipher.AEAD
}

// New constructs a Cipher from a raw AES key (16, 24 or 32 bytes).
func New(key []byte) (*Cipher, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, ErrKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// EncryptInt seals an integer field value. The plaintext is the decimal
// string form of v, matching what DecryptInt expects.
func (c *Cipher) EncryptInt(v int) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	sealed := c.aead.Seal(nil, nonce, []byte(strconv.Itoa(v)), nil)
	return append(nonce, sealed...), nil
}

// DecryptInt opens a ciphertext produced by EncryptInt and parses the
// integer. Any tampering, truncation or key mismatch yields ErrDecrypt;
// a wrong integer is never returned silently.
func (c *Cipher) DecryptInt(ciphertext []byte) (int, error) {
	ns := c.aead.NonceSize()
	if len(ciphertext) < ns+c.aead.Overhead() {
		return 0, ErrDecrypt
	}

	plain, err := c.aead.Open(nil, ciphertext[:ns], ciphertext[ns:], nil)
	if err != nil {
		return 0, ErrDecrypt
	}

	v, err := strconv.Atoi(string(plain))
	if err != nil {
		return 0, ErrDecrypt
	}
	return v, nil
}
