package cryptox

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// MinSecretSize is the shortest signing secret accepted outside development.
const MinSecretSize = 32

var ErrEmptySecret = errors.New("cryptox: empty secret")

// DeriveKey stretches secret into a size byte key bound to purpose with
// HKDF-SHA256. The same secret and purpose always yield the same key, so every
// instance sharing a secret agrees on it.
func DeriveKey(secret []byte, purpose string, size int) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if size <= 0 {
		return nil, fmt.Errorf("cryptox: key size must be positive, got %d", size)
	}

	key := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(purpose)), key); err != nil {
		return nil, fmt.Errorf("cryptox: derive key: %w", err)
	}
	return key, nil
}

// KeyID returns a short stable identifier for key material, safe to put in a
// token header.
func KeyID(key []byte) string {
	return FingerprintToken(string(key))[:12]
}
