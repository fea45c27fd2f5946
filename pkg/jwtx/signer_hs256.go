package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// MinHMACKeySize matches the SHA-256 output size.
const MinHMACKeySize = 32

// HS256Signer implements Signer with a shared HMAC key.
type HS256Signer struct {
	kid string
	key []byte
}

func newHS256Signer(kid string, key []byte) (*HS256Signer, error) {
	s := &HS256Signer{kid: kid, key: append([]byte(nil), key...)}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }
func (s *HS256Signer) KID() string { return s.kid }

// Sign serialises the claims and appends an HMAC over header and payload.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if s.kid != "" {
		t.Header["kid"] = s.kid
	}
	return t.SignedString(s.key)
}

// Validate makes sure the key is long enough to be worth signing with.
func (s *HS256Signer) Validate() error {
	if len(s.key) < MinHMACKeySize {
		return errors.New("jwtx: HMAC key shorter than 32 bytes")
	}
	return nil
}
