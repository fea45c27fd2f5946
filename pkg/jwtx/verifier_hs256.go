package jwtx

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HS256Verifier validates JWTs signed with a shared HMAC key.
type HS256Verifier struct {
	key  []byte
	opts VerifyOptions
}

// NewVerifierHS256 creates a verifier for tokens produced by an HS256Signer
// holding the same key.
func NewVerifierHS256(key []byte, opts VerifyOptions) *HS256Verifier {
	return &HS256Verifier{key: append([]byte(nil), key...), opts: opts}
}

// Verify checks the signature over everything before the last "." before the
// token is split or decoded, so a corrupted character anywhere in the header,
// claims or signature reports ErrInvalidSig, even one that becomes a ".".
// The comparison is constant time (hmac.Equal).
func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return Claims{}, ErrMissing
	}

	if strings.Count(tokenStr, ".") < 2 || tokenStr[0] == '.' {
		return Claims{}, ErrMalformed
	}
	dot := strings.LastIndex(tokenStr, ".")
	signingInput := tokenStr[:dot]

	sig, err := base64.RawURLEncoding.Strict().DecodeString(tokenStr[dot+1:])
	if err != nil {
		return Claims{}, ErrInvalidSig
	}
	if err := jwt.SigningMethodHS256.Verify(signingInput, sig, v.key); err != nil {
		return Claims{}, ErrInvalidSig
	}

	// Only a signed input reaches here, so a bad shape is a signer bug.
	header, payload, ok := strings.Cut(signingInput, ".")
	if !ok || header == "" || payload == "" || strings.Contains(payload, ".") {
		return Claims{}, ErrMalformed
	}

	var claims Claims
	token, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return Claims{}, ErrMalformed
	}

	if err := claims.Validate(); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateIssuer(v.opts.Issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiryAt(v.now()); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

func (v *HS256Verifier) now() time.Time {
	if v.opts.Now != nil {
		return v.opts.Now()
	}
	return time.Now()
}
