package jwtx

import (
	"errors"
	"time"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Now overrides the clock used for expiry checks. Nil means time.Now.
	Now func() time.Time
}

var (
	ErrMissing    = errors.New("jwtx: missing token")
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidSig = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// Reason maps a verification error to a short category that is safe to
// return to clients. Anything unrecognised is reported as invalid.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMissing):
		return "missing credential"
	case errors.Is(err, ErrExpired):
		return "credential expired"
	case errors.Is(err, ErrInvalidSig):
		return "invalid signature"
	case errors.Is(err, ErrMalformed), errors.Is(err, ErrInvalidClaim), errors.Is(err, ErrIssuer):
		return "malformed credential"
	default:
		return "invalid credential"
	}
}
