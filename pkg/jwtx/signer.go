package jwtx

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
	Validate() error
}

// NewSignerHS256 creates an HMAC-SHA256 signer over a symmetric key.
func NewSignerHS256(kid string, key []byte) (Signer, error) {
	return newHS256Signer(kid, key)
}
