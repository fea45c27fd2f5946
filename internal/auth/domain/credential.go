package domain

import "time"

// CredentialTTL is the lifetime of a login credential.
const CredentialTTL = 7 * 24 * time.Hour

// Credential is a signed, self-contained bearer token plus the identity it
// asserts.
type Credential struct {
	Token     string
	Identity  Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}
