package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultCredentialTTL is how long a login credential stays valid. There is
// no revocation, so this is also the worst-case exposure of a leaked token.
const DefaultCredentialTTL = 7 * 24 * time.Hour

// Claims is the identity claim set carried by a login credential. The subject
// is the provider user id.
type Claims struct {
	jwt.RegisteredClaims

	// Display name from the provider profile.
	Name string `json:"name"`

	// Email is optional, the provider only returns it with the email scope.
	Email string `json:"email,omitempty"`

	// Picture is the avatar URL, largest variant the provider offered.
	Picture string `json:"picture,omitempty"`

	TeamID   string `json:"team_id"`
	TeamName string `json:"team_name"`
}

// NewIdentityClaims builds claims valid from now until now+ttl.
func NewIdentityClaims(
	subject, name, email, picture string,
	teamID, teamName string,
	issuer string,
	ttl time.Duration,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Name:     name,
		Email:    email,
		Picture:  picture,
		TeamID:   teamID,
		TeamName: teamName,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// Validate checks the fields every credential must carry. Registered time
// claims are checked by the verifier.
func (c *Claims) Validate() error {
	if c.Subject == "" || c.Name == "" || c.TeamID == "" {
		return ErrInvalidClaim
	}
	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	return nil
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiryAt rejects claims whose expiry is at or before now.
func (c *Claims) ValidateExpiryAt(now time.Time) error {
	if c.ExpiresAt == nil || !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}
	return nil
}
