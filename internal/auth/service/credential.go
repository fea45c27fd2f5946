package service

import (
	"fmt"
	"time"

	"github.com/notafemboy/blogauth/internal/auth/domain"
	"github.com/notafemboy/blogauth/pkg/cryptox"
	"github.com/notafemboy/blogauth/pkg/jwtx"
)

// CredentialPurpose separates the credential key from anything else derived
// from the same process secret.
const CredentialPurpose = "blogauth credential v1"

// CredentialService mints and checks login credentials. It satisfies
// jwtx.Verifier so it can back httpx.AuthnMiddleware directly.
type CredentialService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Issuer   string
	TTL      time.Duration

	// Now defaults to time.Now. It must be the clock Verifier uses.
	Now func() time.Time
}

// NewCredentialService derives the HMAC key from secret and wires a signer
// and verifier that share one clock.
func NewCredentialService(secret []byte, issuer string, ttl time.Duration, now func() time.Time) (*CredentialService, error) {
	if now == nil {
		now = time.Now
	}
	key, err := cryptox.DeriveKey(secret, CredentialPurpose, jwtx.MinHMACKeySize)
	if err != nil {
		return nil, fmt.Errorf("deriving credential key: %w", err)
	}
	signer, err := jwtx.NewSignerHS256(cryptox.KeyID(key), key)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = domain.CredentialTTL
	}

	return &CredentialService{
		Signer:   signer,
		Verifier: jwtx.NewVerifierHS256(key, jwtx.VerifyOptions{Issuer: issuer, Now: now}),
		Issuer:   issuer,
		TTL:      ttl,
		Now:      now,
	}, nil
}

// Issue signs a credential for id valid for TTL from now.
func (s *CredentialService) Issue(id domain.Identity) (domain.Credential, error) {
	now := s.now()
	claims := jwtx.NewIdentityClaims(
		id.UserID, id.Name, id.Email, id.AvatarURL,
		id.TeamID, id.TeamName,
		s.Issuer, s.TTL, now,
	)

	token, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.Credential{}, err
	}

	return domain.Credential{
		Token:     token,
		Identity:  id,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Verify implements jwtx.Verifier.
func (s *CredentialService) Verify(token string) (jwtx.Claims, error) {
	return s.Verifier.Verify(token)
}

// VerifyIdentity checks token and returns the identity it asserts.
func (s *CredentialService) VerifyIdentity(token string) (domain.Identity, error) {
	claims, err := s.Verifier.Verify(token)
	if err != nil {
		return domain.Identity{}, err
	}
	return IdentityFromClaims(claims), nil
}

// IdentityFromClaims maps verified claims back onto an Identity.
func IdentityFromClaims(c jwtx.Claims) domain.Identity {
	return domain.Identity{
		UserID:    c.Subject,
		Name:      c.Name,
		Email:     c.Email,
		AvatarURL: c.Picture,
		TeamID:    c.TeamID,
		TeamName:  c.TeamName,
	}
}

func (s *CredentialService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
