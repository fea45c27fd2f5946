package service

import (
	"context"

	"github.com/notafemboy/blogauth/internal/auth/domain"
)

// Provider is the external identity provider. Implementations make a single
// attempt per call and never retry.
type Provider interface {
	// AuthCodeURL is the consent screen URL carrying state.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for a provider access token.
	Exchange(ctx context.Context, code string) (string, error)

	// FetchIdentity resolves the user and team behind an access token.
	FetchIdentity(ctx context.Context, accessToken string) (domain.Identity, error)
}
