package service

import (
	"context"
	"fmt"
)

// AuthorizeService builds the redirect that starts a login.
type AuthorizeService struct {
	States   *StateService
	Provider Provider
}

// BuildAuthorizationURL mints a state token and embeds it in the provider's
// consent URL. The token is never returned to the caller on its own.
func (s *AuthorizeService) BuildAuthorizationURL(ctx context.Context) (string, error) {
	state, err := s.States.Issue(ctx)
	if err != nil {
		return "", fmt.Errorf("issuing state: %w", err)
	}
	return s.Provider.AuthCodeURL(state), nil
}
