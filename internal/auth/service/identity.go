package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/notafemboy/blogauth/internal/auth/domain"
	"github.com/notafemboy/blogauth/pkg/slogx"
)

var errIncompleteIdentity = errors.New("identity missing user id, name or team id")

// IdentityService resolves who is behind a provider access token. It always
// asks the provider; nothing is cached between logins.
type IdentityService struct {
	Provider Provider
}

func (s *IdentityService) Resolve(ctx context.Context, accessToken string) (domain.Identity, error) {
	id, err := s.Provider.FetchIdentity(ctx, accessToken)
	if err != nil {
		return domain.Identity{}, err
	}
	if id.UserID == "" || id.Name == "" || id.TeamID == "" {
		return domain.Identity{}, errIncompleteIdentity
	}

	slogx.FromContext(ctx).Debug("identity resolved",
		slog.String("user_id", id.UserID),
		slog.String("team_id", id.TeamID),
	)
	return id, nil
}
