package http

import (
	"github.com/notafemboy/blogauth/internal/auth/domain"
	"github.com/notafemboy/blogauth/internal/auth/service"
	"github.com/notafemboy/blogauth/pkg/authsdk"
	"github.com/notafemboy/blogauth/pkg/jwtx"
)

func userFromIdentity(id domain.Identity) authsdk.User {
	return authsdk.User{
		ID:             id.UserID,
		Name:           id.Name,
		Email:          id.Email,
		Team:           id.TeamName,
		TeamID:         id.TeamID,
		ProfilePicture: id.AvatarURL,
	}
}

func userFromClaims(c jwtx.Claims) authsdk.User {
	return userFromIdentity(service.IdentityFromClaims(c))
}
