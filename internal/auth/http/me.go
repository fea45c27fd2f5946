package http

import (
	"net/http"
	"time"

	"github.com/notafemboy/blogauth/pkg/authsdk"
	"github.com/notafemboy/blogauth/pkg/httpx"
)

// MeHandler godoc
//
//	@Summary		Current user
//	@Description	Returns the user the presented credential asserts.
//	@Tags			API
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.User
//	@Failure		401	{object}	authsdk.ErrorResponse	"Missing or invalid credential"
//	@Router			/api/me [get].
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := httpx.ClaimsFromContext(r.Context())
		if !ok {
			authsdk.ErrUnauthorized.WriteError(w)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, userFromClaims(claims))
	}
}

// StatusHandler godoc
//
//	@Summary		Authentication status
//	@Description	Returns the user and when the presented credential expires.
//	@Tags			API
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.StatusResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Missing or invalid credential"
//	@Router			/api/status [get].
func StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := httpx.ClaimsFromContext(r.Context())
		if !ok || claims.ExpiresAt == nil {
			authsdk.ErrUnauthorized.WriteError(w)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, authsdk.StatusResponse{
			Authenticated: true,
			User:          userFromClaims(claims),
			ExpiresAt:     claims.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}
}
