package http

import (
	"net/http"
	"strings"

	"github.com/notafemboy/blogauth/internal/auth/service"
	"github.com/notafemboy/blogauth/pkg/authsdk"
	"github.com/notafemboy/blogauth/pkg/httpx"
	"github.com/notafemboy/blogauth/pkg/jwtx"
	"github.com/notafemboy/blogauth/pkg/slogx"
)

type VerifyHandler struct {
	CredentialService *service.CredentialService
}

// ServeHTTP reports whether a credential is valid.
//
//	@Summary		Verify a credential
//	@Description	Accepts the credential as a bearer token or, failing that, the token query parameter.
//	@Description	The error field names a category only: missing credential, malformed credential, invalid signature or credential expired.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Param			token	query		string					false	"Credential, when no Authorization header is sent"
//	@Success		200		{object}	authsdk.VerifyResponse	"authenticated=true with the user"
//	@Failure		401		{object}	authsdk.VerifyResponse	"authenticated=false with a reason"
//	@Router			/auth/verify [get].
func (h *VerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := httpx.BearerToken(r)
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get("token"))
	}

	id, err := h.CredentialService.VerifyIdentity(token)
	if err != nil {
		slogx.FromContext(r.Context()).Info("credential verification failed", "error", err)
		httpx.WriteJSON(w, http.StatusUnauthorized, authsdk.VerifyResponse{
			Authenticated: false,
			Error:         jwtx.Reason(err),
		})
		return
	}

	user := userFromIdentity(id)
	httpx.WriteJSON(w, http.StatusOK, authsdk.VerifyResponse{
		Authenticated: true,
		User:          &user,
	})
}
