package http

import (
	"net/http"

	"github.com/notafemboy/blogauth/internal/auth/service"
	"github.com/notafemboy/blogauth/pkg/authsdk"
	"github.com/notafemboy/blogauth/pkg/httpx"
	"github.com/notafemboy/blogauth/pkg/slogx"
)

type LogoutHandler struct {
	CredentialService *service.CredentialService
}

// ServeHTTP acknowledges a logout. There is no server-side session, so this
// only records the event; the credential stays valid until it expires.
//
//	@Summary		Log out
//	@Description	Best effort. Credentials are stateless and remain valid until expiry, the client must discard its copy.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.LogoutResponse
//	@Router			/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	if token := httpx.BearerToken(r); token != "" {
		if claims, err := h.CredentialService.Verify(token); err == nil {
			log.Info("user logged out", "user_id", claims.Subject, "jti", claims.ID)
		}
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.LogoutResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}
