package http

import (
	"log/slog"
	"net/http"

	"github.com/notafemboy/blogauth/internal/auth/service"
	"github.com/notafemboy/blogauth/pkg/httpx"
	"github.com/notafemboy/blogauth/pkg/slogx"
)

type LoginHandler struct {
	AuthorizeService *service.AuthorizeService
	redirects        frontendRedirects
}

// ServeHTTP starts a login.
//
//	@Summary		Start Slack login
//	@Description	Mints a single-use CSRF state and redirects the browser to the Slack consent screen.
//	@Description	If the state cannot be stored the browser is sent to the frontend login page with auth=error.
//	@Tags			Auth
//	@Success		302	"Redirect to Slack, or to <frontend>/login?auth=error"
//	@Router			/auth/login [get].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	authURL, err := h.AuthorizeService.BuildAuthorizationURL(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to start login", slog.Any("error", err))
		httpx.Redirect(w, r, h.redirects.failure())
		return
	}

	httpx.Redirect(w, r, authURL)
}
