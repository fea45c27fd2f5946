package http

import (
	"net/http"

	"github.com/notafemboy/blogauth/internal/auth/service"
	"github.com/notafemboy/blogauth/pkg/httpx"
)

type CallbackHandler struct {
	CallbackService *service.CallbackService
	redirects       frontendRedirects
}

// ServeHTTP completes a login.
//
//	@Summary		Slack OAuth callback
//	@Description	Checks the state, exchanges the code with Slack, fetches the identity and issues a credential.
//	@Description	Success lands on <frontend>/dashboard?auth=success&token=<credential>; any failure on <frontend>/login?auth=error.
//	@Tags			Auth
//	@Param			code	query	string	false	"Authorization code"
//	@Param			state	query	string	false	"CSRF state from /auth/login"
//	@Param			error	query	string	false	"Set by Slack when the user declines"
//	@Success		302		"Redirect to the frontend"
//	@Router			/auth/callback [get].
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	res, err := h.CallbackService.Handle(r.Context(), service.CallbackParams{
		Code:  q.Get("code"),
		State: q.Get("state"),
		Error: q.Get("error"),
	})
	if err != nil {
		httpx.Redirect(w, r, h.redirects.failure())
		return
	}

	httpx.Redirect(w, r, h.redirects.success(res.Credential.Token))
}
