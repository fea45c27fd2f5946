package httpx

import (
	"net/http"
	"strings"

	"github.com/notafemboy/blogauth/pkg/jwtx"
	"github.com/notafemboy/blogauth/pkg/slogx"
)

// BearerToken returns the credential from an "Authorization: Bearer" header,
// or "" when the header is absent or uses another scheme.
func BearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(authz, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AuthnMiddleware requires a valid bearer credential and stores its claims on
// the request context.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := BearerToken(r)
			if raw == "" {
				writeBearerError(w, jwtx.Reason(jwtx.ErrMissing))
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("credential rejected", "error", err)
				writeBearerError(w, jwtx.Reason(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithAuth(ctx, claims)))
		})
	}
}

// writeBearerError answers 401 with an RFC 6750 challenge and a JSON body
// naming only the failure category.
func writeBearerError(w http.ResponseWriter, reason string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+reason+`"`)
	WriteError(w, http.StatusUnauthorized, reason)
}
