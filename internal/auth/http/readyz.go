package http

import (
	"net/http"
	"time"

	"github.com/notafemboy/blogauth/internal/auth/store"
	"github.com/notafemboy/blogauth/pkg/authsdk"
	"github.com/notafemboy/blogauth/pkg/httpx"
	"github.com/notafemboy/blogauth/pkg/jwtx"
	"github.com/notafemboy/blogauth/pkg/slogx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and status of the state store and credential signer
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	signer jwtx.Signer,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := slogx.FromContext(r.Context())
		checks := &authsdk.HealthChecks{
			StateStore: "ok",
			Signer:     "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			log.Warn("state store not ready", "error", err)
			checks.StateStore = "error"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if signer == nil || signer.Validate() != nil {
			checks.Signer = "error"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
