package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/notafemboy/blogauth/internal/auth/service"
	"github.com/notafemboy/blogauth/internal/auth/store"
	"github.com/notafemboy/blogauth/pkg/httpx"
	"github.com/notafemboy/blogauth/pkg/slogx"

	_ "github.com/notafemboy/blogauth/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	redirects    frontendRedirects
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store             store.Store
	AuthorizeService  *service.AuthorizeService
	CallbackService   *service.CallbackService
	CredentialService *service.CredentialService
}

func NewRouter(
	cors *httpx.CORSPolicy,
	frontendURL, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		redirects:    newFrontendRedirects(frontendURL),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Logging is outermost so preflights and CORS rejections are logged too.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CORS(cors),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAPI()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpx.Chain(httpSwagger.Handler(),
		httpx.RateLimitByIP(httpx.PublicLimit),
	))
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Blog Auth API
//	@version		0.1.0
//	@description	Sign in with Slack for the blog frontend.
//	@description
//	@description				Credentials are HS256 JWTs valid for seven days. Send them as "Authorization: Bearer {token}".
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Login credential. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	login := httpx.Chain(&LoginHandler{
		AuthorizeService: r.AuthorizeService,
		redirects:        r.redirects,
	}, httpx.RateLimitByIP(httpx.ModerateLimit))

	// Each hit costs a round trip to Slack.
	callback := httpx.Chain(&CallbackHandler{
		CallbackService: r.CallbackService,
		redirects:       r.redirects,
	}, httpx.RateLimitByIP(httpx.StrictLimit))

	// The frontend links to the /auth/slack/* paths.
	r.Mux.Handle("GET /auth/login", login)
	r.Mux.Handle("GET /auth/slack/login", login)
	r.Mux.Handle("GET /auth/callback", callback)
	r.Mux.Handle("GET /auth/slack/callback", callback)

	r.Mux.Handle("GET /auth/verify",
		httpx.Chain(&VerifyHandler{CredentialService: r.CredentialService},
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(&LogoutHandler{CredentialService: r.CredentialService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAPI() {
	protect := func(h http.Handler) http.Handler {
		return httpx.Chain(h,
			httpx.AuthnMiddleware(r.CredentialService),
			httpx.RateLimitByUser(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("GET /api/me", protect(MeHandler()))
	r.Mux.Handle("GET /api/status", protect(StatusHandler()))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.CredentialService.Signer),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
