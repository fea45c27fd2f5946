package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/notafemboy/blogauth/internal/auth/domain"
	httpapi "github.com/notafemboy/blogauth/internal/auth/http"
	"github.com/notafemboy/blogauth/internal/auth/provider/slack"
	"github.com/notafemboy/blogauth/internal/auth/service"
	"github.com/notafemboy/blogauth/internal/auth/store"
	"github.com/notafemboy/blogauth/internal/auth/store/drivers/memory"
	"github.com/notafemboy/blogauth/internal/auth/store/drivers/sqlite"
	"github.com/notafemboy/blogauth/internal/auth/store/drivers/valkey"
	"github.com/notafemboy/blogauth/pkg/httpx"
	"github.com/notafemboy/blogauth/pkg/slogx"
)

// BuildVersion is overridden at build time with
// -ldflags "-X github.com/notafemboy/blogauth/internal/auth/app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	provider *slack.Client

	// Services
	stateService        *service.StateService
	authorizeService    *service.AuthorizeService
	identityService     *service.IdentityService
	credentialService   *service.CredentialService
	callbackService     *service.CallbackService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// Option customises an Application before its dependencies are built.
type Option func(*Application)

// WithLogger replaces the logger built from the config.
func WithLogger(logger *slog.Logger) Option {
	return func(app *Application) { app.logger = logger }
}

// New validates cfg and creates an Application with all dependencies
// initialized.
func New(cfg Config, opts ...Option) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{cfg: cfg}
	for _, opt := range opts {
		opt(app)
	}
	if app.logger == nil {
		app.logger = slogx.New(slogx.Config{
			Service: "blogauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		})
	}

	if cfg.GeneratedSecret {
		app.logger.Warn("AUTH_SIGNING_SECRET not set, using a random secret; credentials will not survive a restart")
	}

	if err := app.initStore(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until ctx is cancelled or the server
// fails. A cancelled ctx triggers a graceful shutdown.
func (app *Application) Run(ctx context.Context) error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"state_store", app.cfg.StateStore,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		_ = app.db.Close()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		app.logger.Info("shutdown requested", "cause", context.Cause(ctx))
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing state store", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// Close releases the state store without touching the HTTP server. Use it
// for an Application that was built but never Run.
func (app *Application) Close() error {
	return app.db.Close()
}

// OpenStore builds the state store selected by cfg.StateStore and brings its
// schema up to date.
func OpenStore(cfg Config) (store.Store, error) {
	var (
		st  store.Store
		err error
	)

	switch cfg.StateStore {
	case StoreMemory:
		st = memory.NewStore(memory.DefaultCleanupInterval)
	case StoreSQLite:
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", cfg.DatabaseFile)
		st, err = sqlite.NewStore(dsn)
	case StoreValkey:
		st, err = valkey.Open(cfg.ValkeyURL, cfg.ValkeyPrefix)
	default:
		return nil, fmt.Errorf("unknown state store %q", cfg.StateStore)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s state store: %w", cfg.StateStore, err)
	}

	if err := st.ApplyMigrations(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to apply state store migrations: %w", err)
	}

	return st, nil
}

func (app *Application) initStore() error {
	st, err := OpenStore(app.cfg)
	if err != nil {
		return err
	}
	app.db = st

	app.logger.Info("state store ready", "backend", app.cfg.StateStore)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	app.provider = slack.New(slack.Config{
		ClientID:     app.cfg.Slack.ClientID,
		ClientSecret: app.cfg.Slack.ClientSecret,
		RedirectURL:  app.cfg.Slack.RedirectURI,
		Scopes:       app.cfg.Slack.Scopes,
		AuthorizeURL: app.cfg.Slack.AuthorizeURL,
		TokenURL:     app.cfg.Slack.TokenURL,
		IdentityURL:  app.cfg.Slack.IdentityURL,
		Timeout:      app.cfg.ProviderTimeout,
	})

	credentials, err := service.NewCredentialService(
		[]byte(app.cfg.SigningSecret),
		app.cfg.Issuer,
		domain.CredentialTTL,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize credential signer: %w", err)
	}
	app.credentialService = credentials

	app.stateService = &service.StateService{
		Store: app.db,
		TTL:   domain.StateTTL,
	}
	app.authorizeService = &service.AuthorizeService{
		States:   app.stateService,
		Provider: app.provider,
	}
	app.identityService = &service.IdentityService{Provider: app.provider}
	app.callbackService = &service.CallbackService{
		States:      app.stateService,
		Provider:    app.provider,
		Identities:  app.identityService,
		Credentials: app.credentialService,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.stateService,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		httpx.NewCORSPolicy(app.cfg.CORSAllowedOrigins),
		app.cfg.FrontendURL,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.AuthorizeService = app.authorizeService
	router.CallbackService = app.callbackService
	router.CredentialService = app.credentialService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
