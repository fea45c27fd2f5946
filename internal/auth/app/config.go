package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/notafemboy/blogauth/internal/auth/provider/slack"
	"github.com/notafemboy/blogauth/internal/auth/service"
	"github.com/notafemboy/blogauth/internal/auth/store/drivers/valkey"
	"github.com/notafemboy/blogauth/pkg/cryptox"
)

// ConfigFileEnv names the variable holding an optional YAML config path.
const ConfigFileEnv = "BLOGAUTH_CONFIG_FILE"

// State store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreValkey = "valkey"
)

// DefaultAllowedOrigins are the blog frontends plus the local dev servers.
var DefaultAllowedOrigins = []string{
	"https://blog.notafemboy.org",
	"https://testblog.notafemboy.org",
	"http://localhost:5173",
	"http://localhost:3000",
}

type SlackConfig struct {
	ClientID     string   `yaml:"client_id"     env:"CLIENT_ID"`
	ClientSecret string   `yaml:"client_secret" env:"CLIENT_SECRET"`
	RedirectURI  string   `yaml:"redirect_uri"  env:"REDIRECT_URI"`
	Scopes       []string `yaml:"scopes"        env:"SCOPES"        envSeparator:","`

	// Endpoint overrides, used by tests.
	AuthorizeURL string `yaml:"authorize_url" env:"AUTHORIZE_URL"`
	TokenURL     string `yaml:"token_url"     env:"TOKEN_URL"`
	IdentityURL  string `yaml:"identity_url"  env:"IDENTITY_URL"`
}

type Config struct {
	Slack SlackConfig `yaml:"slack" envPrefix:"SLACK_"`

	FrontendURL        string   `yaml:"frontend_url"         env:"FRONTEND_URL"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	SigningSecret string `yaml:"signing_secret" env:"AUTH_SIGNING_SECRET"`
	Issuer        string `yaml:"issuer"         env:"AUTH_ISSUER"`

	StateStore   string `yaml:"state_store"   env:"STATE_STORE"` // memory, sqlite, valkey
	DatabaseFile string `yaml:"database_file" env:"DATABASE_FILE"`
	ValkeyURL    string `yaml:"valkey_url"    env:"VALKEY_URL"`
	ValkeyPrefix string `yaml:"valkey_prefix" env:"VALKEY_PREFIX"`

	ProviderTimeout      time.Duration `yaml:"provider_timeout"      env:"PROVIDER_TIMEOUT"`
	Env                  string        `yaml:"env"                   env:"ENV"`
	LogLevel             string        `yaml:"log_level"             env:"LOG_LEVEL"`
	LogFormat            string        `yaml:"log_format"            env:"LOG_FORMAT"`
	Port                 int           `yaml:"port"                  env:"PORT"`
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period" env:"SHUTDOWN_GRACE_PERIOD"`
	HousekeepingInterval time.Duration `yaml:"housekeeping_interval" env:"HOUSEKEEPING_INTERVAL"`

	// GeneratedSecret is set by Validate when a dev run had no secret.
	GeneratedSecret bool `yaml:"-"`
}

// DefaultConfig returns the built-in settings, suitable for a local dev run
// once the Slack client credentials are filled in.
func DefaultConfig() Config {
	return Config{
		Slack: SlackConfig{
			RedirectURI: "http://localhost:8080/auth/callback",
			Scopes:      slices.Clone(slack.DefaultScopes),
		},
		FrontendURL:          "https://blog.notafemboy.org",
		CORSAllowedOrigins:   slices.Clone(DefaultAllowedOrigins),
		Issuer:               "blogauth",
		StateStore:           StoreMemory,
		DatabaseFile:         "blogauth.db",
		ValkeyURL:            "redis://localhost:6379",
		ValkeyPrefix:         valkey.DefaultPrefix,
		ProviderTimeout:      slack.DefaultTimeout,
		Env:                  "dev",
		LogLevel:             "info",
		LogFormat:            "json",
		Port:                 8080,
		ShutdownGracePeriod:  10 * time.Second,
		HousekeepingInterval: service.DefaultHousekeepingInterval,
	}
}

// LoadConfig layers the defaults, then the YAML file at path (or at
// $BLOGAUTH_CONFIG_FILE when path is empty), then the environment.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

// Validate rejects settings the service cannot start with. In dev a missing
// signing secret is replaced with a random one and GeneratedSecret is set.
func (c *Config) Validate() error {
	var errs []error

	if c.Slack.ClientID == "" {
		errs = append(errs, errors.New("SLACK_CLIENT_ID is required"))
	}
	if c.Slack.ClientSecret == "" {
		errs = append(errs, errors.New("SLACK_CLIENT_SECRET is required"))
	}
	if !isAbsoluteURL(c.Slack.RedirectURI) {
		errs = append(errs, fmt.Errorf("SLACK_REDIRECT_URI must be an absolute URL, got %q", c.Slack.RedirectURI))
	}
	if !isAbsoluteURL(c.FrontendURL) {
		errs = append(errs, fmt.Errorf("FRONTEND_URL must be an absolute URL, got %q", c.FrontendURL))
	}

	switch {
	case c.SigningSecret == "" && c.Env == "dev":
		secret, err := cryptox.GenerateToken(cryptox.TokenSize512)
		if err != nil {
			errs = append(errs, err)
			break
		}
		c.SigningSecret = secret
		c.GeneratedSecret = true
	case len(c.SigningSecret) < cryptox.MinSecretSize:
		errs = append(errs, fmt.Errorf("AUTH_SIGNING_SECRET must be at least %d bytes", cryptox.MinSecretSize))
	}

	switch c.StateStore {
	case StoreMemory:
	case StoreSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("DATABASE_FILE is required for the sqlite state store"))
		}
	case StoreValkey:
		if c.ValkeyURL == "" {
			errs = append(errs, errors.New("VALKEY_URL is required for the valkey state store"))
		}
	default:
		errs = append(errs, fmt.Errorf("STATE_STORE must be one of memory, sqlite, valkey, got %q", c.StateStore))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.HousekeepingInterval <= 0 {
		errs = append(errs, errors.New("HOUSEKEEPING_INTERVAL must be positive"))
	}

	return errors.Join(errs...)
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
