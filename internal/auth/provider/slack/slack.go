// Package slack talks to Slack's "Sign in with Slack" endpoints: the
// authorize redirect, oauth.access for the code exchange and users.identity
// for the profile.
package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/notafemboy/blogauth/internal/auth/domain"
)

const (
	DefaultAuthorizeURL = "https://slack.com/oauth/authorize"
	DefaultTokenURL     = "https://slack.com/api/oauth.access"
	DefaultIdentityURL  = "https://slack.com/api/users.identity"

	DefaultTimeout = 10 * time.Second
)

// DefaultScopes are the identity scopes the blog asks for.
var DefaultScopes = []string{
	"identity.basic",
	"identity.email",
	"identity.avatar",
	"identity.team",
}

// maxBodySize caps how much of a provider response is read.
const maxBodySize = 1 << 20

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	AuthorizeURL string
	TokenURL     string
	IdentityURL  string

	// Timeout bounds each provider call. Calls are never retried.
	Timeout time.Duration

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// APIError is a Slack Web API reply with "ok": false.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack: %s: %s", e.Method, e.Code)
}

type Client struct {
	oauth       oauth2.Config
	scope       string
	identityURL string
	http        *http.Client
}

func New(cfg Config) *Client {
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = DefaultAuthorizeURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.IdentityURL == "" {
		cfg.IdentityURL = DefaultIdentityURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizeURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		// Slack's legacy authorize endpoint wants commas, oauth2 joins with spaces.
		scope:       strings.Join(cfg.Scopes, ","),
		identityURL: cfg.IdentityURL,
		http:        httpClient,
	}
}

// AuthCodeURL returns the URL the browser is sent to, carrying state.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("scope", c.scope))
}

// Exchange trades an authorization code for a user access token.
func (c *Client) Exchange(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("slack: oauth.access: %w", err)
	}
	if ok, present := tok.Extra("ok").(bool); present && !ok {
		code, _ := tok.Extra("error").(string)
		return "", &APIError{Method: "oauth.access", Code: code}
	}
	return tok.AccessToken, nil
}

type identityResponse struct {
	OK    bool                       `json:"ok"`
	Error string                     `json:"error"`
	User  map[string]json.RawMessage `json:"user"`
	Team  struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
}

// FetchIdentity calls users.identity with the user's access token.
func (c *Client) FetchIdentity(ctx context.Context, accessToken string) (domain.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.identityURL, nil)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("slack: users.identity: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("slack: users.identity: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return domain.Identity{}, fmt.Errorf("slack: users.identity: reading body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Identity{}, fmt.Errorf("slack: users.identity: unexpected status %d", resp.StatusCode)
	}

	var ir identityResponse
	if err := json.Unmarshal(body, &ir); err != nil {
		return domain.Identity{}, fmt.Errorf("slack: users.identity: decoding body: %w", err)
	}
	if !ir.OK {
		return domain.Identity{}, &APIError{Method: "users.identity", Code: ir.Error}
	}

	user := stringFields(ir.User)
	id := domain.Identity{
		UserID:    user["id"],
		Name:      user["name"],
		Email:     user["email"],
		AvatarURL: LargestAvatar(user),
		TeamID:    ir.Team.ID,
		TeamName:  ir.Team.Name,
	}
	if id.UserID == "" || id.TeamID == "" {
		return domain.Identity{}, fmt.Errorf("slack: users.identity: response missing user or team id")
	}
	return id, nil
}

// LargestAvatar picks the non-empty image_<N> field with the biggest N.
func LargestAvatar(user map[string]string) string {
	best, bestSize := "", -1
	for k, v := range user {
		sizeStr, ok := strings.CutPrefix(k, "image_")
		if !ok || v == "" {
			continue
		}
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			continue
		}
		if size > bestSize {
			best, bestSize = v, size
		}
	}
	return best
}

func stringFields(raw map[string]json.RawMessage) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if json.Unmarshal(v, &s) == nil {
			out[k] = s
		}
	}
	return out
}
