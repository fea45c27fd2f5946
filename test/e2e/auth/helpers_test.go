package auth_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/notafemboy/blogauth/internal/auth/app"
	"github.com/notafemboy/blogauth/internal/auth/provider/slack/slacktest"
	"github.com/notafemboy/blogauth/pkg/authsdk"
	"github.com/notafemboy/blogauth/pkg/slogx"
)

/*
 * Common constants and helper functions for the end-to-end tests. The service
 * runs in-process behind an httptest server and talks to a fake Slack.
 */

const (
	frontendURL   = "https://blog.notafemboy.org"
	allowedOrigin = "https://blog.notafemboy.org"
	signingSecret = "e2e-signing-secret-e2e-signing-secret"
)

type env struct {
	baseURL string
	slack   *slacktest.Server
	client  *authsdk.SDKClient

	// browser never follows redirects so each hop can be inspected.
	browser *http.Client
}

// setupService starts the service against a fresh fake Slack. mutate may
// adjust the config before the application is built.
func setupService(t *testing.T, mutate func(*app.Config)) *env {
	t.Helper()

	fake := slacktest.New(t)

	cfg := app.DefaultConfig()
	cfg.Env = "test"
	cfg.Slack.ClientID = fake.ClientID
	cfg.Slack.ClientSecret = fake.ClientSecret
	cfg.Slack.AuthorizeURL = fake.URL + slacktest.AuthorizePath
	cfg.Slack.TokenURL = fake.URL + slacktest.TokenPath
	cfg.Slack.IdentityURL = fake.URL + slacktest.IdentityPath
	cfg.FrontendURL = frontendURL
	cfg.CORSAllowedOrigins = []string{allowedOrigin}
	cfg.SigningSecret = signingSecret
	cfg.ProviderTimeout = 2 * time.Second
	if mutate != nil {
		mutate(&cfg)
	}

	application, err := app.New(cfg, app.WithLogger(slogx.Discard()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(srv.Close)

	return &env{
		baseURL: srv.URL,
		slack:   fake,
		client:  authsdk.NewSDKClient(srv.URL),
		browser: &http.Client{
			Timeout: 5 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// get issues a browser GET and returns the response with its body closed.
func (e *env) get(t *testing.T, rawURL string, header http.Header) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, rawURL, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := e.browser.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp
}

// startLogin follows /auth/login to Slack and returns the state the browser
// would carry back.
func (e *env) startLogin(t *testing.T) string {
	t.Helper()

	resp := e.get(t, e.client.LoginURL(), nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(loc.String(), e.slack.URL+slacktest.AuthorizePath),
		"login should redirect to Slack, got %s", loc)

	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

// finishLogin plays the Slack redirect back to /auth/callback and returns the
// frontend location the service answered with.
func (e *env) finishLogin(t *testing.T, query url.Values) string {
	t.Helper()

	resp := e.get(t, e.baseURL+authsdk.PathCallback+"?"+query.Encode(), nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	return resp.Header.Get("Location")
}

// signIn runs the whole flow for Ada and returns her credential.
func (e *env) signIn(t *testing.T, code string) string {
	t.Helper()

	e.slack.Grant(code, "xoxp-"+code, slacktest.Ada())
	state := e.startLogin(t)
	location := e.finishLogin(t, url.Values{"code": {code}, "state": {state}})

	token, err := authsdk.CredentialFromRedirect(location)
	require.NoError(t, err, "unexpected redirect %s", location)
	return token
}

// requireRejected asserts err is a 401 from the service carrying reason.
func requireRejected(t *testing.T, err error, reason string) {
	t.Helper()

	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, reason, apiErr.Message)
}
