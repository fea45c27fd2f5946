package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/notafemboy/blogauth/internal/auth/domain"
	"github.com/notafemboy/blogauth/internal/auth/provider/slack"
	"github.com/notafemboy/blogauth/internal/auth/provider/slack/slacktest"
	"github.com/notafemboy/blogauth/internal/auth/service"
	"github.com/notafemboy/blogauth/internal/auth/store/drivers/memory"
	"github.com/notafemboy/blogauth/pkg/authsdk"
	"github.com/notafemboy/blogauth/pkg/httpx"
	"github.com/notafemboy/blogauth/pkg/slogx"
)

const (
	testFrontend = "https://blog.notafemboy.org"
	testOrigin   = "https://blog.notafemboy.org"
)

type harness struct {
	router *Router
	slack  *slacktest.Server
	creds  *service.CredentialService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	fake := slacktest.New(t)
	provider := slack.New(slack.Config{
		ClientID:     fake.ClientID,
		ClientSecret: fake.ClientSecret,
		RedirectURL:  "https://api.example/auth/callback",
		AuthorizeURL: fake.URL + slacktest.AuthorizePath,
		TokenURL:     fake.URL + slacktest.TokenPath,
		IdentityURL:  fake.URL + slacktest.IdentityPath,
		Timeout:      2 * time.Second,
	})

	st := memory.NewStore(time.Minute)
	t.Cleanup(func() { _ = st.Close() })

	states := &service.StateService{Store: st, TTL: domain.StateTTL}
	creds, err := service.NewCredentialService([]byte("router-test-secret-router-test-secret"), "blogauth", 0, nil)
	require.NoError(t, err)

	r := NewRouter(httpx.NewCORSPolicy([]string{testOrigin}), testFrontend+"/", "test", st, slogx.Discard())
	r.AuthorizeService = &service.AuthorizeService{States: states, Provider: provider}
	r.CallbackService = &service.CallbackService{
		States:      states,
		Provider:    provider,
		Identities:  &service.IdentityService{Provider: provider},
		Credentials: creds,
	}
	r.CredentialService = creds
	r.ApplyRoutes()

	return &harness{router: r, slack: fake, creds: creds}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

// login runs /auth/login and returns the state Slack would echo back.
func (h *harness) login(t *testing.T, path string) string {
	t.Helper()

	rec := h.do(httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(loc.String(), h.slack.URL+slacktest.AuthorizePath))
	return loc.Query().Get("state")
}

func (h *harness) callback(t *testing.T, query url.Values) *url.URL {
	t.Helper()

	rec := h.do(httptest.NewRequest(http.MethodGet, "/auth/callback?"+query.Encode(), nil))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return loc
}

func (h *harness) signIn(t *testing.T) string {
	t.Helper()

	h.slack.Grant("code-1", "xoxp-ada", slacktest.Ada())
	state := h.login(t, "/auth/login")
	loc := h.callback(t, url.Values{"code": {"code-1"}, "state": {state}})

	token, err := authsdk.CredentialFromRedirect(loc.String())
	require.NoError(t, err)
	return token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestLoginAndCallback(t *testing.T) {
	h := newHarness(t)
	h.slack.Grant("code-1", "xoxp-ada", slacktest.Ada())

	state := h.login(t, "/auth/login")
	require.NotEmpty(t, state)

	loc := h.callback(t, url.Values{"code": {"code-1"}, "state": {state}})
	require.Equal(t, "blog.notafemboy.org", loc.Host)
	require.Equal(t, "/dashboard", loc.Path)
	require.Equal(t, "success", loc.Query().Get("auth"))

	id, err := h.creds.VerifyIdentity(loc.Query().Get("token"))
	require.NoError(t, err)
	require.Equal(t, "U1", id.UserID)
	require.Equal(t, "Acme", id.TeamName)
}

func TestSlackAliases(t *testing.T) {
	h := newHarness(t)
	h.slack.Grant("code-1", "xoxp-ada", slacktest.Ada())

	state := h.login(t, "/auth/slack/login")

	rec := h.do(httptest.NewRequest(http.MethodGet, "/auth/slack/callback?code=code-1&state="+url.QueryEscape(state), nil))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), "/dashboard?auth=success&token=")
}

func TestCallbackFailuresRedirectGenerically(t *testing.T) {
	tests := []struct {
		name  string
		query func(state string) url.Values
	}{
		{"provider denied", func(state string) url.Values {
			return url.Values{"error": {"access_denied"}, "state": {state}}
		}},
		{"missing code", func(state string) url.Values { return url.Values{"state": {state}} }},
		{"forged state", func(string) url.Values { return url.Values{"code": {"code-1"}, "state": {"forged"}} }},
		{"bad code", func(state string) url.Values { return url.Values{"code": {"nope"}, "state": {state}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.slack.Grant("code-1", "xoxp-ada", slacktest.Ada())
			state := h.login(t, "/auth/login")

			loc := h.callback(t, tt.query(state))
			require.Equal(t, testFrontend+"/login?auth=error", loc.String())
		})
	}
}

func TestCallbackReplayIsRejected(t *testing.T) {
	h := newHarness(t)
	h.slack.Grant("code-1", "xoxp-ada", slacktest.Ada())
	state := h.login(t, "/auth/login")

	first := h.callback(t, url.Values{"code": {"code-1"}, "state": {state}})
	require.Equal(t, "success", first.Query().Get("auth"))

	second := h.callback(t, url.Values{"code": {"code-1"}, "state": {state}})
	require.Equal(t, "error", second.Query().Get("auth"))
	require.Equal(t, int32(1), h.slack.ExchangeCalls.Load())
}

func TestVerify(t *testing.T) {
	h := newHarness(t)
	token := h.signIn(t)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := h.do(req)

		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[authsdk.VerifyResponse](t, rec)
		require.True(t, res.Authenticated)
		require.Equal(t, authsdk.User{
			ID:             "U1",
			Name:           "Ada",
			Email:          "ada@example.com",
			Team:           "Acme",
			TeamID:         "T1",
			ProfilePicture: "https://avatars.example/ada_512.png",
		}, *res.User)
	})

	t.Run("query parameter", func(t *testing.T) {
		rec := h.do(httptest.NewRequest(http.MethodGet, "/auth/verify?token="+url.QueryEscape(token), nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing", func(t *testing.T) {
		rec := h.do(httptest.NewRequest(http.MethodGet, "/auth/verify", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.JSONEq(t, `{"authenticated":false,"error":"missing credential"}`, rec.Body.String())
	})

	t.Run("tampered", func(t *testing.T) {
		last := "A"
		if strings.HasSuffix(token, "A") {
			last = "E"
		}
		req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
		req.Header.Set("Authorization", "Bearer "+token[:len(token)-1]+last)
		rec := h.do(req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.JSONEq(t, `{"authenticated":false,"error":"invalid signature"}`, rec.Body.String())
	})
}

func TestProtectedRoutes(t *testing.T) {
	h := newHarness(t)
	token := h.signIn(t)

	for _, path := range []string{"/api/me", "/api/status"} {
		t.Run(path+" without credential", func(t *testing.T) {
			rec := h.do(httptest.NewRequest(http.MethodGet, path, nil))
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.JSONEq(t, `{"error":"missing credential"}`, rec.Body.String())
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := h.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Ada", decode[authsdk.User](t, rec).Name)

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = h.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[authsdk.StatusResponse](t, rec)
	require.True(t, status.Authenticated)
	expiresAt, err := time.Parse(time.RFC3339, status.ExpiresAt)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(domain.CredentialTTL), expiresAt, time.Minute)
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	token := h.signIn(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := h.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decode[authsdk.LogoutResponse](t, rec).Success)

	// Stateless: the credential still verifies after logout.
	_, err := h.creds.Verify(token)
	require.NoError(t, err)

	rec = h.do(httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	h := newHarness(t)

	t.Run("preflight from the blog", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/auth/verify", nil)
		req.Header.Set("Origin", testOrigin)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := h.do(req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, testOrigin, rec.Header().Get(httpx.HeaderAllowOrigin))
		require.NotEmpty(t, rec.Header().Get(httpx.HeaderAllowMethods))
	})

	t.Run("preflight on an unknown path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/nowhere", nil)
		req.Header.Set("Origin", testOrigin)
		require.Equal(t, http.StatusOK, h.do(req).Code)
	})

	t.Run("evil origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := h.do(req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Empty(t, rec.Header().Get(httpx.HeaderAllowOrigin))
	})

	t.Run("error responses carry cors headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Origin", testOrigin)
		rec := h.do(req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, testOrigin, rec.Header().Get(httpx.HeaderAllowOrigin))
	})
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/livez", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decode[authsdk.HealthResponse](t, rec).Status)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	ready := decode[authsdk.HealthResponse](t, rec)
	require.Equal(t, "ok", ready.Checks.StateStore)
	require.Equal(t, "ok", ready.Checks.Signer)
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/livez", nil))
	require.NotEmpty(t, rec.Header().Get(slogx.RequestIDHeader))
}
