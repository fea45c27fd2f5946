// Package slacktest runs a fake Slack Web API for tests.
package slacktest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// Paths served by Server.
const (
	AuthorizePath = "/oauth/authorize"
	TokenPath     = "/api/oauth.access"
	IdentityPath  = "/api/users.identity"
)

// Server answers oauth.access and users.identity. Codes in Codes map to an
// access token; tokens in Identities map to a users.identity body.
type Server struct {
	*httptest.Server

	ClientID     string
	ClientSecret string

	mu         sync.Mutex
	codes      map[string]string
	identities map[string]map[string]any

	// ExchangeCalls counts oauth.access hits.
	ExchangeCalls atomic.Int32
	// IdentityCalls counts users.identity hits.
	IdentityCalls atomic.Int32

	// Hook, when set, runs before every handler.
	Hook func(w http.ResponseWriter, r *http.Request) bool
}

// Ada is the identity body the end-to-end flow uses.
func Ada() map[string]any {
	return map[string]any{
		"ok": true,
		"user": map[string]any{
			"id":         "U1",
			"name":       "Ada",
			"email":      "ada@example.com",
			"image_24":   "https://avatars.example/ada_24.png",
			"image_192":  "https://avatars.example/ada_192.png",
			"image_512":  "https://avatars.example/ada_512.png",
			"image_1024": "",
		},
		"team": map[string]any{"id": "T1", "name": "Acme"},
	}
}

func New(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		codes:        make(map[string]string),
		identities:   make(map[string]map[string]any),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+TokenPath, s.handleToken)
	mux.HandleFunc("GET "+IdentityPath, s.handleIdentity)

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Hook != nil && s.Hook(w, r) {
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// Grant registers code so that exchanging it yields accessToken, and
// accessToken resolves to identity.
func (s *Server) Grant(code, accessToken string, identity map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code] = accessToken
	s.identities[accessToken] = identity
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	s.ExchangeCalls.Add(1)
	if err := r.ParseForm(); err != nil {
		writeJSON(w, map[string]any{"ok": false, "error": "invalid_form_data"})
		return
	}
	if r.PostForm.Get("client_id") != s.ClientID || r.PostForm.Get("client_secret") != s.ClientSecret {
		writeJSON(w, map[string]any{"ok": false, "error": "invalid_client_id"})
		return
	}

	s.mu.Lock()
	token, ok := s.codes[r.PostForm.Get("code")]
	s.mu.Unlock()
	if !ok {
		// Slack answers 200 with ok=false and no access_token.
		writeJSON(w, map[string]any{"ok": false, "error": "invalid_code"})
		return
	}
	writeJSON(w, map[string]any{
		"ok":           true,
		"access_token": token,
		"token_type":   "Bearer",
		"scope":        "identity.basic,identity.email,identity.avatar,identity.team",
	})
}

func (s *Server) handleIdentity(w http.ResponseWriter, r *http.Request) {
	s.IdentityCalls.Add(1)
	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")

	s.mu.Lock()
	body, ok := s.identities[token]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, map[string]any{"ok": false, "error": "invalid_auth"})
		return
	}
	writeJSON(w, body)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
