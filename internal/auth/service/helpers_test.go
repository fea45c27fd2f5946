package service

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/notafemboy/blogauth/internal/auth/domain"
	"github.com/notafemboy/blogauth/internal/auth/store/drivers/memory"
)

var testSecret = []byte("test-secret-test-secret-test-secret!")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeProvider hands out "token-<code>" for codes in codes and ada for any
// token it issued.
type fakeProvider struct {
	codes       map[string]bool
	identity    domain.Identity
	exchangeErr error
	identityErr error

	exchangeCalls atomic.Int32
	identityCalls atomic.Int32
}

func newFakeProvider(codes ...string) *fakeProvider {
	p := &fakeProvider{
		codes: make(map[string]bool),
		identity: domain.Identity{
			UserID:    "U1",
			Name:      "Ada",
			Email:     "ada@example.com",
			AvatarURL: "https://avatars.example/ada_512.png",
			TeamID:    "T1",
			TeamName:  "Acme",
		},
	}
	for _, c := range codes {
		p.codes[c] = true
	}
	return p
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://provider.example/oauth/authorize?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (string, error) {
	p.exchangeCalls.Add(1)
	if p.exchangeErr != nil {
		return "", p.exchangeErr
	}
	if !p.codes[code] {
		return "", errors.New("invalid_code")
	}
	return "token-" + code, nil
}

func (p *fakeProvider) FetchIdentity(_ context.Context, accessToken string) (domain.Identity, error) {
	p.identityCalls.Add(1)
	if p.identityErr != nil {
		return domain.Identity{}, p.identityErr
	}
	return p.identity, nil
}

type fixture struct {
	clock       *fakeClock
	provider    *fakeProvider
	states      *StateService
	credentials *CredentialService
	authorize   *AuthorizeService
	callback    *CallbackService
}

func newFixture(t *testing.T, codes ...string) *fixture {
	t.Helper()

	clock := newFakeClock()
	provider := newFakeProvider(codes...)
	st := memory.NewStore(time.Minute)
	t.Cleanup(func() { _ = st.Close() })

	states := &StateService{Store: st, TTL: domain.StateTTL, Now: clock.Now}
	creds, err := NewCredentialService(testSecret, "blogauth-test", domain.CredentialTTL, clock.Now)
	require.NoError(t, err)

	return &fixture{
		clock:       clock,
		provider:    provider,
		states:      states,
		credentials: creds,
		authorize:   &AuthorizeService{States: states, Provider: provider},
		callback: &CallbackService{
			States:      states,
			Provider:    provider,
			Identities:  &IdentityService{Provider: provider},
			Credentials: creds,
		},
	}
}

// stateFromURL pulls the state parameter back out of an authorization URL.
func stateFromURL(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}
