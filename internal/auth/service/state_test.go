package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/notafemboy/blogauth/internal/auth/domain"
	"github.com/notafemboy/blogauth/internal/auth/store"
	"github.com/notafemboy/blogauth/internal/auth/store/drivers/memory"
)

func TestStateSingleUse(t *testing.T) {
	f := newFixture(t)

	token, err := f.states.Issue(t.Context())
	require.NoError(t, err)
	require.Len(t, token, 43)

	require.True(t, f.states.VerifyAndConsume(t.Context(), token))
	require.False(t, f.states.VerifyAndConsume(t.Context(), token))
}

func TestStateTTL(t *testing.T) {
	t.Run("just inside the window", func(t *testing.T) {
		f := newFixture(t)
		token, err := f.states.Issue(t.Context())
		require.NoError(t, err)

		f.clock.Advance(domain.StateTTL - time.Second)
		require.True(t, f.states.VerifyAndConsume(t.Context(), token))
	})

	t.Run("at the deadline", func(t *testing.T) {
		f := newFixture(t)
		token, err := f.states.Issue(t.Context())
		require.NoError(t, err)

		f.clock.Advance(domain.StateTTL)
		require.False(t, f.states.VerifyAndConsume(t.Context(), token))
	})

	t.Run("expired token is still consumed", func(t *testing.T) {
		f := newFixture(t)
		token, err := f.states.Issue(t.Context())
		require.NoError(t, err)

		f.clock.Advance(time.Hour)
		require.False(t, f.states.VerifyAndConsume(t.Context(), token))

		f.clock.Advance(-time.Hour)
		require.False(t, f.states.VerifyAndConsume(t.Context(), token))
	})
}

func TestStateRejectsUnknownAndEmpty(t *testing.T) {
	f := newFixture(t)

	require.False(t, f.states.VerifyAndConsume(t.Context(), ""))
	require.False(t, f.states.VerifyAndConsume(t.Context(), "never-issued"))
}

func TestStateDefaultTTL(t *testing.T) {
	clock := newFakeClock()
	svc := &StateService{Store: memory.NewStore(time.Minute), Now: clock.Now}

	token, err := svc.Issue(t.Context())
	require.NoError(t, err)

	clock.Advance(domain.StateTTL)
	require.False(t, svc.VerifyAndConsume(t.Context(), token))
}

func TestStateSweep(t *testing.T) {
	f := newFixture(t)

	_, err := f.states.Issue(t.Context())
	require.NoError(t, err)

	f.clock.Advance(domain.StateTTL)
	fresh, err := f.states.Issue(t.Context())
	require.NoError(t, err)

	n, err := f.states.Sweep(t.Context())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	require.True(t, f.states.VerifyAndConsume(t.Context(), fresh))
}

type brokenStore struct{ store.Store }

func (brokenStore) States() store.States { return brokenStates{} }

type brokenStates struct{}

var errBackend = errors.New("backend down")

func (brokenStates) CreateState(context.Context, domain.StateRecord) error { return errBackend }
func (brokenStates) ConsumeState(context.Context, string) (domain.StateRecord, error) {
	return domain.StateRecord{}, errBackend
}
func (brokenStates) DeleteExpiredStates(context.Context, time.Time) (int64, error) {
	return 0, errBackend
}

func TestStateBackendFailure(t *testing.T) {
	svc := &StateService{Store: brokenStore{}}

	_, err := svc.Issue(t.Context())
	require.ErrorIs(t, err, errBackend)
	require.False(t, svc.VerifyAndConsume(t.Context(), "anything"))
}
