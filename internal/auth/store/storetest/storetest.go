// Package storetest holds behaviour checks every store driver must pass.
package storetest

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/notafemboy/blogauth/internal/auth/domain"
	"github.com/notafemboy/blogauth/internal/auth/store"
	"github.com/notafemboy/blogauth/pkg/cryptox"
	"github.com/notafemboy/blogauth/pkg/idx"
)

// NewState returns a record for a fresh random token created at now.
func NewState(t *testing.T, now time.Time, ttl time.Duration) domain.StateRecord {
	t.Helper()

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)

	now = now.Truncate(time.Millisecond).UTC()
	return domain.StateRecord{
		ID:        idx.NewAt(now).String(),
		TokenHash: cryptox.FingerprintToken(token),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// RunStates exercises a States implementation. open must return an empty,
// migrated store.
func RunStates(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("consume returns the created record once", func(t *testing.T) {
		states := open(t).States()
		want := NewState(t, time.Now(), domain.StateTTL)

		require.NoError(t, states.CreateState(t.Context(), want))

		got, err := states.ConsumeState(t.Context(), want.TokenHash)
		require.NoError(t, err)
		require.Equal(t, want.ID, got.ID)
		require.Equal(t, want.TokenHash, got.TokenHash)
		require.True(t, want.CreatedAt.Equal(got.CreatedAt))
		require.True(t, want.ExpiresAt.Equal(got.ExpiresAt))

		_, err = states.ConsumeState(t.Context(), want.TokenHash)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("unknown hash", func(t *testing.T) {
		states := open(t).States()

		_, err := states.ConsumeState(t.Context(), "never-issued")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate hash is rejected", func(t *testing.T) {
		states := open(t).States()
		rec := NewState(t, time.Now(), domain.StateTTL)

		require.NoError(t, states.CreateState(t.Context(), rec))

		dup := rec
		dup.ID = idx.New().String()
		require.ErrorIs(t, states.CreateState(t.Context(), dup), store.ErrAlreadyExists)
	})

	t.Run("concurrent consumers see the record at most once", func(t *testing.T) {
		states := open(t).States()
		rec := NewState(t, time.Now(), domain.StateTTL)
		require.NoError(t, states.CreateState(t.Context(), rec))

		const workers = 16
		var (
			wg   sync.WaitGroup
			wins atomic.Int32
		)
		start := make(chan struct{})
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if _, err := states.ConsumeState(t.Context(), rec.TokenHash); err == nil {
					wins.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		require.Equal(t, int32(1), wins.Load())
	})

	t.Run("delete expired keeps live records", func(t *testing.T) {
		states := open(t).States()
		now := time.Now()

		live := NewState(t, now, domain.StateTTL)
		stale := NewState(t, now.Add(-time.Hour), domain.StateTTL)
		require.NoError(t, states.CreateState(t.Context(), live))
		require.NoError(t, states.CreateState(t.Context(), stale))

		n, err := states.DeleteExpiredStates(t.Context(), now)
		require.NoError(t, err)
		require.Equal(t, int64(1), n)

		_, err = states.ConsumeState(t.Context(), stale.TokenHash)
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = states.ConsumeState(t.Context(), live.TokenHash)
		require.NoError(t, err)
	})
}
