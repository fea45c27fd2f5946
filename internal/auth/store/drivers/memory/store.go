// Package memory is a process-local state store. It suits a single replica;
// anything behind a load balancer needs sqlite on shared disk or valkey.
package memory

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/notafemboy/blogauth/internal/auth/domain"
	"github.com/notafemboy/blogauth/internal/auth/store"
)

// DefaultCleanupInterval is how often go-cache evicts lapsed entries.
const DefaultCleanupInterval = time.Minute

type Store struct {
	cache *gocache.Cache

	// consumeMu makes Get+Delete one step; go-cache only locks each call.
	consumeMu sync.Mutex
}

func NewStore(cleanupInterval time.Duration) *Store {
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &Store{cache: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (s *Store) States() store.States { return &statesRepo{s: s} }

func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error {
	s.cache.Flush()
	return nil
}

type statesRepo struct {
	s *Store
}

func (r *statesRepo) CreateState(_ context.Context, st domain.StateRecord) error {
	ttl := st.ExpiresAt.Sub(st.CreatedAt)
	if ttl <= 0 {
		ttl = time.Millisecond
	}
	if err := r.s.cache.Add(st.TokenHash, st, ttl); err != nil {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *statesRepo) ConsumeState(_ context.Context, tokenHash string) (domain.StateRecord, error) {
	r.s.consumeMu.Lock()
	defer r.s.consumeMu.Unlock()

	v, ok := r.s.cache.Get(tokenHash)
	if !ok {
		return domain.StateRecord{}, store.ErrNotFound
	}
	r.s.cache.Delete(tokenHash)
	return v.(domain.StateRecord), nil
}

func (r *statesRepo) DeleteExpiredStates(_ context.Context, now time.Time) (int64, error) {
	r.s.consumeMu.Lock()
	defer r.s.consumeMu.Unlock()

	r.s.cache.DeleteExpired()

	var n int64
	for key, item := range r.s.cache.Items() {
		st, ok := item.Object.(domain.StateRecord)
		if ok && st.Expired(now) {
			r.s.cache.Delete(key)
			n++
		}
	}
	return n, nil
}
