// Package valkey keeps OAuth states in Valkey so several replicas can share
// them. Keys expire natively; GETDEL gives the single-use guarantee.
package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/notafemboy/blogauth/internal/auth/domain"
	"github.com/notafemboy/blogauth/internal/auth/store"
)

// DefaultPrefix namespaces every key this driver writes.
const DefaultPrefix = "blogauth"

const objectTypeState = "state"

type Store struct {
	client valkey.Client
	prefix string
	owned  bool
}

// Open connects to the server at url (valkey:// or redis:// form).
func Open(url, prefix string) (*Store, error) {
	opt, err := valkey.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing valkey url: %w", err)
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("creating valkey client: %w", err)
	}
	s := NewStore(client, prefix)
	s.owned = true
	return s, nil
}

// NewStore wraps an existing client. Close leaves the client open.
func NewStore(client valkey.Client, prefix string) *Store {
	prefix = strings.TrimSuffix(prefix, ":")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) States() store.States { return &statesRepo{s: s} }

func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("executing ping command: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.owned {
		s.client.Close()
	}
	return nil
}

func (s *Store) key(objectType, objectID string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, objectType, objectID)
}

type statesRepo struct {
	s *Store
}

func (r *statesRepo) CreateState(ctx context.Context, st domain.StateRecord) error {
	ttl := st.ExpiresAt.Sub(st.CreatedAt)
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}

	bytes, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	c := r.s.client
	cmd := c.B().Set().Key(r.s.key(objectTypeState, st.TokenHash)).Value(valkey.BinaryString(bytes)).Nx().PxMilliseconds(ttl.Milliseconds()).Build()
	if err := c.Do(ctx, cmd).Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("executing set command: %w", err)
	}
	return nil
}

func (r *statesRepo) ConsumeState(ctx context.Context, tokenHash string) (domain.StateRecord, error) {
	c := r.s.client
	bytes, err := c.Do(ctx, c.B().Getdel().Key(r.s.key(objectTypeState, tokenHash)).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return domain.StateRecord{}, store.ErrNotFound
		}
		return domain.StateRecord{}, fmt.Errorf("executing getdel command: %w", err)
	}

	var st domain.StateRecord
	if err := json.Unmarshal(bytes, &st); err != nil {
		return domain.StateRecord{}, fmt.Errorf("decoding state: %w", err)
	}
	return st, nil
}

// DeleteExpiredStates only matters when the caller's clock runs ahead of the
// server's; the server already drops keys once their TTL lapses.
func (r *statesRepo) DeleteExpiredStates(ctx context.Context, now time.Time) (int64, error) {
	c := r.s.client
	match := r.s.key(objectTypeState, "*")

	var (
		cursor  uint64
		deleted int64
	)
	for {
		scan, err := c.Do(ctx, c.B().Scan().Cursor(cursor).Match(match).Count(100).Build()).AsScanEntry()
		if err != nil {
			return deleted, fmt.Errorf("executing scan command: %w", err)
		}

		for _, key := range scan.Elements {
			bytes, err := c.Do(ctx, c.B().Get().Key(key).Build()).AsBytes()
			if valkey.IsValkeyNil(err) {
				continue
			}
			if err != nil {
				return deleted, fmt.Errorf("executing get command: %w", err)
			}

			var st domain.StateRecord
			if err := json.Unmarshal(bytes, &st); err != nil || !st.Expired(now) {
				continue
			}

			n, err := c.Do(ctx, c.B().Del().Key(key).Build()).AsInt64()
			if err != nil {
				return deleted, fmt.Errorf("executing del command: %w", err)
			}
			deleted += n
		}

		cursor = scan.Cursor
		if cursor == 0 {
			return deleted, nil
		}
	}
}
