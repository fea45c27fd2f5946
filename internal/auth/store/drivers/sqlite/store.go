package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/notafemboy/blogauth/internal/auth/domain"
	"github.com/notafemboy/blogauth/internal/auth/store"
	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One connection: keeps :memory: databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:  db,
		dsn: dsn,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) States() store.States { return &statesRepo{db: s.db} }

type statesRepo struct {
	db *sql.DB
}

func (r *statesRepo) CreateState(ctx context.Context, st domain.StateRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO oauth_states (id, token_hash, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		st.ID, st.TokenHash, toMillis(st.CreatedAt), toMillis(st.ExpiresAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// ConsumeState deletes and returns in one statement, so two callers racing
// on the same hash cannot both see the row.
func (r *statesRepo) ConsumeState(ctx context.Context, tokenHash string) (domain.StateRecord, error) {
	var (
		st                   domain.StateRecord
		createdAt, expiresAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM oauth_states WHERE token_hash = ? RETURNING id, token_hash, created_at, expires_at`,
		tokenHash,
	).Scan(&st.ID, &st.TokenHash, &createdAt, &expiresAt)
	if err != nil {
		return domain.StateRecord{}, mapNotFound(err)
	}
	st.CreatedAt = fromMillis(createdAt)
	st.ExpiresAt = fromMillis(expiresAt)
	return st, nil
}

func (r *statesRepo) DeleteExpiredStates(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM oauth_states WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
