package store

import (
	"context"
	"errors"
	"time"

	"github.com/notafemboy/blogauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (memory, sqlite,
// valkey) implement this and expose sub-repositories per concern.
type Store interface {
	States() States

	// ApplyMigrations brings the schema up to date. Drivers without a schema
	// treat it as a no-op.
	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// States holds OAuth state records. Records are looked up by the token's
// fingerprint, never by the raw token.
type States interface {
	// CreateState persists a record. A second record with the same
	// TokenHash fails with ErrAlreadyExists.
	CreateState(ctx context.Context, s domain.StateRecord) error

	// ConsumeState removes and returns the record for tokenHash as one
	// atomic step. Of any number of concurrent callers, at most one gets the
	// record; the rest get ErrNotFound. Expiry is not checked here, the
	// caller compares ExpiresAt against its own clock.
	ConsumeState(ctx context.Context, tokenHash string) (domain.StateRecord, error)

	// DeleteExpiredStates removes records that expired at or before now and
	// reports how many went.
	DeleteExpiredStates(ctx context.Context, now time.Time) (int64, error)
}
