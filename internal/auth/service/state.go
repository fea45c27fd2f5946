package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/notafemboy/blogauth/internal/auth/domain"
	"github.com/notafemboy/blogauth/internal/auth/store"
	"github.com/notafemboy/blogauth/pkg/cryptox"
	"github.com/notafemboy/blogauth/pkg/idx"
	"github.com/notafemboy/blogauth/pkg/slogx"
)

// StateService mints and redeems CSRF state tokens.
type StateService struct {
	Store store.Store
	TTL   time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// Issue generates a 256-bit token, stores its fingerprint and returns the
// raw token for the redirect.
func (s *StateService) Issue(ctx context.Context) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	now := s.now()
	rec := domain.StateRecord{
		ID:        idx.NewAt(now).String(),
		TokenHash: cryptox.FingerprintToken(token),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl()),
	}
	if err := s.Store.States().CreateState(ctx, rec); err != nil {
		return "", err
	}

	slogx.FromContext(ctx).Debug("state issued", slog.String("state_id", rec.ID))
	return token, nil
}

// VerifyAndConsume reports whether token was issued here, is unexpired and
// has not been used. The record is removed whatever the outcome, so a second
// call with the same token always fails.
func (s *StateService) VerifyAndConsume(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	l := slogx.FromContext(ctx)

	rec, err := s.Store.States().ConsumeState(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			l.Error("state store consume failed", slog.Any("error", err))
		}
		return false
	}
	if rec.Expired(s.now()) {
		l.Info("expired state presented", slog.String("state_id", rec.ID))
		return false
	}
	return true
}

// Sweep drops expired records.
func (s *StateService) Sweep(ctx context.Context) (int64, error) {
	return s.Store.States().DeleteExpiredStates(ctx, s.now())
}

func (s *StateService) ttl() time.Duration {
	if s.TTL <= 0 {
		return domain.StateTTL
	}
	return s.TTL
}

func (s *StateService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
