package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/notafemboy/blogauth/internal/auth/domain"
	"github.com/notafemboy/blogauth/pkg/slogx"
)

// Stage is a step of the callback state machine.
type Stage int

const (
	StageReceived Stage = iota
	StageStateChecked
	StageCodeExchanged
	StageIdentityFetched
	StageCredentialIssued
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StageStateChecked:
		return "state_checked"
	case StageCodeExchanged:
		return "code_exchanged"
	case StageIdentityFetched:
		return "identity_fetched"
	case StageCredentialIssued:
		return "credential_issued"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// CallbackParams are the query parameters of the provider redirect.
type CallbackParams struct {
	Code  string
	State string
	Error string
}

// CallbackResult records how far a callback got. On failure Stage is
// StageFailed and FailedAt is the last stage reached.
type CallbackResult struct {
	Stage      Stage
	FailedAt   Stage
	Credential domain.Credential
}

// CallbackService drives one provider redirect from Received to either
// CredentialIssued or Failed. Nothing is retried.
type CallbackService struct {
	States      *StateService
	Provider    Provider
	Identities  *IdentityService
	Credentials *CredentialService
}

func (s *CallbackService) Handle(ctx context.Context, p CallbackParams) (CallbackResult, error) {
	l := slogx.FromContext(ctx)
	res := CallbackResult{Stage: StageReceived}

	fail := func(err error) (CallbackResult, error) {
		res.FailedAt = res.Stage
		res.Stage = StageFailed
		l.Warn("oauth callback failed",
			slog.String("stage", res.FailedAt.String()),
			slog.Any("error", err),
		)
		return res, err
	}

	if p.Error != "" {
		return fail(fmt.Errorf("%w: %s", ErrProviderDenied, p.Error))
	}
	if p.Code == "" {
		return fail(ErrMissingCode)
	}

	if !s.States.VerifyAndConsume(ctx, p.State) {
		return fail(ErrCSRFStateInvalid)
	}
	res.Stage = StageStateChecked

	accessToken, err := s.Provider.Exchange(ctx, p.Code)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrCodeExchangeFailed, err))
	}
	res.Stage = StageCodeExchanged

	id, err := s.Identities.Resolve(ctx, accessToken)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrIdentityFetchFailed, err))
	}
	res.Stage = StageIdentityFetched

	cred, err := s.Credentials.Issue(id)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrCredentialIssue, err))
	}
	res.Stage = StageCredentialIssued
	res.Credential = cred

	l.Info("login succeeded",
		slog.String("user_id", id.UserID),
		slog.String("team_id", id.TeamID),
	)
	return res, nil
}
