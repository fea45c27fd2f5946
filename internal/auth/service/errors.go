package service

import (
	"errors"

	"github.com/notafemboy/blogauth/pkg/jwtx"
)

// Callback failures. Each wraps the underlying cause when there is one.
var (
	ErrProviderDenied      = errors.New("provider_denied")
	ErrMissingCode         = errors.New("missing_code")
	ErrCSRFStateInvalid    = errors.New("csrf_state_invalid")
	ErrCodeExchangeFailed  = errors.New("code_exchange_failed")
	ErrIdentityFetchFailed = errors.New("identity_fetch_failed")
	ErrCredentialIssue     = errors.New("credential_issue_failed")
)

// Credential verification failures share identity with the jwtx sentinels so
// errors.Is works against either.
var (
	ErrCredentialMissing          = jwtx.ErrMissing
	ErrCredentialMalformed        = jwtx.ErrMalformed
	ErrCredentialSignatureInvalid = jwtx.ErrInvalidSig
	ErrCredentialExpired          = jwtx.ErrExpired
)
