package authsdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Paths served by the login service.
const (
	PathLogin    = "/auth/login"
	PathCallback = "/auth/callback"
	PathVerify   = "/auth/verify"
	PathLogout   = "/auth/logout"
	PathMe       = "/api/me"
	PathStatus   = "/api/status"
)

// ErrLoginFailed is returned by CredentialFromRedirect for an auth=error
// redirect.
var ErrLoginFailed = errors.New("authsdk: login failed")

// SDKClient is a client for the login service.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client with a 10 second timeout.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// LoginURL is where a browser should be sent to start a login.
func (c *SDKClient) LoginURL() string {
	return c.url(PathLogin)
}

// Verify checks token with the service. A rejected credential is returned as
// *APIError with StatusCode 401 and the reason as Message.
func (c *SDKClient) Verify(ctx context.Context, token string) (*VerifyResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, PathVerify, token, nil)
	if err != nil {
		return nil, err
	}

	var out VerifyResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout tells the service the user signed out. The token itself stays valid
// until it expires.
func (c *SDKClient) Logout(ctx context.Context, token string) (*LogoutResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, PathLogout, token, nil)
	if err != nil {
		return nil, err
	}

	var out LogoutResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the user behind token.
func (c *SDKClient) Me(ctx context.Context, token string) (*User, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, PathMe, token, nil)
	if err != nil {
		return nil, err
	}

	var out User
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status returns the user and credential expiry behind token.
func (c *SDKClient) Status(ctx context.Context, token string) (*StatusResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, PathStatus, token, nil)
	if err != nil {
		return nil, err
	}

	var out StatusResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// CredentialFromRedirect extracts the credential from the frontend redirect
// the callback produces.
func CredentialFromRedirect(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", err
	}

	q := u.Query()
	if q.Get("auth") != "success" {
		return "", ErrLoginFailed
	}
	token := q.Get("token")
	if token == "" {
		return "", ErrLoginFailed
	}
	return token, nil
}
