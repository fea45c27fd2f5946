package authsdk

// ErrorResponse is the body of every JSON error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// User is the identity a credential asserts, in the shape the frontend reads.
type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Team           string `json:"team"`
	TeamID         string `json:"team_id"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// VerifyResponse is returned by GET /auth/verify. On 401 Authenticated is
// false, User is nil and Error carries the reason.
type VerifyResponse struct {
	Authenticated bool   `json:"authenticated"`
	User          *User  `json:"user,omitempty"`
	Error         string `json:"error,omitempty"`
}

// LogoutResponse is returned by POST /auth/logout.
type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	User          User   `json:"user"`
	ExpiresAt     string `json:"expires_at"` // RFC 3339
}

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks is only set by /readyz.
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// StateStore is the CSRF state backend.
	StateStore string `json:"state_store"`

	// Signer indicates the credential signing capability status
	Signer string `json:"signer"`
}
