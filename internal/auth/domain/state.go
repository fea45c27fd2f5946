package domain

import "time"

// StateTTL is how long a login may take between the redirect to the provider
// and the callback.
const StateTTL = 600 * time.Second

// StateRecord is the stored half of an OAuth state token. The raw token only
// ever lives in the browser redirect; stores key records by TokenHash.
type StateRecord struct {
	ID        string    `json:"id"`
	TokenHash string    `json:"token_hash"` // base64url SHA-256 of the raw token
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the record is no longer usable at now. A record
// expires at ExpiresAt exactly.
func (s StateRecord) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
