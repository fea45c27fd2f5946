package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/notafemboy/blogauth/pkg/httpx"
)

// APIError is a non-2xx reply. Message is a short category such as
// "credential expired", never internal detail.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("authsdk: %d: %s", e.StatusCode, e.Message)
}

// WriteError writes e as {"error": Message}.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteError(w, e.StatusCode, e.Message)
}

// ErrUnauthorized is the response for a request without a valid credential.
var ErrUnauthorized = &APIError{
	StatusCode: http.StatusUnauthorized,
	Message:    "authentication required",
}

// parseErrorResponse turns an error body into *APIError, falling back to the
// status text when the body is not the expected JSON.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
