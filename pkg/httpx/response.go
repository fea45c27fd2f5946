package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON shape of every API error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": msg} with the given status.
func WriteError(w http.ResponseWriter, code int, msg string) {
	WriteJSON(w, code, ErrorBody{Error: msg})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// Every response that can carry a credential must send these.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// Redirect sends a 302 to location with caching disabled, so a browser never
// replays a callback redirect carrying a credential.
func Redirect(w http.ResponseWriter, r *http.Request, location string) {
	NoCache(w)
	http.Redirect(w, r, location, http.StatusFound)
}
