// internal/httpx/httpx.go
package httpx

import (
	"encoding/json"
	"net/http"
)

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteErrors writes the error envelope used by every endpoint:
// {"errors": ["..."]}.
func WriteErrors(w http.ResponseWriter, status int, msgs ...string) {
	WriteJSON(w, status, map[string][]string{"errors": msgs})
}

// DecodeJSON decodes the request body into v and reports malformed input.
func DecodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
