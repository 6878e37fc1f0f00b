// Package shared centralizes JSON envelope and domain error translation so
// every handler returns the same shapes.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "sdagate/pkg/domain-errors"
)

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a coded domain error into its HTTP response. Unknown
// errors surface as plain 500s without leaking internals.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		body["message"] = err.Error()
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}
