// Package httpx carries the HTTP plumbing shared by all gateway handlers:
// the uniform response envelope, typed API errors, middleware chaining,
// session authentication and inbound rate limiting.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform response shape for every gateway endpoint.
// Exactly one of Data or Error is set.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
	Meta    any        `json:"meta,omitempty"`
}

// ErrorBody is the machine-readable error payload inside the envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON writes a JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope. meta may be nil.
func WriteSuccess(w http.ResponseWriter, code int, data, meta any) {
	WriteJSON(w, code, Envelope{Success: true, Data: data, Meta: meta})
}

// WriteError writes a failure envelope from a typed APIError.
func WriteError(w http.ResponseWriter, apiErr *APIError) {
	apiErr.Write(w)
}

// NoCache sets headers preventing intermediaries from caching a response.
// Required for anything carrying session tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
