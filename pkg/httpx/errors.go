package httpx

import (
	"fmt"
	"net/http"
)

// APIError is an error that knows how to write itself as a failure envelope.
// Handlers map service-level sentinel errors onto these.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Meta    any    `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Write emits this error as a failure envelope with its HTTP status.
func (e *APIError) Write(w http.ResponseWriter) {
	WriteJSON(w, e.Status, Envelope{
		Success: false,
		Error: &ErrorBody{
			Code:    e.Code,
			Message: e.Message,
			Details: e.Details,
		},
		Meta: e.Meta,
	})
}

// NewAPIError builds an APIError with the given status, code and message.
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// WithDetails returns a copy of the error carrying structured details.
func (e *APIError) WithDetails(details any) *APIError {
	dup := *e
	dup.Details = details
	return &dup
}

// WithMeta returns a copy of the error carrying response metadata.
func (e *APIError) WithMeta(meta any) *APIError {
	dup := *e
	dup.Meta = meta
	return &dup
}

// Session-level error codes used by the authn middleware. Endpoint-specific
// codes live with their handlers.
const (
	CodeSessionMissing = "SESSION_MISSING"
	CodeSessionInvalid = "SESSION_INVALID"
	CodeSessionExpired = "SESSION_EXPIRED"
	CodeRateLimited    = "RATE_LIMITED"
	CodeInternalError  = "INTERNAL_ERROR"
)

// ErrInternal is the generic 500 returned when nothing more specific can be
// said without leaking internals.
var ErrInternal = NewAPIError(http.StatusInternalServerError, CodeInternalError, "internal server error")
