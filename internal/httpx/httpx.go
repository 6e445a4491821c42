// Package httpx contains the JSON helpers shared by the HTTP routers: body
// decoding, response writing and the structured error shape carrying the
// stable machine-readable code clients branch on.
package httpx

import (
	"encoding/json"
	"net/http"
)

// maxBodyBytes caps request bodies; chat messages and billing requests are
// small JSON documents.
const maxBodyBytes = 1 << 20

// Error is a client-facing error with a stable code for programmatic handling
// and a human message for display. Meta carries response-specific fields such
// as the caller's plan and status.
type Error struct {
	HTTPStatus int
	Code       string
	Message    string
	Meta       map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// NewError creates an Error with the given HTTP status, code and message.
func NewError(status int, code, message string) *Error {
	return &Error{HTTPStatus: status, Code: code, Message: message}
}

// WithMeta returns a copy of e with the additional response fields attached.
func (e *Error) WithMeta(meta map[string]any) *Error {
	clone := *e
	clone.Meta = meta
	return &clone
}

// MarshalJSON flattens Meta into the top-level object so error responses stay
// shaped like the rest of the API: {"error": ..., "code": ..., "plan": ...}.
func (e *Error) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Meta)+2)
	for k, v := range e.Meta {
		out[k] = v
	}
	out["error"] = e.Message
	if e.Code != "" {
		out["code"] = e.Code
	}
	return json.Marshal(out)
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err as a JSON error response. Errors that are not *Error
// are masked as a generic internal error so internals never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	var httpErr *Error
	if e, ok := err.(*Error); ok {
		httpErr = e
	} else {
		httpErr = NewError(http.StatusInternalServerError, "INTERNAL_ERROR", "Erro inesperado.")
	}
	JSON(w, httpErr.HTTPStatus, httpErr)
}

// Decode reads the request body as JSON into v, enforcing a size cap. An
// empty body is not an error; callers validate required fields themselves.
func Decode(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return NewError(http.StatusBadRequest, "INVALID_BODY", "Corpo da requisição inválido.")
	}
	return nil
}
