// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
//
// Consistent response shapes also make life easier for API consumers —
// they always know what error responses look like.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/nikhil-saxena/student-records-api/internal/validation"
)

// Response is the standard envelope returned for error cases.
//
// Success responses return the record (or list) directly. Error
// responses always look like:
//
//	{ "status": "error", "error": "username already exists" }
//
// and validation failures additionally carry every violated field:
//
//	{
//	  "status": "error",
//	  "error":  "validation failed: email: must be a valid email address",
//	  "errors": [ { "field": "email", "message": "must be a valid email address" } ]
//	}
type Response struct {
	Status string                  `json:"status"` // "ok" or "error"
	Error  string                  `json:"error"`  // human-readable error detail
	Errors []validation.FieldError `json:"errors,omitempty"`
}

// Status string constants — use these instead of raw string literals so
// a typo is caught by the compiler rather than silently sending "eroor".
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	// Tell the client the body is JSON, not HTML or plain text.
	w.Header().Set("Content-Type", "application/json")

	// Write the HTTP status line (e.g. "HTTP/1.1 201 Created").
	// This must happen before any body bytes are written.
	w.WriteHeader(status)

	// json.NewEncoder(w) streams directly into w, avoiding an
	// intermediate buffer. Encode() appends a newline after the JSON —
	// handy for CLI testing.
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into our standard Response shape.
// Use this for expected single-message failures (conflicts, not-found,
// bad request bodies).
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ValidationError carries the gate's full accumulated violation list
// so the client can surface every problem in one round trip.
func ValidationError(err *validation.Error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
		Errors: err.Fields,
	}
}
