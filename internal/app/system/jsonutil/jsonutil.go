// Package jsonutil provides helper functions for JSON API responses.
//
// Every content API response carries a "success" flag. Failures use Fail,
// which writes {"success": false, "error": message}.
package jsonutil

import (
	"encoding/json"
	"net/http"
)

// JSON writes a JSON response with the given status code.
//
// Usage:
//
//	jsonutil.JSON(w, http.StatusOK, map[string]any{
//	    "success": true,
//	    "content": result,
//	})
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// OK writes a 200 OK JSON response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Failure is the body written by Fail.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Fail writes {"success": false, "error": message} with the given status.
// Do not put internal error details in message; log them separately.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Failure{Success: false, Error: message})
}

// Decode reads and decodes JSON from the request body into v.
func Decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// DecodeLimited is Decode with the body capped at maxBytes. Larger bodies
// fail with an *http.MaxBytesError.
func DecodeLimited(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	return Decode(r, v)
}
