// Package httpx provides JSON response utilities shared by all handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error envelope returned by every endpoint.
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Message sends the error envelope with just a message.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Message: message})
}

// MessageWithDetail sends the error envelope including a detail string.
func MessageWithDetail(w http.ResponseWriter, status int, message, detail string) {
	JSON(w, status, ErrorBody{Message: message, Error: detail})
}

// DecodeJSON decodes a JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
