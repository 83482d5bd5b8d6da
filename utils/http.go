package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON body of every non-2xx answer produced by the
// demo handlers.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// SuccessResponse wraps a payload.
type SuccessResponse struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes a 200 OK response
func WriteOK(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return WriteError(w, http.StatusNotFound, message, nil)
}

// WriteBadRequest writes a 400 Bad Request response with error details
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]any) error {
	return WriteError(w, http.StatusBadRequest, message, details)
}

// WriteError writes an error response whose error code is derived from the
// status class. Any status is accepted, including 3xx codes produced by the
// random status endpoint.
func WriteError(w http.ResponseWriter, status int, message string, details map[string]any) error {
	return WriteJSON(w, status, ErrorResponse{
		Error:   ErrorCode(status),
		Message: message,
		Details: details,
	})
}

// ErrorCode maps a status code to a short machine-readable name.
func ErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusBadGateway:
		return "bad_gateway"
	}
	switch {
	case status >= 300 && status < 400:
		return "redirection"
	case status >= 400 && status < 500:
		return "client_error"
	default:
		return "internal_error"
	}
}
