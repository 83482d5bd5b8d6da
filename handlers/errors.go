package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/upb/instrumented-api/utils"
	"go.uber.org/zap"
)

// ErrorType represents the category of a handler error
type ErrorType string

const (
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeUpstream   ErrorType = "upstream"
	ErrorTypeInternal   ErrorType = "internal"
)

// DemoError is the structured error raised by the demo endpoints. It is
// also the panic value of /error_test, so it shows up as
// exception_type="handlers.DemoError".
type DemoError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]any
}

// Error implements the error interface
func (e *DemoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DemoError) Unwrap() error {
	return e.Err
}

// Is matches any DemoError of the same type
func (e *DemoError) Is(target error) bool {
	t, ok := target.(*DemoError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DemoError) WithDetail(key string, value any) *DemoError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewDemoError creates a new demo error
func NewDemoError(errType ErrorType, message string, err error) *DemoError {
	return &DemoError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

var (
	ErrNotFound   = NewDemoError(ErrorTypeNotFound, "not found", nil)
	ErrValidation = NewDemoError(ErrorTypeValidation, "validation failed", nil)
	ErrUpstream   = NewDemoError(ErrorTypeUpstream, "upstream call failed", nil)
	ErrInternal   = NewDemoError(ErrorTypeInternal, "internal error", nil)
)

// StatusFor maps an error to the HTTP status it is reported with.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes err as a JSON error response. Internal errors are
// logged and their message hidden.
func HandleError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	status := StatusFor(err)
	message := err.Error()
	var details map[string]any

	var demoErr *DemoError
	if errors.As(err, &demoErr) {
		message = demoErr.Message
		details = demoErr.Details
	}
	if status == http.StatusInternalServerError {
		logger.Error("internal server error", zap.Error(err))
		message = "An internal error occurred"
		details = nil
	}

	if err := utils.WriteError(w, status, message, details); err != nil {
		logger.Error("failed to write error response", zap.Error(err))
	}
}
