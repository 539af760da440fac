package errors

import "net/http"

// APIError is the error shape every handler and service returns. Status is
// the HTTP status the middleware responds with, Code is an optional
// machine-readable tag the frontend can branch on (for example
// "not_configured" to redirect the user to the settings screen).
type APIError struct {
	Status   int    `json:"-"`
	Message  string `json:"error"`
	Code     string `json:"code,omitempty"`
	Internal error  `json:"-"`
}

// Error returns the error message
func (e *APIError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Unwrap returns the original error
func (e *APIError) Unwrap() error {
	return e.Internal
}

// WithCode returns a copy of the error carrying a machine-readable code
func (e *APIError) WithCode(code string) *APIError {
	return &APIError{
		Status:   e.Status,
		Message:  e.Message,
		Code:     code,
		Internal: e.Internal,
	}
}

func New(status int, message string, internal error) *APIError {
	return &APIError{
		Status:   status,
		Message:  message,
		Internal: internal,
	}
}

func BadRequest(message string, internal error) *APIError {
	return New(http.StatusBadRequest, message, internal)
}

func Unauthorized(message string, internal error) *APIError {
	return New(http.StatusUnauthorized, message, internal)
}

func Forbidden(message string, internal error) *APIError {
	return New(http.StatusForbidden, message, internal)
}

func NotFound(message string, internal error) *APIError {
	return New(http.StatusNotFound, message, internal)
}

func Conflict(message string, internal error) *APIError {
	return New(http.StatusConflict, message, internal)
}

func UnprocessableEntity(message string, internal error) *APIError {
	return New(http.StatusUnprocessableEntity, message, internal)
}

func Internal(internal error) *APIError {
	return New(http.StatusInternalServerError, "Internal server error", internal)
}

// NewValidationError wraps a request binding failure
func NewValidationError(internal error) *APIError {
	return New(http.StatusUnprocessableEntity, "Validation failed", internal)
}
