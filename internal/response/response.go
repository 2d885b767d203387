// Package response provides standardized HTTP response helpers.
package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes a JSON response.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error codes returned by the API.
const (
	ErrCodeInvalidAPIKey           = "INVALID_API_KEY"
	ErrCodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	ErrCodeRateLimited             = "RATE_LIMITED"
	ErrCodeValidationError         = "VALIDATION_ERROR"
	ErrCodeNotFound                = "NOT_FOUND"
	ErrCodeShareNotPending         = "SHARE_NOT_PENDING"
	ErrCodeWrongActor              = "WRONG_ACTOR"
	ErrCodeUnauthorized            = "UNAUTHORIZED"
	ErrCodeInternalError           = "INTERNAL_ERROR"
)

// APIError represents a structured API error response.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps an APIError in the standard response format.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteErrorWithDetails(w, status, code, message, nil)
}

// WriteErrorWithDetails writes a JSON error response with additional details.
func WriteErrorWithDetails(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	resp := ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// Common error response helpers

// WriteInvalidAPIKey writes a 401 invalid API key error.
func WriteInvalidAPIKey(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, ErrCodeInvalidAPIKey, "API key missing or invalid")
}

// WriteInsufficientPermissions writes a 403 insufficient permissions error.
func WriteInsufficientPermissions(w http.ResponseWriter, tier, operation string) {
	WriteErrorWithDetails(w, http.StatusForbidden, ErrCodeInsufficientPermissions,
		"Operation not allowed for this API key tier",
		map[string]interface{}{
			"tier":      tier,
			"operation": operation,
		})
}

// WriteRateLimited writes a 429 rate limited error.
func WriteRateLimited(w http.ResponseWriter) {
	WriteError(w, http.StatusTooManyRequests, ErrCodeRateLimited,
		"Too many requests, please slow down")
}

// WriteValidationError writes a 400 validation error.
func WriteValidationError(w http.ResponseWriter, message string, details map[string]interface{}) {
	WriteErrorWithDetails(w, http.StatusBadRequest, ErrCodeValidationError, message, details)
}

// WriteNotFound writes a 404 error for any missing resource.
func WriteNotFound(w http.ResponseWriter, resource string) {
	WriteErrorWithDetails(w, http.StatusNotFound, ErrCodeNotFound,
		"Resource not found", map[string]interface{}{"resource": resource})
}

// WriteShareNotPending writes a 409 for a share that was already answered.
func WriteShareNotPending(w http.ResponseWriter, currentStatus string) {
	WriteErrorWithDetails(w, http.StatusConflict, ErrCodeShareNotPending,
		"Share has already been answered",
		map[string]interface{}{"status": currentStatus})
}

// WriteWrongActor writes a 403 for an answer from anyone but the recipient.
func WriteWrongActor(w http.ResponseWriter) {
	WriteError(w, http.StatusForbidden, ErrCodeWrongActor,
		"Only the invited user can answer this share")
}

// WriteInternalError writes a 500 internal error.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// WriteUnauthorized writes a 401 unauthorized error.
func WriteUnauthorized(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
}
