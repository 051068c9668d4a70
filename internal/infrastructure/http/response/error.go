package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rezkam/todoline/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []ErrorField `json:"details,omitempty"`
}

// ErrorField describes a field-specific error.
type ErrorField struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// Error sends a generic error response.
func Error(w http.ResponseWriter, code, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}

// BadRequest sends a 400 Bad Request error.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, "INVALID_REQUEST", message, http.StatusBadRequest)
}

// ValidationError sends a 400 validation error with one field detail.
func ValidationError(w http.ResponseWriter, field, issue string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    "VALIDATION_ERROR",
			Message: "validation failed",
			Details: []ErrorField{{Field: field, Issue: issue}},
		},
	})
}

// NotFound sends a 404 Not Found error.
func NotFound(w http.ResponseWriter, resource string) {
	Error(w, "NOT_FOUND", resource+" not found", http.StatusNotFound)
}

// Conflict sends a 409 Conflict error.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, "CONFLICT", message, http.StatusConflict)
}

// InternalError logs err with the request context and sends a generic 500.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		slog.ErrorContext(r.Context(), "Internal server error", "error", err)
	}
	Error(w, "INTERNAL_ERROR", "an internal error occurred", http.StatusInternalServerError)
}

// FromDomainError maps domain errors to HTTP responses.
// Parser messages are user-facing and are passed through as the issue text.
func FromDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	// Validation errors (400)
	case errors.Is(err, domain.ErrTitleRequired),
		errors.Is(err, domain.ErrTitleTooLong):
		ValidationError(w, "text", err.Error())
	case errors.Is(err, domain.ErrMainCategoryRequired):
		ValidationError(w, "text", domain.ErrMainCategoryRequired.Error())
	case errors.Is(err, domain.ErrInvalidTime):
		ValidationError(w, "text", domain.ErrInvalidTime.Error())
	case errors.Is(err, domain.ErrInvalidTimeRange):
		ValidationError(w, "time_range", domain.ErrInvalidTimeRange.Error())
	case errors.Is(err, domain.ErrInvalidPriority):
		ValidationError(w, "priority", "must be between 1 and 4")
	case errors.Is(err, domain.ErrInvalidReminder):
		ValidationError(w, "reminder", err.Error())
	case errors.Is(err, domain.ErrCommentRequired):
		ValidationError(w, "text", domain.ErrCommentRequired.Error())
	case errors.Is(err, domain.ErrCategoryRequired):
		ValidationError(w, "name", domain.ErrCategoryRequired.Error())
	case errors.Is(err, domain.ErrInvalidView):
		ValidationError(w, "view", err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		ValidationError(w, "id", "invalid ID format")
	case errors.Is(err, domain.ErrEmptyUpdateMask),
		errors.Is(err, domain.ErrUnknownField):
		ValidationError(w, "update_mask", err.Error())

	// Not found errors (404)
	case errors.Is(err, domain.ErrTaskNotFound):
		NotFound(w, "task")
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, "resource")

	// State errors (409)
	case errors.Is(err, domain.ErrNothingToUndo):
		Conflict(w, domain.ErrNothingToUndo.Error())

	// Unknown errors (500) are logged, never echoed.
	default:
		InternalError(w, r, err)
	}
}
