package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
)

// ErrorResponse is the standard JSON error response format
type ErrorResponse struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	Data    interface{}            `json:"data,omitempty"`
}

// ValidationErrorResponse includes field-level validation errors
type ValidationErrorResponse struct {
	Success bool                `json:"success"`
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// errorMapping ties a sentinel error to its HTTP response. An empty message
// exposes the error text itself.
type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials"},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required"},
	{apperrors.ErrBaselineNotCalculated, http.StatusConflict, "BASELINE_NOT_CALCULATED", "Baseline not calculated. Train the engine first."},
	{apperrors.ErrTicketSourceUnavailable, http.StatusServiceUnavailable, "TICKET_SOURCE_UNAVAILABLE", "Ticket source is unavailable"},
	{apperrors.ErrUsernameRequired, http.StatusBadRequest, "VALIDATION_ERROR", ""},
	{apperrors.ErrUsernameTooLong, http.StatusBadRequest, "VALIDATION_ERROR", ""},
	{apperrors.ErrPasswordRequired, http.StatusBadRequest, "VALIDATION_ERROR", ""},
	{apperrors.ErrInvalidSeverity, http.StatusBadRequest, "VALIDATION_ERROR", ""},
	{apperrors.ErrInvalidAnomalyType, http.StatusBadRequest, "VALIDATION_ERROR", ""},
	{context.Canceled, http.StatusServiceUnavailable, "REQUEST_CANCELLED", "Request cancelled"},
	{context.DeadlineExceeded, http.StatusServiceUnavailable, "REQUEST_CANCELLED", "Request cancelled"},
}

// ErrorHandler turns handler errors into JSON error envelopes and logs them.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler with the given logger
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle writes the response for err.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	var validationErrs *apperrors.ValidationErrors

	switch {
	case errors.As(err, &appErr):
		h.log(r, appErr.StatusCode, err)
		WriteJSON(w, appErr.StatusCode, ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		})

	case errors.As(err, &validationErrs):
		h.log(r, http.StatusUnprocessableEntity, err)
		WriteJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
			Error:  "Validation failed",
			Code:   "VALIDATION_ERROR",
			Fields: validationErrs.Errors,
		})

	default:
		status, response := mapDomainError(err)
		h.log(r, status, err)
		WriteJSON(w, status, response)
	}
}

func mapDomainError(err error) (int, ErrorResponse) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		message := m.message
		if message == "" {
			message = err.Error()
		}
		return m.status, ErrorResponse{Error: message, Code: m.code}
	}
	return http.StatusInternalServerError, ErrorResponse{
		Error: "An unexpected error occurred",
		Code:  "INTERNAL_ERROR",
	}
}

func (h *ErrorHandler) log(r *http.Request, status int, err error) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.LogAttrs(r.Context(), level, "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status_code", status),
		slog.String("error", err.Error()),
	)
}

// HandleError handles err when it is non-nil and reports whether it did.
//
//	if HandleError(w, r, err, h.errorHandler) { return }
func HandleError(w http.ResponseWriter, r *http.Request, err error, handler *ErrorHandler) bool {
	if err != nil {
		handler.Handle(w, r, err)
		return true
	}
	return false
}
