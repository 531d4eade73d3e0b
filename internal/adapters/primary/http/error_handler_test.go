package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
)

func TestErrorHandler_Handle(t *testing.T) {
	handler := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))

	fields := apperrors.NewValidationErrors()
	fields.Add("limit", "Must be between 1 and 1000")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{"app error", apperrors.NewBadRequestError(errors.New("EOF"), "Invalid request body"), stdhttp.StatusBadRequest, "BAD_REQUEST", "Invalid request body"},
		{"validation", fields, stdhttp.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed"},
		{"credentials", apperrors.ErrInvalidCredentials, stdhttp.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials"},
		{"untrained", fmt.Errorf("dashboard: %w", apperrors.ErrBaselineNotCalculated), stdhttp.StatusConflict, "BASELINE_NOT_CALCULATED", "Baseline not calculated. Train the engine first."},
		{"source down", fmt.Errorf("%w: dial tcp", apperrors.ErrTicketSourceUnavailable), stdhttp.StatusServiceUnavailable, "TICKET_SOURCE_UNAVAILABLE", "Ticket source is unavailable"},
		{"bad severity", fmt.Errorf("%w: %q", apperrors.ErrInvalidSeverity, "low"), stdhttp.StatusBadRequest, "VALIDATION_ERROR", `invalid anomaly severity: "low"`},
		{"cancelled", context.Canceled, stdhttp.StatusServiceUnavailable, "REQUEST_CANCELLED", "Request cancelled"},
		{"unknown", errors.New("pq: relation does not exist"), stdhttp.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.Handle(rec, httptest.NewRequest(stdhttp.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantCode, body["code"])
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestHandleError(t *testing.T) {
	handler := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	req := httptest.NewRequest(stdhttp.MethodGet, "/", nil)

	rec := httptest.NewRecorder()
	assert.False(t, HandleError(rec, req, nil, handler))
	assert.Equal(t, stdhttp.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	assert.True(t, HandleError(rec, req, apperrors.ErrUnauthorized, handler))
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
}
