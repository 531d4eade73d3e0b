package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mw "github.com/lorrc/service-desk-insights/internal/adapters/primary/http/middleware"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
)

func sampleAnomalies() []domain.Anomaly {
	return []domain.Anomaly{
		{ID: "a-1", Type: domain.AnomalyCreationSpike, Severity: domain.SeverityHigh, Value: 30},
		{ID: "a-2", Type: domain.AnomalyAssignmentOverload, Severity: domain.SeverityMedium, Value: 9},
		{ID: "a-3", Type: domain.AnomalyStalledTicket, Severity: domain.SeverityMedium, Value: 80},
		{ID: "a-4", Type: domain.AnomalyStalledTicket, Severity: domain.SeverityMedium, Value: 60},
	}
}

func TestAnomalyHandler_Train(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		result := domain.TrainingResult{
			Trained:         true,
			TicketsAnalyzed: 120,
			AvgDailyTickets: 4,
			Timestamp:       "2026-03-10T12:00:00Z",
		}
		env.anomalies.On("Train", mock.Anything).Return(result).Once()

		recorder := env.do(t, stdhttp.MethodPost, "/api/v1/anomalies/train", "", env.token(t))

		require.Equal(t, stdhttp.StatusOK, recorder.Code)
		body := decodeEnvelope(t, recorder)
		assert.True(t, body.Success)

		var got domain.TrainingResult
		require.NoError(t, json.Unmarshal(body.Data, &got))
		assert.Equal(t, result, got)
	})

	t.Run("failure returns the result with 422", func(t *testing.T) {
		env := newTestEnv(t)
		result := domain.TrainingResult{
			Trained: false,
			Error:   apperrors.ErrNoTickets.Error(),
		}
		env.anomalies.On("Train", mock.Anything).Return(result).Once()

		recorder := env.do(t, stdhttp.MethodPost, "/api/v1/anomalies/train", "", env.token(t))

		require.Equal(t, stdhttp.StatusUnprocessableEntity, recorder.Code)
		body := decodeEnvelope(t, recorder)
		assert.False(t, body.Success)
		assert.Equal(t, "TRAINING_FAILED", body.Code)
		assert.Equal(t, result.Error, body.Error)

		var got domain.TrainingResult
		require.NoError(t, json.Unmarshal(body.Data, &got))
		assert.False(t, got.Trained)
	})

	t.Run("rate limited per operator", func(t *testing.T) {
		limiter := mw.NewRateLimitByKey(t.Context(), 0.001, 1)
		env := newTestEnv(t, limiter.PerOperator)
		env.anomalies.On("Train", mock.Anything).Return(domain.TrainingResult{Trained: true}).Once()
		token := env.token(t)

		first := env.do(t, stdhttp.MethodPost, "/api/v1/anomalies/train", "", token)
		second := env.do(t, stdhttp.MethodPost, "/api/v1/anomalies/train", "", token)

		assert.Equal(t, stdhttp.StatusOK, first.Code)
		assert.Equal(t, stdhttp.StatusTooManyRequests, second.Code)
	})
}

func TestAnomalyHandler_GetCurrent(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"no filter", "", []string{"a-1", "a-2", "a-3", "a-4"}},
		{"severity", "?severity=high", []string{"a-1"}},
		{"type", "?type=stalled_ticket", []string{"a-3", "a-4"}},
		{"severity and type", "?severity=medium&type=assignment_overload", []string{"a-2"}},
		{"limit", "?type=stalled_ticket&limit=1", []string{"a-3"}},
		{"no match", "?severity=high&type=stalled_ticket", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.anomalies.On("GetCurrentAnomalies", mock.Anything).Return(sampleAnomalies(), nil).Once()

			recorder := env.do(t, stdhttp.MethodGet, "/api/v1/anomalies/current"+tt.query, "", env.token(t))

			require.Equal(t, stdhttp.StatusOK, recorder.Code)
			body := decodeEnvelope(t, recorder)
			assert.True(t, body.Success)
			assert.Equal(t, len(tt.wantIDs), body.Count)

			var got []domain.Anomaly
			require.NoError(t, json.Unmarshal(body.Data, &got))
			ids := make([]string, 0, len(got))
			for _, a := range got {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestAnomalyHandler_GetCurrent_InvalidFilters(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode int
	}{
		{"unknown severity", "?severity=low", stdhttp.StatusBadRequest},
		{"unknown type", "?type=ml_outlier", stdhttp.StatusBadRequest},
		{"non numeric limit", "?limit=ten", stdhttp.StatusUnprocessableEntity},
		{"limit out of range", "?limit=5000", stdhttp.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			recorder := env.do(t, stdhttp.MethodGet, "/api/v1/anomalies/current"+tt.query, "", env.token(t))

			require.Equal(t, tt.wantCode, recorder.Code)
			body := decodeEnvelope(t, recorder)
			assert.False(t, body.Success)
			assert.Equal(t, "VALIDATION_ERROR", body.Code)
			env.anomalies.AssertNotCalled(t, "GetCurrentAnomalies", mock.Anything)
		})
	}
}

func TestAnomalyHandler_GetCurrent_ServiceError(t *testing.T) {
	env := newTestEnv(t)
	env.anomalies.On("GetCurrentAnomalies", mock.Anything).Return(nil, context.Canceled).Once()

	recorder := env.do(t, stdhttp.MethodGet, "/api/v1/anomalies/current", "", env.token(t))

	require.Equal(t, stdhttp.StatusServiceUnavailable, recorder.Code)
	assert.Equal(t, "REQUEST_CANCELLED", decodeEnvelope(t, recorder).Code)
}

func TestAnomalyHandler_GetDashboard(t *testing.T) {
	env := newTestEnv(t)
	baseline := domain.EmptyBaseline()
	baseline.Daily.Mean = 4
	baseline.TotalTickets = 80
	view := domain.NewDashboardView(sampleAnomalies(), baseline, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	env.anomalies.On("GetDashboard", mock.Anything).Return(&view, nil).Once()

	recorder := env.do(t, stdhttp.MethodGet, "/api/v1/anomalies/dashboard", "", env.token(t))

	require.Equal(t, stdhttp.StatusOK, recorder.Code)
	body := decodeEnvelope(t, recorder)

	var got domain.DashboardView
	require.NoError(t, json.Unmarshal(body.Data, &got))
	assert.Equal(t, 4, got.Anomalies.Total)
	assert.Equal(t, 1, got.Anomalies.High)
	assert.Equal(t, 3, got.Anomalies.Medium)
	assert.Equal(t, 80, got.Baseline.TotalTicketsAnalyzed)
}

func TestAnomalyHandler_GetBaseline(t *testing.T) {
	t.Run("untrained", func(t *testing.T) {
		env := newTestEnv(t)
		env.anomalies.On("GetBaseline", mock.Anything).Return(nil, apperrors.ErrBaselineNotCalculated).Once()

		recorder := env.do(t, stdhttp.MethodGet, "/api/v1/anomalies/baseline", "", env.token(t))

		require.Equal(t, stdhttp.StatusConflict, recorder.Code)
		assert.Equal(t, "BASELINE_NOT_CALCULATED", decodeEnvelope(t, recorder).Code)
	})

	t.Run("trained", func(t *testing.T) {
		env := newTestEnv(t)
		baseline := domain.EmptyBaseline()
		baseline.TotalTickets = 42
		baseline.IssueTypes["Bug"] = 42
		env.anomalies.On("GetBaseline", mock.Anything).Return(&baseline, nil).Once()

		recorder := env.do(t, stdhttp.MethodGet, "/api/v1/anomalies/baseline", "", env.token(t))

		require.Equal(t, stdhttp.StatusOK, recorder.Code)
		var got domain.BaselineSnapshot
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, recorder).Data, &got))
		assert.Equal(t, 42, got.TotalTickets)
		assert.Equal(t, 42, got.IssueTypes["Bug"])
	})
}

func TestAnomalyHandler_GetStatus(t *testing.T) {
	env := newTestEnv(t)
	env.anomalies.On("GetStatus", mock.Anything).Return(domain.EngineStatus{Trained: false}).Once()

	recorder := env.do(t, stdhttp.MethodGet, "/api/v1/anomalies/status", "", env.token(t))

	require.Equal(t, stdhttp.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"trained":false,"anomaliesDetected":0,"lastTraining":null}`, string(decodeEnvelope(t, recorder).Data))
}

func TestAnomalyHandler_ListTypes(t *testing.T) {
	env := newTestEnv(t)
	env.anomalies.On("ListAnomalyTypes").Return(domain.AnomalyCatalog()).Once()

	recorder := env.do(t, stdhttp.MethodGet, "/api/v1/anomalies/types", "", env.token(t))

	require.Equal(t, stdhttp.StatusOK, recorder.Code)
	body := decodeEnvelope(t, recorder)
	assert.Equal(t, len(domain.AnomalyCatalog()), body.Count)
}
