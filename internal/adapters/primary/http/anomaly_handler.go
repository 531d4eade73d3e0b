package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/service-desk-insights/internal/adapters/primary/validation"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
)

// maxAnomalyLimit caps the ?limit parameter of the current anomalies list.
const maxAnomalyLimit = 1000

// AnomalyHandler exposes the detection engine over HTTP.
type AnomalyHandler struct {
	service         ports.AnomalyService
	errorHandler    *ErrorHandler
	logger          *slog.Logger
	trainMiddleware []func(http.Handler) http.Handler
}

// NewAnomalyHandler creates a new anomaly handler. Middlewares passed in
// trainMiddleware wrap only the training endpoint.
func NewAnomalyHandler(
	service ports.AnomalyService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
	trainMiddleware ...func(http.Handler) http.Handler,
) *AnomalyHandler {
	return &AnomalyHandler{
		service:         service,
		errorHandler:    errorHandler,
		logger:          logger,
		trainMiddleware: trainMiddleware,
	}
}

// RegisterRoutes registers anomaly routes on the given router.
func (h *AnomalyHandler) RegisterRoutes(r chi.Router) {
	r.Route("/anomalies", func(r chi.Router) {
		r.With(h.trainMiddleware...).Post("/train", h.HandleTrain)
		r.Get("/current", h.HandleGetCurrent)
		r.Get("/dashboard", h.HandleGetDashboard)
		r.Get("/baseline", h.HandleGetBaseline)
		r.Get("/status", h.HandleGetStatus)
		r.Get("/types", h.HandleListTypes)
	})
}

// HandleTrain runs a full training pass.
func (h *AnomalyHandler) HandleTrain(w http.ResponseWriter, r *http.Request) {
	result := h.service.Train(r.Context())

	if !result.Trained {
		h.logger.WarnContext(r.Context(), "training request failed", "error", result.Error)
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: result.Error,
			Code:  "TRAINING_FAILED",
			Data:  result,
		})
		return
	}

	WriteJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Data:    result,
		Message: "Baseline trained",
	})
}

// HandleGetCurrent lists the anomalies in the current ticket set.
// Query params: severity, type, limit.
func (h *AnomalyHandler) HandleGetCurrent(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAnomalyFilter(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	anomalies, err := h.service.GetCurrentAnomalies(r.Context())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteList(w, filter.apply(anomalies))
}

// HandleGetDashboard returns the composed dashboard view.
func (h *AnomalyHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetDashboard(r.Context())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteSuccess(w, view)
}

// HandleGetBaseline returns the trained baseline snapshot.
func (h *AnomalyHandler) HandleGetBaseline(w http.ResponseWriter, r *http.Request) {
	baseline, err := h.service.GetBaseline(r.Context())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteSuccess(w, baseline)
}

// HandleGetStatus returns the engine status without triggering training.
func (h *AnomalyHandler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, h.service.GetStatus(r.Context()))
}

// HandleListTypes returns the anomaly type catalog.
func (h *AnomalyHandler) HandleListTypes(w http.ResponseWriter, r *http.Request) {
	WriteList(w, h.service.ListAnomalyTypes())
}

type anomalyFilter struct {
	severity    domain.Severity
	anomalyType domain.AnomalyType
	limit       int
}

func parseAnomalyFilter(r *http.Request) (anomalyFilter, error) {
	var filter anomalyFilter

	if s, ok := validation.QueryString(r, "severity"); ok {
		filter.severity = domain.Severity(s)
		if !filter.severity.IsValid() {
			return filter, fmt.Errorf("%w: %q", apperrors.ErrInvalidSeverity, s)
		}
	}

	if t, ok := validation.QueryString(r, "type"); ok {
		filter.anomalyType = domain.AnomalyType(t)
		if !filter.anomalyType.IsValid() {
			return filter, fmt.Errorf("%w: %q", apperrors.ErrInvalidAnomalyType, t)
		}
	}

	v := validation.NewValidator()
	filter.limit = v.QueryInt(r, "limit", 0)
	if filter.limit != 0 {
		v.Between("limit", filter.limit, 1, maxAnomalyLimit)
	}
	return filter, v.Err()
}

func (f anomalyFilter) apply(anomalies []domain.Anomaly) []domain.Anomaly {
	out := make([]domain.Anomaly, 0, len(anomalies))
	for _, a := range anomalies {
		if f.severity != "" && a.Severity != f.severity {
			continue
		}
		if f.anomalyType != "" && a.Type != f.anomalyType {
			continue
		}
		out = append(out, a)
		if f.limit > 0 && len(out) == f.limit {
			break
		}
	}
	return out
}
