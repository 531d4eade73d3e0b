package ports

import (
	"context"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// AnomalyService defines the engine operations exposed to the API layer.
type AnomalyService interface {
	Train(ctx context.Context) domain.TrainingResult
	GetCurrentAnomalies(ctx context.Context) ([]domain.Anomaly, error)
	GetDashboard(ctx context.Context) (*domain.DashboardView, error)
	GetBaseline(ctx context.Context) (*domain.BaselineSnapshot, error)
	GetStatus(ctx context.Context) domain.EngineStatus
	ListAnomalyTypes() []domain.AnomalyTypeInfo
	Shutdown()
}

// AuthService defines the port for operator authentication.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*domain.Operator, error)
}

// AlertParams defines the input for sending an anomaly alert.
type AlertParams struct {
	Subject string
	Message string
	Anomaly domain.Anomaly
}

// AlertNotifier defines the port for sending asynchronous anomaly alerts.
type AlertNotifier interface {
	Notify(ctx context.Context, params AlertParams)
}

// EventBroadcaster defines the port for pushing real-time events to
// connected dashboard clients.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}
