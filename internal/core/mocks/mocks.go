package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
)

// MockTicketLoader is a mock implementation of ports.TicketLoader
type MockTicketLoader struct {
	mock.Mock
}

func NewMockTicketLoader() *MockTicketLoader {
	return &MockTicketLoader{}
}

func (m *MockTicketLoader) Load(ctx context.Context) ([]domain.TicketRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TicketRecord), args.Error(1)
}

// MockTicketSourceChecker is a mock implementation of ports.TicketSourceChecker
type MockTicketSourceChecker struct {
	mock.Mock
}

func (m *MockTicketSourceChecker) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockAlertNotifier is a mock implementation of ports.AlertNotifier
type MockAlertNotifier struct {
	mock.Mock
}

func NewMockAlertNotifier() *MockAlertNotifier {
	return &MockAlertNotifier{}
}

func (m *MockAlertNotifier) Notify(ctx context.Context, params ports.AlertParams) {
	m.Called(ctx, params)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockAnomalyService is a mock implementation of ports.AnomalyService
type MockAnomalyService struct {
	mock.Mock
}

func NewMockAnomalyService() *MockAnomalyService {
	return &MockAnomalyService{}
}

func (m *MockAnomalyService) Train(ctx context.Context) domain.TrainingResult {
	args := m.Called(ctx)
	return args.Get(0).(domain.TrainingResult)
}

func (m *MockAnomalyService) GetCurrentAnomalies(ctx context.Context) ([]domain.Anomaly, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Anomaly), args.Error(1)
}

func (m *MockAnomalyService) GetDashboard(ctx context.Context) (*domain.DashboardView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardView), args.Error(1)
}

func (m *MockAnomalyService) GetBaseline(ctx context.Context) (*domain.BaselineSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BaselineSnapshot), args.Error(1)
}

func (m *MockAnomalyService) GetStatus(ctx context.Context) domain.EngineStatus {
	args := m.Called(ctx)
	return args.Get(0).(domain.EngineStatus)
}

func (m *MockAnomalyService) ListAnomalyTypes() []domain.AnomalyTypeInfo {
	args := m.Called()
	return args.Get(0).([]domain.AnomalyTypeInfo)
}

func (m *MockAnomalyService) Shutdown() {
	m.Called()
}

// MockAuthService is a mock implementation of ports.AuthService
type MockAuthService struct {
	mock.Mock
}

func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (*domain.Operator, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Operator), args.Error(1)
}

var (
	_ ports.TicketLoader        = (*MockTicketLoader)(nil)
	_ ports.TicketSourceChecker = (*MockTicketSourceChecker)(nil)
	_ ports.AlertNotifier       = (*MockAlertNotifier)(nil)
	_ ports.EventBroadcaster    = (*MockEventBroadcaster)(nil)
	_ ports.AnomalyService      = (*MockAnomalyService)(nil)
	_ ports.AuthService         = (*MockAuthService)(nil)
)
