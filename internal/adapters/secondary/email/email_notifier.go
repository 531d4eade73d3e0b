package email

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lorrc/service-desk-insights/internal/core/ports"
	"github.com/lorrc/service-desk-insights/internal/infrastructure/logging"
)

// MockSMTPNotifier is a secondary adapter that mocks sending anomaly alert
// emails to the support desk manager.
// It implements the ports.AlertNotifier interface.
type MockSMTPNotifier struct {
	recipient string
	logger    *slog.Logger
}

var _ ports.AlertNotifier = (*MockSMTPNotifier)(nil)

// NewMockSMTPNotifier creates a new mock notifier sending to recipient.
func NewMockSMTPNotifier(recipient string, logger *slog.Logger) *MockSMTPNotifier {
	return &MockSMTPNotifier{
		recipient: recipient,
		logger:    logging.Component(logger, "email_notifier"),
	}
}

// Notify logs the alert instead of sending an email.
// It runs in a separate goroutine and should handle its own errors.
func (n *MockSMTPNotifier) Notify(ctx context.Context, params ports.AlertParams) {
	if n.recipient == "" {
		n.logger.Warn("no alert recipient configured, dropping alert",
			"anomaly_type", params.Anomaly.Type,
		)
		return
	}

	a := params.Anomaly
	n.logger.Info("mock email sent",
		"to_email", n.recipient,
		"subject", params.Subject,
		"body", params.Message,
		"anomaly_id", a.ID,
		"anomaly_type", a.Type,
		"severity", a.Severity,
		"value", a.Value,
		"threshold", a.Threshold,
		"tickets", strings.Join(a.Tickets, ","),
	)
}
