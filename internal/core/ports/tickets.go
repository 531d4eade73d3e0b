package ports

import (
	"context"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// TicketLoader supplies the ticket corpus the engine evaluates. It may
// return an empty slice; a failure means no data could be produced.
type TicketLoader interface {
	Load(ctx context.Context) ([]domain.TicketRecord, error)
}

// TicketSourceChecker reports whether the ticket source is reachable.
type TicketSourceChecker interface {
	Ping(ctx context.Context) error
}
