package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
)

// TicketLoader is the secondary adapter reading the ticket corpus from
// the tickets table.
type TicketLoader struct {
	pool *pgxpool.Pool
}

// Ensure TicketLoader implements the ports interfaces.
var (
	_ ports.TicketLoader        = (*TicketLoader)(nil)
	_ ports.TicketSourceChecker = (*TicketLoader)(nil)
)

// NewTicketLoader creates a new ticket loader.
func NewTicketLoader(pool *pgxpool.Pool) *TicketLoader {
	return &TicketLoader{pool: pool}
}

// ticketRow mirrors the loaded columns. Every column except the key is
// nullable.
type ticketRow struct {
	Key       string
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
	Status    pgtype.Text
	Assignee  pgtype.Text
	IssueType pgtype.Text
}

func mapRowToDomain(row ticketRow) domain.TicketRecord {
	return domain.TicketRecord{
		Key:       row.Key,
		Created:   timeOrNil(row.CreatedAt),
		Updated:   timeOrNil(row.UpdatedAt),
		Status:    textOrEmpty(row.Status),
		Assignee:  textOrEmpty(row.Assignee),
		IssueType: textOrEmpty(row.IssueType),
	}
}

// Load returns every ticket in the table, oldest first.
func (l *TicketLoader) Load(ctx context.Context) ([]domain.TicketRecord, error) {
	const query = `
SELECT ticket_key, created_at, updated_at, status, assignee_name, issue_type
FROM tickets
ORDER BY created_at ASC NULLS LAST, ticket_key ASC
`

	rows, err := l.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}

	collected, err := pgx.CollectRows(rows, pgx.RowToStructByPos[ticketRow])
	if err != nil {
		return nil, fmt.Errorf("scan tickets: %w", err)
	}

	tickets := make([]domain.TicketRecord, 0, len(collected))
	for _, row := range collected {
		tickets = append(tickets, mapRowToDomain(row))
	}
	return tickets, nil
}

// Import upserts ticket records by key.
func (l *TicketLoader) Import(ctx context.Context, tickets []domain.TicketRecord) error {
	const query = `
INSERT INTO tickets (ticket_key, created_at, updated_at, status, assignee_name, issue_type)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (ticket_key) DO UPDATE SET
    created_at    = EXCLUDED.created_at,
    updated_at    = EXCLUDED.updated_at,
    status        = EXCLUDED.status,
    assignee_name = EXCLUDED.assignee_name,
    issue_type    = EXCLUDED.issue_type,
    imported_at   = NOW()
`

	batch := &pgx.Batch{}
	for _, t := range tickets {
		batch.Queue(query,
			t.Key,
			nullTime(t.Created),
			nullTime(t.Updated),
			nullText(t.Status),
			nullText(t.Assignee),
			nullText(t.IssueType),
		)
	}

	if err := l.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("import tickets: %w", err)
	}
	return nil
}

// Ping checks that the ticket store is reachable.
func (l *TicketLoader) Ping(ctx context.Context) error {
	return l.pool.Ping(ctx)
}
