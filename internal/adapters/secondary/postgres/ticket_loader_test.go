package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

func ptr(t time.Time) *time.Time {
	return &t
}

func TestTicketLoader_Load(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	loader := NewTicketLoader(pool)

	t.Run("empty table", func(t *testing.T) {
		tickets, err := loader.Load(ctx)

		require.NoError(t, err)
		assert.Empty(t, tickets)
	})

	t.Run("round trip with nullable columns", func(t *testing.T) {
		created := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)
		updated := time.Date(2026, 3, 9, 17, 0, 0, 0, time.UTC)

		err := loader.Import(ctx, []domain.TicketRecord{
			{Key: "SD-2", Created: ptr(created.Add(time.Hour)), Status: "Open"},
			{Key: "SD-1", Created: ptr(created), Updated: ptr(updated), Status: "Done", Assignee: "Alice", IssueType: "Bug"},
			{Key: "SD-3"},
		})
		require.NoError(t, err)

		tickets, err := loader.Load(ctx)
		require.NoError(t, err)
		require.Len(t, tickets, 3)

		assert.Equal(t, "SD-1", tickets[0].Key)
		require.NotNil(t, tickets[0].Created)
		assert.True(t, created.Equal(*tickets[0].Created))
		assert.True(t, updated.Equal(*tickets[0].Updated))
		assert.Equal(t, "Alice", tickets[0].Assignee)
		assert.Equal(t, "Bug", tickets[0].IssueType)

		assert.Equal(t, "SD-2", tickets[1].Key)
		assert.Nil(t, tickets[1].Updated)
		assert.Empty(t, tickets[1].Assignee)
		assert.True(t, tickets[1].IsUnassigned())

		// NULL created_at sorts last.
		assert.Equal(t, "SD-3", tickets[2].Key)
		assert.Nil(t, tickets[2].Created)
		assert.Empty(t, tickets[2].Status)
	})

	t.Run("import upserts by key", func(t *testing.T) {
		require.NoError(t, loader.Import(ctx, []domain.TicketRecord{{Key: "SD-1", Status: "Closed"}}))

		tickets, err := loader.Load(ctx)
		require.NoError(t, err)

		var found bool
		for _, ticket := range tickets {
			if ticket.Key == "SD-1" {
				found = true
				assert.Equal(t, "Closed", ticket.Status)
				assert.Nil(t, ticket.Created)
			}
		}
		assert.True(t, found)
	})
}

func TestTicketLoader_Ping(t *testing.T) {
	pool := requireDB(t)

	assert.NoError(t, NewTicketLoader(pool).Ping(context.Background()))
}

func TestTicketLoader_LoadCancelled(t *testing.T) {
	pool := requireDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTicketLoader(pool).Load(ctx)

	assert.Error(t, err)
}
