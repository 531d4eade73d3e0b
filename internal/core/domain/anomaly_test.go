package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

func TestSeverity_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		severity domain.Severity
		want     bool
	}{
		{"high is valid", domain.SeverityHigh, true},
		{"medium is valid", domain.SeverityMedium, true},
		{"empty is invalid", domain.Severity(""), false},
		{"low is invalid", domain.Severity("low"), false},
		{"uppercase is invalid", domain.Severity("HIGH"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.severity.IsValid())
		})
	}
}

func TestAnomalyType_IsValid(t *testing.T) {
	for _, info := range domain.AnomalyCatalog() {
		assert.True(t, info.Type.IsValid(), info.Type)
	}
	assert.False(t, domain.AnomalyType("").IsValid())
	assert.False(t, domain.AnomalyType("ml_outlier").IsValid())
}

func TestSortAnomalies(t *testing.T) {
	anomalies := []domain.Anomaly{
		{Type: domain.AnomalyStalledTicket, Severity: domain.SeverityMedium, Value: 50, Tickets: []string{"B-1"}},
		{Type: domain.AnomalyStalledTicket, Severity: domain.SeverityMedium, Value: 50, Tickets: []string{"A-1"}},
		{Type: domain.AnomalyAssignmentOverload, Severity: domain.SeverityMedium, Value: 11},
		{Type: domain.AnomalyStalledTicket, Severity: domain.SeverityHigh, Value: 120},
		{Type: domain.AnomalyStalledTicket, Severity: domain.SeverityMedium, Value: 90},
		{Type: domain.AnomalyCreationSpike, Severity: domain.SeverityHigh, Value: 26},
	}

	domain.SortAnomalies(anomalies)

	got := make([]string, 0, len(anomalies))
	for _, a := range anomalies {
		key := ""
		if len(a.Tickets) > 0 {
			key = a.Tickets[0]
		}
		got = append(got, string(a.Severity)+"/"+string(a.Type)+"/"+key)
	}
	assert.Equal(t, []string{
		"high/creation_spike/",
		"high/stalled_ticket/",
		"medium/assignment_overload/",
		"medium/stalled_ticket/",
		"medium/stalled_ticket/A-1",
		"medium/stalled_ticket/B-1",
	}, got)
	assert.Equal(t, 90.0, anomalies[3].Value)
}

func TestNewDashboardView(t *testing.T) {
	generatedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("counts and summary", func(t *testing.T) {
		baseline := domain.EmptyBaseline()
		baseline.Daily.Mean = 4.5
		baseline.Assignees.Mean = 3
		baseline.TotalTickets = 90

		anomalies := []domain.Anomaly{
			{Type: domain.AnomalyStalledTicket, Severity: domain.SeverityMedium},
			{Type: domain.AnomalyCreationSpike, Severity: domain.SeverityHigh},
			{Type: domain.AnomalyIssueTypeSpike, Severity: domain.SeverityMedium},
		}

		view := domain.NewDashboardView(anomalies, baseline, generatedAt)

		assert.Equal(t, domain.AnomalyCounts{Total: 3, High: 1, Medium: 2}, view.Anomalies.AnomalyCounts)
		require.Len(t, view.Anomalies.Details, 3)
		assert.Equal(t, domain.AnomalyCreationSpike, view.Anomalies.Details[0].Type)
		assert.Equal(t, domain.BaselineSummary{
			AvgDailyTickets:       4.5,
			AvgTicketsPerAssignee: 3,
			TotalTicketsAnalyzed:  90,
		}, view.Baseline)
		assert.Equal(t, generatedAt, view.GeneratedAt)

		// Input order is untouched.
		assert.Equal(t, domain.AnomalyStalledTicket, anomalies[0].Type)
	})

	t.Run("empty", func(t *testing.T) {
		view := domain.NewDashboardView(nil, domain.EmptyBaseline(), generatedAt)

		assert.Equal(t, 0, view.Anomalies.Total)
		assert.NotNil(t, view.Anomalies.Details)
		assert.Empty(t, view.Anomalies.Details)
		assert.Equal(t, domain.BaselineSummary{}, view.Baseline)
	})
}

func TestNewAnomaliesEventPayload(t *testing.T) {
	detectedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	anomalies := []domain.Anomaly{
		{Type: domain.AnomalyStalledTicket, Severity: domain.SeverityMedium},
		{Type: domain.AnomalyStalledTicket, Severity: domain.SeverityHigh},
		{Type: domain.AnomalyUnassignedTickets, Severity: domain.SeverityMedium},
	}

	payload := domain.NewAnomaliesEventPayload(anomalies, detectedAt)

	assert.Equal(t, 3, payload.Total)
	assert.Equal(t, 1, payload.High)
	assert.Equal(t, map[domain.AnomalyType]int{
		domain.AnomalyStalledTicket:     2,
		domain.AnomalyUnassignedTickets: 1,
	}, payload.Types)
	assert.Equal(t, "2026-03-10T12:00:00Z", payload.DetectedAt)
}

func TestTicketRecord_AssigneeBucket(t *testing.T) {
	tests := []struct {
		assignee string
		want     string
	}{
		{"Alice", "Alice"},
		{"", domain.UnassignedBucket},
		{"Unassigned", domain.UnassignedBucket},
		{"unassigned", "unassigned"},
	}

	for _, tt := range tests {
		t.Run(tt.assignee, func(t *testing.T) {
			ticket := domain.TicketRecord{Assignee: tt.assignee}
			assert.Equal(t, tt.want, ticket.AssigneeBucket())
		})
	}
}

func TestBaselineSnapshot_Helpers(t *testing.T) {
	baseline := domain.EmptyBaseline()
	baseline.IssueTypes["Bug"] = 30
	baseline.IssueTypes["Task"] = 70
	baseline.StatusDurations["Open"] = domain.StatusDuration{AvgHours: 12, MaxHours: 40}

	assert.Equal(t, 100, baseline.IssueTypeTotal())

	avg, ok := baseline.AvgDurationFor("Open")
	assert.True(t, ok)
	assert.Equal(t, 12.0, avg)

	_, ok = baseline.AvgDurationFor("Blocked")
	assert.False(t, ok)
}
