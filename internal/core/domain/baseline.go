package domain

import "time"

// DailyStats summarises ticket creation per calendar day.
type DailyStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std"`
	Max    int     `json:"max"`
	Min    int     `json:"min"`
}

// HourlyStats summarises ticket creation per hour of day (0-23).
type HourlyStats struct {
	PeakHours []int   `json:"peakHours"`
	Mean      float64 `json:"meanPerHour"`
}

// AssigneeStats summarises ticket load per assignee.
type AssigneeStats struct {
	Mean   float64        `json:"mean"`
	StdDev float64        `json:"std"`
	Max    int            `json:"max"`
	Counts map[string]int `json:"distribution"`
}

// StatusDuration holds created-to-updated durations for a status, in hours.
type StatusDuration struct {
	AvgHours float64 `json:"avgHours"`
	MaxHours float64 `json:"maxHours"`
}

// BaselineSnapshot is the historical-normal picture of a ticket corpus.
// A snapshot is never mutated after it is built.
type BaselineSnapshot struct {
	Daily           DailyStats                `json:"dailyTickets"`
	Hourly          HourlyStats               `json:"hourlyDistribution"`
	Assignees       AssigneeStats             `json:"assigneeLoad"`
	StatusDurations map[string]StatusDuration `json:"statusDurations"`
	IssueTypes      map[string]int            `json:"issueTypeDistribution"`
	TotalTickets    int                       `json:"totalTickets"`
	CalculatedAt    time.Time                 `json:"calculatedAt"`
}

// EmptyBaseline returns the zero-valued snapshot with all maps allocated.
func EmptyBaseline() BaselineSnapshot {
	return BaselineSnapshot{
		Hourly:          HourlyStats{PeakHours: []int{}},
		Assignees:       AssigneeStats{Counts: map[string]int{}},
		StatusDurations: map[string]StatusDuration{},
		IssueTypes:      map[string]int{},
	}
}

// AvgDurationFor returns the average duration for status and whether the
// status was present when the baseline was computed.
func (b BaselineSnapshot) AvgDurationFor(status string) (float64, bool) {
	d, ok := b.StatusDurations[status]
	return d.AvgHours, ok
}

// IssueTypeTotal is the sum of the issue-type histogram.
func (b BaselineSnapshot) IssueTypeTotal() int {
	total := 0
	for _, count := range b.IssueTypes {
		total += count
	}
	return total
}

// BaselineSummary is the trimmed baseline view shown on the dashboard.
type BaselineSummary struct {
	AvgDailyTickets       float64 `json:"avgDailyTickets"`
	AvgTicketsPerAssignee float64 `json:"avgTicketsPerAssignee"`
	TotalTicketsAnalyzed  int     `json:"totalTicketsAnalyzed"`
}

// Summary trims the snapshot down to its dashboard figures.
func (b BaselineSnapshot) Summary() BaselineSummary {
	return BaselineSummary{
		AvgDailyTickets:       b.Daily.Mean,
		AvgTicketsPerAssignee: b.Assignees.Mean,
		TotalTicketsAnalyzed:  b.TotalTickets,
	}
}
