package domain

import (
	"sort"
	"time"
)

// AnomalyType tags the condition an anomaly describes.
type AnomalyType string

const (
	AnomalyCreationSpike      AnomalyType = "creation_spike"
	AnomalyAssignmentOverload AnomalyType = "assignment_overload"
	AnomalyUnassignedTickets  AnomalyType = "unassigned_tickets"
	AnomalyStalledTicket      AnomalyType = "stalled_ticket"
	AnomalyIssueTypeSpike     AnomalyType = "issue_type_spike"
)

// IsValid checks if the anomaly type is part of the catalog.
func (t AnomalyType) IsValid() bool {
	switch t {
	case AnomalyCreationSpike, AnomalyAssignmentOverload, AnomalyUnassignedTickets,
		AnomalyStalledTicket, AnomalyIssueTypeSpike:
		return true
	}
	return false
}

// Severity is the two-level classification of an anomaly.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// IsValid checks if the severity is one of the known levels.
func (s Severity) IsValid() bool {
	return s == SeverityHigh || s == SeverityMedium
}

// Anomaly is one detected condition.
type Anomaly struct {
	ID         string      `json:"id"`
	Type       AnomalyType `json:"type"`
	Severity   Severity    `json:"severity"`
	Message    string      `json:"message"`
	Value      float64     `json:"value"`
	Threshold  float64     `json:"threshold"`
	Tickets    []string    `json:"tickets"`
	DetectedAt time.Time   `json:"detectedAt"`

	// Type-specific context.
	Timestamp    *time.Time `json:"timestamp,omitempty"`
	Assignee     string     `json:"assignee,omitempty"`
	Status       string     `json:"status,omitempty"`
	HoursStalled float64    `json:"hours_stalled,omitempty"`
	IssueType    string     `json:"issue_type,omitempty"`
	Expected     float64    `json:"expected,omitempty"`
}

// SortAnomalies orders anomalies high before medium, then by type, then by
// value descending, then by first ticket key.
func SortAnomalies(anomalies []Anomaly) {
	sort.SliceStable(anomalies, func(i, j int) bool {
		a, b := anomalies[i], anomalies[j]
		if a.Severity != b.Severity {
			return a.Severity == SeverityHigh
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		return firstKey(a) < firstKey(b)
	})
}

func firstKey(a Anomaly) string {
	if len(a.Tickets) == 0 {
		return ""
	}
	return a.Tickets[0]
}

// AnomalyTypeInfo describes one entry of the anomaly catalog.
type AnomalyTypeInfo struct {
	Type            AnomalyType `json:"type"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	DefaultSeverity Severity    `json:"severity"`
}

// AnomalyCatalog is the fixed reference table of anomaly types.
func AnomalyCatalog() []AnomalyTypeInfo {
	return []AnomalyTypeInfo{
		{
			Type:            AnomalyCreationSpike,
			Name:            "Creation spike",
			Description:     "Unusual number of tickets created within a single hour",
			DefaultSeverity: SeverityHigh,
		},
		{
			Type:            AnomalyAssignmentOverload,
			Name:            "Assignment overload",
			Description:     "An assignee holds far more active tickets than the average",
			DefaultSeverity: SeverityMedium,
		},
		{
			Type:            AnomalyUnassignedTickets,
			Name:            "Unassigned tickets",
			Description:     "Too many active tickets without an assignee",
			DefaultSeverity: SeverityMedium,
		},
		{
			Type:            AnomalyStalledTicket,
			Name:            "Stalled ticket",
			Description:     "Ticket has stayed in its status much longer than usual",
			DefaultSeverity: SeverityMedium,
		},
		{
			Type:            AnomalyIssueTypeSpike,
			Name:            "Issue type spike",
			Description:     "An issue type is far more frequent than its historical share",
			DefaultSeverity: SeverityMedium,
		},
	}
}
