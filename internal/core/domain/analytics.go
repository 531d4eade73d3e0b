package domain

import (
	"time"
)

// TrainingResult reports the outcome of one training run.
type TrainingResult struct {
	Trained               bool    `json:"trained"`
	TicketsAnalyzed       int     `json:"ticketsAnalyzed"`
	AnomaliesDetected     int     `json:"anomaliesDetected"`
	AvgDailyTickets       float64 `json:"avgDailyTickets"`
	AvgTicketsPerAssignee float64 `json:"avgTicketsPerAssignee"`
	DurationSeconds       float64 `json:"durationSeconds"`
	Timestamp             string  `json:"timestamp"`
	Error                 string  `json:"error,omitempty"`
}

// EngineStatus is the lightweight status view of the engine.
type EngineStatus struct {
	Trained           bool    `json:"trained"`
	AnomaliesDetected int     `json:"anomaliesDetected"`
	LastTraining      *string `json:"lastTraining"`
}

// AnomalyCounts partitions an anomaly list by severity.
type AnomalyCounts struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
}

// DashboardAnomalies is the anomaly part of the dashboard.
type DashboardAnomalies struct {
	AnomalyCounts
	Details []Anomaly `json:"details"`
}

// DashboardView composes the baseline summary with the current anomalies.
type DashboardView struct {
	Anomalies   DashboardAnomalies `json:"anomalies"`
	Baseline    BaselineSummary    `json:"baseline"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// CountBySeverity partitions anomalies into high and medium counts.
func CountBySeverity(anomalies []Anomaly) AnomalyCounts {
	counts := AnomalyCounts{Total: len(anomalies)}
	for _, a := range anomalies {
		switch a.Severity {
		case SeverityHigh:
			counts.High++
		case SeverityMedium:
			counts.Medium++
		}
	}
	return counts
}

// NewDashboardView builds a dashboard from the detected anomalies and the
// baseline they were evaluated against.
func NewDashboardView(anomalies []Anomaly, baseline BaselineSnapshot, generatedAt time.Time) DashboardView {
	details := make([]Anomaly, len(anomalies))
	copy(details, anomalies)
	SortAnomalies(details)

	return DashboardView{
		Anomalies: DashboardAnomalies{
			AnomalyCounts: CountBySeverity(details),
			Details:       details,
		},
		Baseline:    baseline.Summary(),
		GeneratedAt: generatedAt,
	}
}
