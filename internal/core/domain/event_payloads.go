package domain

import (
	"time"
)

// TrainingEventPayload is broadcast after a successful training run.
type TrainingEventPayload struct {
	TicketsAnalyzed       int     `json:"ticketsAnalyzed"`
	AvgDailyTickets       float64 `json:"avgDailyTickets"`
	AvgTicketsPerAssignee float64 `json:"avgTicketsPerAssignee"`
	CalculatedAt          string  `json:"calculatedAt"`
}

// AnomaliesEventPayload is broadcast after every detection pass.
type AnomaliesEventPayload struct {
	AnomalyCounts
	Types      map[AnomalyType]int `json:"types"`
	DetectedAt string              `json:"detectedAt"`
}

// NewTrainingEventPayload builds the payload from a fresh baseline.
func NewTrainingEventPayload(baseline BaselineSnapshot) TrainingEventPayload {
	return TrainingEventPayload{
		TicketsAnalyzed:       baseline.TotalTickets,
		AvgDailyTickets:       baseline.Daily.Mean,
		AvgTicketsPerAssignee: baseline.Assignees.Mean,
		CalculatedAt:          baseline.CalculatedAt.UTC().Format(time.RFC3339),
	}
}

// NewAnomaliesEventPayload builds the payload from a detection pass.
func NewAnomaliesEventPayload(anomalies []Anomaly, detectedAt time.Time) AnomaliesEventPayload {
	types := make(map[AnomalyType]int)
	for _, a := range anomalies {
		types[a.Type]++
	}
	return AnomaliesEventPayload{
		AnomalyCounts: CountBySeverity(anomalies),
		Types:         types,
		DetectedAt:    detectedAt.UTC().Format(time.RFC3339),
	}
}
