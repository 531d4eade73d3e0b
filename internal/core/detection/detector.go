package detection

import (
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// Detector evaluates a corpus against a baseline. Detectors are stateless
// and independent: running them in any order yields the same anomaly set.
type Detector interface {
	Name() string
	Detect(corpus *Corpus, baseline domain.BaselineSnapshot, now time.Time) []domain.Anomaly
}

// DefaultDetectors returns the four stock detectors configured by rules.
func DefaultDetectors(rules Rules) []Detector {
	return []Detector{
		NewCreationSpikeDetector(rules),
		NewAssignmentDetector(rules),
		NewStalledTicketDetector(rules),
		NewIssueTypeSpikeDetector(rules),
	}
}

// DetectAll runs every detector and concatenates their findings.
func DetectAll(detectors []Detector, corpus *Corpus, baseline domain.BaselineSnapshot, now time.Time) []domain.Anomaly {
	anomalies := make([]domain.Anomaly, 0)
	for _, d := range detectors {
		anomalies = append(anomalies, d.Detect(corpus, baseline, now)...)
	}
	return anomalies
}

func newAnomaly(kind domain.AnomalyType, severity domain.Severity, now time.Time) domain.Anomaly {
	return domain.Anomaly{
		ID:         uuid.NewString(),
		Type:       kind,
		Severity:   severity,
		Tickets:    []string{},
		DetectedAt: now,
	}
}

// classify returns high when value exceeds the high threshold, else medium.
func classify(value, highThreshold float64) domain.Severity {
	if value > highThreshold {
		return domain.SeverityHigh
	}
	return domain.SeverityMedium
}
