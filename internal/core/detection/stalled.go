package detection

import (
	"fmt"
	"math"
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// StalledTicketDetector flags open tickets that have not been updated for
// much longer than their status usually takes.
type StalledTicketDetector struct {
	rules Rules
}

func NewStalledTicketDetector(rules Rules) *StalledTicketDetector {
	return &StalledTicketDetector{rules: rules}
}

func (d *StalledTicketDetector) Name() string {
	return string(domain.AnomalyStalledTicket)
}

func (d *StalledTicketDetector) Detect(corpus *Corpus, baseline domain.BaselineSnapshot, now time.Time) []domain.Anomaly {
	var anomalies []domain.Anomaly
	for _, t := range corpus.tickets {
		if t.terminal || !t.updated.ok {
			continue
		}

		hours := now.Sub(t.updated.t).Hours()
		avg, ok := baseline.AvgDurationFor(t.status)
		if !ok {
			avg = d.rules.Stalled.DefaultStatusHours
		}
		threshold := avg * d.rules.Stalled.Factor

		// Both the relative threshold and the absolute floor must be exceeded.
		if hours <= threshold || hours <= d.rules.Stalled.FloorHours {
			continue
		}

		a := newAnomaly(domain.AnomalyStalledTicket, classify(hours, avg*d.rules.Stalled.HighFactor), now)
		a.Message = fmt.Sprintf("%s has been in %q for %.1f hours without updates (threshold %.1f)", t.key, t.status, hours, threshold)
		a.Value = hours
		a.Threshold = threshold
		a.Tickets = []string{t.key}
		a.Status = t.status
		a.HoursStalled = math.Round(hours*10) / 10
		anomalies = append(anomalies, a)
	}
	return anomalies
}
