package detection

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// AssignmentDetector flags assignees with far more active tickets than the
// baseline average, and an excess of active unassigned tickets.
type AssignmentDetector struct {
	rules Rules
}

func NewAssignmentDetector(rules Rules) *AssignmentDetector {
	return &AssignmentDetector{rules: rules}
}

func (d *AssignmentDetector) Name() string {
	return "assignment_imbalance"
}

func (d *AssignmentDetector) Detect(corpus *Corpus, baseline domain.BaselineSnapshot, now time.Time) []domain.Anomaly {
	cutoff := now.Add(-d.rules.Assignment.Window)

	byAssignee := make(map[string][]string)
	var unassigned []string
	for _, t := range corpus.tickets {
		// Active: created inside the window and not in a terminal status.
		if !t.created.ok || t.created.t.Before(cutoff) || t.terminal {
			continue
		}
		if t.unassigned {
			unassigned = append(unassigned, t.key)
			continue
		}
		byAssignee[t.assignee] = append(byAssignee[t.assignee], t.key)
	}

	avg := baseline.Assignees.Mean
	threshold := avg * d.rules.Assignment.OverloadFactor
	highThreshold := avg * d.rules.Assignment.HighFactor

	names := make([]string, 0, len(byAssignee))
	for name := range byAssignee {
		names = append(names, name)
	}
	sort.Strings(names)

	var anomalies []domain.Anomaly
	for _, name := range names {
		keys := byAssignee[name]
		count := float64(len(keys))
		if count <= threshold {
			continue
		}
		a := newAnomaly(domain.AnomalyAssignmentOverload, classify(count, highThreshold), now)
		a.Message = fmt.Sprintf("%s has %d active tickets (threshold %.1f)", name, len(keys), threshold)
		a.Value = count
		a.Threshold = threshold
		a.Tickets = sample(keys, d.rules.SampleSize)
		a.Assignee = name
		anomalies = append(anomalies, a)
	}

	unassignedThreshold := math.Max(d.rules.Assignment.UnassignedFloor, avg*d.rules.Assignment.UnassignedFactor)
	if count := float64(len(unassigned)); count > unassignedThreshold {
		a := newAnomaly(domain.AnomalyUnassignedTickets, domain.SeverityMedium, now)
		a.Message = fmt.Sprintf("%d active tickets have no assignee (threshold %.1f)", len(unassigned), unassignedThreshold)
		a.Value = count
		a.Threshold = unassignedThreshold
		a.Tickets = sample(unassigned, d.rules.SampleSize)
		a.Assignee = domain.UnassignedBucket
		anomalies = append(anomalies, a)
	}

	return anomalies
}
