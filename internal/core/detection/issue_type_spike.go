package detection

import (
	"fmt"
	"sort"
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// IssueTypeSpikeDetector flags issue types whose recent share is far above
// their historical share. Types the baseline never saw are skipped.
type IssueTypeSpikeDetector struct {
	rules Rules
}

func NewIssueTypeSpikeDetector(rules Rules) *IssueTypeSpikeDetector {
	return &IssueTypeSpikeDetector{rules: rules}
}

func (d *IssueTypeSpikeDetector) Name() string {
	return string(domain.AnomalyIssueTypeSpike)
}

func (d *IssueTypeSpikeDetector) Detect(corpus *Corpus, baseline domain.BaselineSnapshot, now time.Time) []domain.Anomaly {
	baselineTotal := baseline.IssueTypeTotal()
	if baselineTotal == 0 {
		return nil
	}

	cutoff := now.Add(-d.rules.IssueTypeSpike.Window)
	recent := make(map[string][]string)
	recentTotal := 0
	for _, t := range corpus.tickets {
		if !t.created.ok || t.created.t.Before(cutoff) || t.issueType == "" {
			continue
		}
		recent[t.issueType] = append(recent[t.issueType], t.key)
		recentTotal++
	}

	types := make([]string, 0, len(recent))
	for issueType := range recent {
		types = append(types, issueType)
	}
	sort.Strings(types)

	var anomalies []domain.Anomaly
	for _, issueType := range types {
		baselineCount, ok := baseline.IssueTypes[issueType]
		if !ok {
			continue
		}

		keys := recent[issueType]
		count := len(keys)
		expected := float64(baselineCount) / float64(baselineTotal) * float64(recentTotal)
		threshold := expected * d.rules.IssueTypeSpike.Factor
		if float64(count) <= threshold || count <= d.rules.IssueTypeSpike.MinCount {
			continue
		}

		a := newAnomaly(domain.AnomalyIssueTypeSpike, domain.SeverityMedium, now)
		a.Message = fmt.Sprintf("%d %q tickets in the recent window, expected %.1f", count, issueType, expected)
		a.Value = float64(count)
		a.Threshold = threshold
		a.Tickets = sample(keys, d.rules.SampleSize)
		a.IssueType = issueType
		a.Expected = expected
		anomalies = append(anomalies, a)
	}
	return anomalies
}
