package detection

import (
	"fmt"
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// CreationSpikeDetector flags hours in the recent window whose creation
// count is far above the baseline hourly mean.
type CreationSpikeDetector struct {
	rules Rules
}

func NewCreationSpikeDetector(rules Rules) *CreationSpikeDetector {
	return &CreationSpikeDetector{rules: rules}
}

func (d *CreationSpikeDetector) Name() string {
	return string(domain.AnomalyCreationSpike)
}

func (d *CreationSpikeDetector) Detect(corpus *Corpus, baseline domain.BaselineSnapshot, now time.Time) []domain.Anomaly {
	buckets := make([][]string, d.rules.creationBuckets())
	for _, t := range corpus.tickets {
		if !t.created.ok {
			continue
		}
		age := now.Sub(t.created.t)
		if age < 0 || age >= d.rules.CreationSpike.Window {
			continue
		}
		hoursAgo := int(age / time.Hour)
		if hoursAgo >= len(buckets) {
			continue
		}
		buckets[hoursAgo] = append(buckets[hoursAgo], t.key)
	}

	mean := baseline.Hourly.Mean
	threshold := mean * d.rules.CreationSpike.MediumFactor
	highThreshold := mean * d.rules.CreationSpike.HighFactor

	var anomalies []domain.Anomaly
	for hoursAgo, keys := range buckets {
		if len(keys) == 0 {
			continue
		}
		count := float64(len(keys))
		if count <= threshold {
			continue
		}

		observedAt := now.Add(-time.Duration(hoursAgo) * time.Hour)
		a := newAnomaly(domain.AnomalyCreationSpike, classify(count, highThreshold), now)
		a.Message = fmt.Sprintf("%d tickets created in one hour, %d hour(s) ago (threshold %.1f)", len(keys), hoursAgo, threshold)
		a.Value = count
		a.Threshold = threshold
		a.Tickets = sample(keys, d.rules.SampleSize)
		a.Timestamp = &observedAt
		anomalies = append(anomalies, a)
	}
	return anomalies
}
