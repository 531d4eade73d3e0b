package detection

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
	"github.com/lorrc/service-desk-insights/internal/infrastructure/logging"
)

const peakHourCount = 3

// BaselineCalculator computes baseline snapshots in a single pass over a
// corpus.
type BaselineCalculator struct {
	logger *slog.Logger
}

// NewBaselineCalculator creates a new baseline calculator
func NewBaselineCalculator(logger *slog.Logger) *BaselineCalculator {
	return &BaselineCalculator{
		logger: logging.Component(logger, "baseline_calculator"),
	}
}

type durationAcc struct {
	sum   float64
	max   float64
	count int
}

// Calculate builds a snapshot from the corpus. An empty corpus yields the
// empty baseline. A ticket missing a field is left out of the aggregates
// that need that field only.
func (c *BaselineCalculator) Calculate(corpus *Corpus, calculatedAt time.Time) domain.BaselineSnapshot {
	snapshot := domain.EmptyBaseline()
	if corpus == nil || corpus.Len() == 0 {
		return snapshot
	}

	daily := make(map[string]int)
	hourly := make(map[int]int)
	assignees := make(map[string]int)
	durations := make(map[string]*durationAcc)
	issueTypes := make(map[string]int)

	for _, t := range corpus.tickets {
		assignees[t.assignee]++

		if t.issueType != "" {
			issueTypes[t.issueType]++
		}

		if t.created.ok {
			created := t.created.t.UTC()
			daily[created.Format(time.DateOnly)]++
			hourly[created.Hour()]++
		}

		if t.created.ok && t.updated.ok && t.status != "" {
			hours := t.updated.t.Sub(t.created.t).Hours()
			if hours < 0 {
				hours = 0
			}
			acc, ok := durations[t.status]
			if !ok {
				acc = &durationAcc{}
				durations[t.status] = acc
			}
			acc.sum += hours
			acc.count++
			if hours > acc.max {
				acc.max = hours
			}
		}
	}

	snapshot.Daily = dailyStats(daily)
	snapshot.Hourly = hourlyStats(hourly)
	snapshot.Assignees = assigneeStats(assignees)
	for status, acc := range durations {
		snapshot.StatusDurations[status] = domain.StatusDuration{
			AvgHours: acc.sum / float64(acc.count),
			MaxHours: acc.max,
		}
	}
	snapshot.IssueTypes = issueTypes
	snapshot.TotalTickets = corpus.Len()
	snapshot.CalculatedAt = calculatedAt

	if corpus.MissingCreated() > 0 || corpus.MissingUpdated() > 0 {
		c.logger.Debug("records skipped for time-based aggregates",
			"missing_created", corpus.MissingCreated(),
			"missing_updated", corpus.MissingUpdated(),
		)
	}

	return snapshot
}

func dailyStats(counts map[string]int) domain.DailyStats {
	if len(counts) == 0 {
		return domain.DailyStats{}
	}
	values, minCount, maxCount := countValues(counts)
	mean, std := stat.PopMeanStdDev(values, nil)
	return domain.DailyStats{
		Mean:   mean,
		StdDev: std,
		Max:    maxCount,
		Min:    minCount,
	}
}

func hourlyStats(counts map[int]int) domain.HourlyStats {
	stats := domain.HourlyStats{PeakHours: []int{}}
	if len(counts) == 0 {
		return stats
	}

	hours := make([]int, 0, len(counts))
	values := make([]float64, 0, len(counts))
	for hour, count := range counts {
		hours = append(hours, hour)
		values = append(values, float64(count))
	}
	sort.Slice(hours, func(i, j int) bool {
		if counts[hours[i]] != counts[hours[j]] {
			return counts[hours[i]] > counts[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > peakHourCount {
		hours = hours[:peakHourCount]
	}

	stats.PeakHours = hours
	stats.Mean = stat.Mean(values, nil)
	return stats
}

func assigneeStats(counts map[string]int) domain.AssigneeStats {
	if len(counts) == 0 {
		return domain.AssigneeStats{Counts: map[string]int{}}
	}
	values, _, maxCount := countValues(counts)
	mean, std := stat.PopMeanStdDev(values, nil)
	return domain.AssigneeStats{
		Mean:   mean,
		StdDev: std,
		Max:    maxCount,
		Counts: counts,
	}
}

func countValues[K comparable](counts map[K]int) (values []float64, minCount, maxCount int) {
	values = make([]float64, 0, len(counts))
	first := true
	for _, count := range counts {
		values = append(values, float64(count))
		if first || count < minCount {
			minCount = count
		}
		if first || count > maxCount {
			maxCount = count
		}
		first = false
	}
	return values, minCount, maxCount
}
