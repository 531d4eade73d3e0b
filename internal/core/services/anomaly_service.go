package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/lorrc/service-desk-insights/internal/core/detection"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
	"github.com/lorrc/service-desk-insights/internal/infrastructure/logging"
	"github.com/lorrc/service-desk-insights/internal/infrastructure/metrics"
)

// engineState is the training state of the engine.
type engineState int

const (
	stateUntrained engineState = iota
	stateTrained
)

const (
	trainKey     = "train"
	lazyTrainKey = "lazy-train"

	// trainTimeout bounds a shared training run, which outlives the
	// request that started it.
	trainTimeout = 2 * time.Minute
)

// AnomalyService holds the current baseline and runs training, detection
// and dashboard composition on top of it.
type AnomalyService struct {
	loader      ports.TicketLoader
	notifier    ports.AlertNotifier
	broadcaster ports.EventBroadcaster
	rules       detection.Rules
	calculator  *detection.BaselineCalculator
	detectors   []detection.Detector
	logger      *slog.Logger
	now         func() time.Time

	// mu guards the fields below. The baseline pointer is replaced, never
	// mutated.
	mu               sync.RWMutex
	state            engineState
	baseline         *domain.BaselineSnapshot
	lastTraining     time.Time
	lastAnomalyCount int

	// alertMu guards the fingerprints of the previous detection pass.
	alertMu     sync.Mutex
	alerted     map[string]struct{}
	lastPublish map[string]struct{}

	trainGroup singleflight.Group
	wg         sync.WaitGroup
}

var _ ports.AnomalyService = (*AnomalyService)(nil)

// NewAnomalyService creates a new, untrained anomaly service. notifier and
// broadcaster may be nil.
func NewAnomalyService(
	loader ports.TicketLoader,
	notifier ports.AlertNotifier,
	broadcaster ports.EventBroadcaster,
	rules detection.Rules,
	logger *slog.Logger,
) *AnomalyService {
	logger = logging.Component(logger, "anomaly_service")
	return &AnomalyService{
		loader:      loader,
		notifier:    notifier,
		broadcaster: broadcaster,
		rules:       rules,
		calculator:  detection.NewBaselineCalculator(logger),
		detectors:   detection.DefaultDetectors(rules),
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the reference clock used for time windows.
func (s *AnomalyService) WithClock(now func() time.Time) *AnomalyService {
	s.now = now
	return s
}

// Train loads the ticket corpus, computes a new baseline and runs one
// detection pass against it. Concurrent calls share a single run. When no
// tickets are available the previous baseline is kept. The shared run is
// not cancelled with ctx.
func (s *AnomalyService) Train(ctx context.Context) domain.TrainingResult {
	result, _, _ := s.trainGroup.Do(trainKey, func() (interface{}, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), trainTimeout)
		defer cancel()
		return s.train(runCtx), nil
	})
	return result.(domain.TrainingResult)
}

func (s *AnomalyService) train(ctx context.Context) domain.TrainingResult {
	start := time.Now()
	now := s.now()
	ctx = logging.WithTrainingRun(ctx, uuid.NewString())

	result := domain.TrainingResult{
		Timestamp: now.Format(time.RFC3339),
	}

	tickets, err := s.loadTickets(ctx)
	if err != nil {
		return s.trainingFailed(ctx, result, start, fmt.Errorf("%w: %v", apperrors.ErrTicketSourceUnavailable, err))
	}
	if len(tickets) == 0 {
		return s.trainingFailed(ctx, result, start, apperrors.ErrNoTickets)
	}

	corpus := detection.NewCorpus(tickets, s.rules)
	baseline := s.calculator.Calculate(corpus, now)

	s.mu.Lock()
	s.baseline = &baseline
	s.state = stateTrained
	s.lastTraining = now
	s.mu.Unlock()

	anomalies := detection.DetectAll(s.detectors, corpus, baseline, now)
	s.recordDetection(ctx, anomalies, now)

	elapsed := time.Since(start)
	metrics.TrainingRunsTotal.WithLabelValues("trained").Inc()
	metrics.TrainingDuration.Observe(elapsed.Seconds())
	metrics.BaselineTicketsAnalyzed.Set(float64(baseline.TotalTickets))

	s.logger.InfoContext(ctx, "baseline trained",
		"tickets_analyzed", baseline.TotalTickets,
		"anomalies_detected", len(anomalies),
		"avg_daily_tickets", baseline.Daily.Mean,
		"avg_tickets_per_assignee", baseline.Assignees.Mean,
		"duration_ms", elapsed.Milliseconds(),
	)

	s.broadcast(ctx, domain.EventBaselineTrained, domain.NewTrainingEventPayload(baseline))

	result.Trained = true
	result.TicketsAnalyzed = baseline.TotalTickets
	result.AnomaliesDetected = len(anomalies)
	result.AvgDailyTickets = baseline.Daily.Mean
	result.AvgTicketsPerAssignee = baseline.Assignees.Mean
	result.DurationSeconds = elapsed.Seconds()
	return result
}

func (s *AnomalyService) trainingFailed(ctx context.Context, result domain.TrainingResult, start time.Time, err error) domain.TrainingResult {
	metrics.TrainingRunsTotal.WithLabelValues("failed").Inc()
	s.logger.WarnContext(ctx, "baseline training failed", "error", err)

	result.Trained = false
	result.Error = err.Error()
	result.DurationSeconds = time.Since(start).Seconds()
	return result
}

// ensureTrained performs the one lazy Untrained -> Trained transition.
// Concurrent first readers share one training run.
func (s *AnomalyService) ensureTrained(ctx context.Context) {
	if s.isTrained() {
		return
	}
	_, _, _ = s.trainGroup.Do(lazyTrainKey, func() (interface{}, error) {
		if s.isTrained() {
			return nil, nil
		}
		s.Train(ctx)
		return nil, nil
	})
}

func (s *AnomalyService) isTrained() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == stateTrained
}

// currentBaseline returns the held snapshot, or the empty baseline while
// untrained.
func (s *AnomalyService) currentBaseline() domain.BaselineSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.baseline == nil {
		return domain.EmptyBaseline()
	}
	return *s.baseline
}

// GetCurrentAnomalies runs a fresh detection pass against the held baseline.
func (s *AnomalyService) GetCurrentAnomalies(ctx context.Context) ([]domain.Anomaly, error) {
	s.ensureTrained(ctx)

	anomalies, _, err := s.detect(ctx)
	if err != nil {
		return nil, err
	}
	return anomalies, nil
}

// GetDashboard composes the baseline summary with a fresh detection pass.
func (s *AnomalyService) GetDashboard(ctx context.Context) (*domain.DashboardView, error) {
	s.ensureTrained(ctx)

	anomalies, baseline, err := s.detect(ctx)
	if err != nil {
		return nil, err
	}

	view := domain.NewDashboardView(anomalies, baseline, s.now())
	return &view, nil
}

// detect runs the detectors against the held baseline. Without one there is
// nothing to compare against and the pass is empty.
func (s *AnomalyService) detect(ctx context.Context) ([]domain.Anomaly, domain.BaselineSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.EmptyBaseline(), err
	}
	if !s.isTrained() {
		return []domain.Anomaly{}, domain.EmptyBaseline(), nil
	}
	baseline := s.currentBaseline()

	tickets, err := s.loadTickets(ctx)
	if err != nil {
		// A failed load is evaluated as an empty corpus.
		tickets = nil
	}
	if err := ctx.Err(); err != nil {
		return nil, baseline, err
	}

	now := s.now()
	corpus := detection.NewCorpus(tickets, s.rules)
	anomalies := detection.DetectAll(s.detectors, corpus, baseline, now)
	domain.SortAnomalies(anomalies)
	s.recordDetection(ctx, anomalies, now)

	return anomalies, baseline, nil
}

// GetBaseline returns the held baseline. It never trains implicitly.
func (s *AnomalyService) GetBaseline(ctx context.Context) (*domain.BaselineSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != stateTrained || s.baseline == nil {
		return nil, apperrors.ErrBaselineNotCalculated
	}
	snapshot := *s.baseline
	return &snapshot, nil
}

// GetStatus reports whether a baseline is held and the last anomaly count.
func (s *AnomalyService) GetStatus(ctx context.Context) domain.EngineStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := domain.EngineStatus{
		Trained:           s.state == stateTrained,
		AnomaliesDetected: s.lastAnomalyCount,
	}
	if !s.lastTraining.IsZero() {
		value := s.lastTraining.Format(time.RFC3339)
		status.LastTraining = &value
	}
	return status
}

// ListAnomalyTypes returns the fixed anomaly catalog.
func (s *AnomalyService) ListAnomalyTypes() []domain.AnomalyTypeInfo {
	return domain.AnomalyCatalog()
}

// Shutdown waits for pending alert notifications.
func (s *AnomalyService) Shutdown() {
	s.wg.Wait()
}

func (s *AnomalyService) loadTickets(ctx context.Context) ([]domain.TicketRecord, error) {
	tickets, err := s.loader.Load(ctx)
	if err != nil {
		metrics.TicketLoadFailuresTotal.Inc()
		s.logger.WarnContext(ctx, "ticket load failed", "error", err)
		return nil, err
	}
	return tickets, nil
}

// recordDetection updates the status and metrics for a detection pass.
// Alerts go out only for high anomalies absent from the previous pass, and
// the feed only hears about a pass whose anomaly set changed.
func (s *AnomalyService) recordDetection(ctx context.Context, anomalies []domain.Anomaly, now time.Time) {
	s.mu.Lock()
	s.lastAnomalyCount = len(anomalies)
	s.mu.Unlock()

	current := make(map[string]struct{}, len(anomalies))
	high := make(map[string]struct{})
	for _, a := range anomalies {
		metrics.AnomaliesDetectedTotal.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
		fp := fingerprint(a)
		current[fp] = struct{}{}
		if a.Severity == domain.SeverityHigh {
			high[fp] = struct{}{}
		}
	}

	s.alertMu.Lock()
	var fresh []domain.Anomaly
	for _, a := range anomalies {
		fp := fingerprint(a)
		if _, ok := high[fp]; !ok {
			continue
		}
		if _, seen := s.alerted[fp]; !seen {
			fresh = append(fresh, a)
		}
	}
	changed := s.lastPublish == nil || !sameKeys(current, s.lastPublish)
	s.alerted = high
	s.lastPublish = current
	s.alertMu.Unlock()

	for _, a := range fresh {
		s.notifyHighSeverity(a)
	}
	if changed {
		s.broadcast(ctx, domain.EventAnomaliesDetected, domain.NewAnomaliesEventPayload(anomalies, now))
	}
}

// fingerprint identifies an anomaly across detection passes.
func fingerprint(a domain.Anomaly) string {
	first := ""
	if len(a.Tickets) > 0 {
		first = a.Tickets[0]
	}
	return strings.Join([]string{string(a.Type), a.Assignee, a.Status, a.IssueType, first}, "|")
}

func sameKeys(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// notifyHighSeverity sends an alert for a high severity anomaly (async)
func (s *AnomalyService) notifyHighSeverity(a domain.Anomaly) {
	if s.notifier == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// Use background context since the HTTP request may be done
		s.notifier.Notify(context.Background(), ports.AlertParams{
			Subject: fmt.Sprintf("High severity anomaly: %s", a.Type),
			Message: a.Message,
			Anomaly: a,
		})
	}()
}

func (s *AnomalyService) broadcast(ctx context.Context, eventType domain.EventType, payload interface{}) {
	if s.broadcaster == nil {
		return
	}
	event := domain.Event{
		ID:      uuid.NewString(),
		Type:    eventType,
		Payload: payload,
	}
	if err := s.broadcaster.Broadcast(event); err != nil {
		s.logger.WarnContext(ctx, "failed to broadcast event", "event_type", eventType, "error", err)
	}
}
