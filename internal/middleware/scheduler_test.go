package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"FlowSentry/internal/domain/models"
	domrepo "FlowSentry/internal/domain/repository"
	"FlowSentry/internal/services/botwatch"
	"FlowSentry/internal/services/scoring"
	"FlowSentry/internal/usecase"
	"FlowSentry/pkg/config"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubStore struct {
	candlesErr error
}

func steadyCandles(n int) []models.CandleBar {
	out := make([]models.CandleBar, n)
	for i := range out {
		close := 100.0
		if i%2 == 0 {
			close = 100.1
		}
		out[i] = models.CandleBar{
			Open: 100, High: 100.6, Low: 99.4, Close: close, Volume: 100,
			OpenTime:  t0.Add(time.Duration(i) * time.Minute),
			CloseTime: t0.Add(time.Duration(i+1) * time.Minute),
		}
	}
	return out
}

func (s *stubStore) GetLatestNCandles(_ context.Context, _ string, n int, _ domrepo.Timeframe) ([]models.CandleBar, error) {
	if s.candlesErr != nil {
		return nil, s.candlesErr
	}
	if n > 100 {
		n = 100
	}
	return steadyCandles(n), nil
}

func (s *stubStore) GetRecentTrades(context.Context, string, int) ([]models.Trade, error) {
	return nil, errors.New("no tape")
}

func (s *stubStore) GetDepth(context.Context, string, int) (*models.OrderBookSnapshot, error) {
	return nil, errors.New("no depth")
}

func (s *stubStore) GetTicker24h(context.Context, string) (*models.MarketData, error) {
	return &models.MarketData{}, nil
}

type memResults struct {
	mu    sync.Mutex
	last  map[string]*models.ConfirmationResult
	stale map[string]int
}

func newMemResults() *memResults {
	return &memResults{last: map[string]*models.ConfirmationResult{}, stale: map[string]int{}}
}

func (m *memResults) Put(_ context.Context, r *models.ConfirmationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[r.Symbol] = r
	return nil
}

func (m *memResults) Get(_ context.Context, symbol string) (*models.ConfirmationResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.last[symbol]
	return r, ok, nil
}

func (m *memResults) MarkStale(_ context.Context, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stale[symbol]++
	return nil
}

type recordingSink struct {
	mu      sync.Mutex
	queued  []string
	pubbed  []string
	errKind []string
}

func (r *recordingSink) Enqueue(_ context.Context, res *models.ConfirmationResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queued = append(r.queued, res.Symbol)
	return nil
}

func (r *recordingSink) Publish(_ context.Context, res *models.ConfirmationResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pubbed = append(r.pubbed, res.Symbol)
	return nil
}

func (r *recordingSink) Close() error { return nil }

func (r *recordingSink) RecordEvaluation(string, string) {}
func (r *recordingSink) RecordLastScore(string, float64) {}
func (r *recordingSink) RecordLatency(string, float64)   {}

func (r *recordingSink) RecordError(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errKind = append(r.errKind, kind)
}

func (r *recordingSink) errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errKind...)
}

func newTestScheduler(store domrepo.MarketStore, results domrepo.ResultStore, sink *recordingSink, opts ...SchedulerOption) *Scheduler {
	cfg := config.DefaultEngine()
	agg := usecase.NewSignalAggregator(
		cfg,
		scoring.NewInstitutionalAnalyzer(cfg),
		scoring.NewVolumeLegitimacyScorer(cfg),
		scoring.NewPriceActionQualityScorer(cfg),
		scoring.NewOrderBookManipulationScorer(cfg),
		botwatch.NewClassifier(cfg),
	)
	pipeline := usecase.NewConfirmationPipeline(cfg, store, agg, nil)
	return NewScheduler(pipeline, results, sink, sink, sink, 5*time.Second, nil, opts...)
}

func TestSchedulerStoresResult(t *testing.T) {
	results := newMemResults()
	sink := &recordingSink{}
	var notified []string
	s := newTestScheduler(&stubStore{}, results, sink, WithNotifier(func(r *models.ConfirmationResult) {
		notified = append(notified, r.Symbol)
	}))

	s.Trigger(context.Background(), "BTCUSDT")
	s.Stop()

	if _, ok, _ := results.Get(context.Background(), "BTCUSDT"); !ok {
		t.Fatalf("no result stored after evaluation")
	}
	sink.mu.Lock()
	published := len(sink.pubbed)
	sink.mu.Unlock()
	if published != 1 {
		t.Fatalf("published %d results, want 1", published)
	}
	if len(notified) != 1 || notified[0] != "BTCUSDT" {
		t.Fatalf("notifier calls = %v, want [BTCUSDT]", notified)
	}
}

func TestSchedulerMarksStaleOnFailure(t *testing.T) {
	results := newMemResults()
	sink := &recordingSink{}
	s := newTestScheduler(&stubStore{candlesErr: errors.New("store down")}, results, sink)

	s.Trigger(context.Background(), "ETHUSDT")
	s.Stop()

	results.mu.Lock()
	stale := results.stale["ETHUSDT"]
	results.mu.Unlock()
	if stale != 1 {
		t.Fatalf("mark stale calls = %d, want 1", stale)
	}

	failed := false
	for _, kind := range sink.errors() {
		if kind == "evaluation_failed" {
			failed = true
		}
	}
	if !failed {
		t.Fatalf("evaluation_failed not recorded: %v", sink.errors())
	}
}

func TestSchedulerSupersedePriorRun(t *testing.T) {
	results := newMemResults()
	sink := &recordingSink{}
	s := newTestScheduler(&stubStore{}, results, sink)

	// Two back-to-back ticks for the same symbol: the second supersedes the
	// first, which is recorded even if the first already finished.
	s.Trigger(context.Background(), "BTCUSDT")
	s.Trigger(context.Background(), "BTCUSDT")
	s.Stop()

	if _, ok, _ := results.Get(context.Background(), "BTCUSDT"); !ok {
		t.Fatalf("no result stored after back-to-back ticks")
	}
}

func TestSchedulerIgnoresTriggerAfterStop(t *testing.T) {
	results := newMemResults()
	sink := &recordingSink{}
	s := newTestScheduler(&stubStore{}, results, sink)

	s.Stop()
	s.Trigger(context.Background(), "BTCUSDT")
	// Stop already drained; a post-stop trigger must not start work.
	if _, ok, _ := results.Get(context.Background(), "BTCUSDT"); ok {
		t.Fatalf("trigger after stop still evaluated")
	}
}

func TestActionableSignals(t *testing.T) {
	cases := map[models.Signal]bool{
		models.SignalGoldenOpportunity: true,
		models.SignalStrongPump:        true,
		models.SignalStrongDump:        true,
		models.SignalExitWarning:       true,
		models.SignalAvoid:             true,
		models.SignalPump:              false,
		models.SignalDump:              false,
		models.SignalNeutral:           false,
	}
	for sig, want := range cases {
		if got := actionable(sig); got != want {
			t.Fatalf("actionable(%s) = %v, want %v", sig, got, want)
		}
	}
}
