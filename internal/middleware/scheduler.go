package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"FlowSentry/internal/domain/models"
	domrepo "FlowSentry/internal/domain/repository"
	"FlowSentry/internal/usecase"
	"FlowSentry/pkg/logger"
)

// actionable signals get pushed onto the alert queue in addition to the
// regular result fan-out.
func actionable(s models.Signal) bool {
	switch s {
	case models.SignalGoldenOpportunity, models.SignalStrongPump,
		models.SignalStrongDump, models.SignalExitWarning, models.SignalAvoid:
		return true
	}
	return false
}

// Scheduler runs one confirmation per (symbol, tick) with latest-tick-wins
// semantics: a new tick for a symbol cancels that symbol's in-flight
// evaluation, and no backlog is allowed to stack up. Symbols are fully
// independent; a failure in one never touches another's slot.
type Scheduler struct {
	pipeline *usecase.ConfirmationPipeline
	results  domrepo.ResultStore
	pub      domrepo.ResultPublisher
	alerts   domrepo.AlertSink
	metrics  domrepo.Metrics
	log      *logger.Logger
	timeout  time.Duration

	notify func(*models.ConfirmationResult)

	mu      sync.Mutex
	slots   map[string]*slot
	wg      sync.WaitGroup
	stopped bool
}

// slot identifies one in-flight evaluation; pointer identity distinguishes a
// run from the one that superseded it.
type slot struct {
	cancel context.CancelFunc
}

type SchedulerOption func(*Scheduler)

// WithNotifier registers a per-result callback, used by the WebSocket stream.
func WithNotifier(fn func(*models.ConfirmationResult)) SchedulerOption {
	return func(s *Scheduler) { s.notify = fn }
}

func NewScheduler(
	pipeline *usecase.ConfirmationPipeline,
	results domrepo.ResultStore,
	pub domrepo.ResultPublisher,
	alerts domrepo.AlertSink,
	metrics domrepo.Metrics,
	timeout time.Duration,
	log *logger.Logger,
	opts ...SchedulerOption,
) *Scheduler {
	s := &Scheduler{
		pipeline: pipeline,
		results:  results,
		pub:      pub,
		alerts:   alerts,
		metrics:  metrics,
		log:      log,
		timeout:  timeout,
		slots:    make(map[string]*slot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Trigger schedules an evaluation for symbol. A prior in-flight evaluation
// for the same symbol is cancelled first.
func (s *Scheduler) Trigger(ctx context.Context, symbol string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if prev, ok := s.slots[symbol]; ok {
		prev.cancel()
		s.metrics.RecordError("evaluation_superseded")
	}
	// Detach from the caller's cancellation: a Kafka handler returning must
	// not kill the evaluation it scheduled. Only the per-symbol supersede,
	// the timeout, and Stop cancel it.
	evalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	sl := &slot{cancel: cancel}
	s.slots[symbol] = sl
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.release(symbol, sl)
		s.evaluate(evalCtx, symbol)
	}()
}

// release clears the slot only if it still belongs to this run; a superseding
// Trigger has already replaced it under the mutex.
func (s *Scheduler) release(symbol string, sl *slot) {
	sl.cancel()
	s.mu.Lock()
	if cur, ok := s.slots[symbol]; ok && cur == sl {
		delete(s.slots, symbol)
	}
	s.mu.Unlock()
}

func (s *Scheduler) evaluate(ctx context.Context, symbol string) {
	start := time.Now()
	res, err := s.pipeline.Confirm(ctx, symbol)
	elapsed := time.Since(start)

	if err != nil {
		// Abandoned wholesale: the last good result stays, flagged stale.
		// Never surface a half-computed result.
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			s.metrics.RecordError("evaluation_timeout")
		case errors.Is(err, context.Canceled):
			s.metrics.RecordError("evaluation_cancelled")
		default:
			s.metrics.RecordError("evaluation_failed")
		}
		if mErr := s.results.MarkStale(context.Background(), symbol); mErr != nil && s.log != nil {
			s.log.Warn("mark stale failed", logger.String("symbol", symbol), logger.Error(mErr))
		}
		if s.log != nil {
			s.log.Warn("evaluation abandoned",
				logger.String("symbol", symbol),
				logger.Duration("elapsed", elapsed),
				logger.Error(err),
			)
		}
		return
	}

	s.metrics.RecordLatency("evaluation", elapsed.Seconds())
	s.metrics.RecordEvaluation(symbol, string(res.Detection.Signal))
	s.metrics.RecordLastScore(symbol, res.PumpScore)

	bg := context.Background()
	if err := s.results.Put(bg, res); err != nil && s.log != nil {
		s.log.Error("result store put failed", logger.String("symbol", symbol), logger.Error(err))
	}
	if s.pub != nil {
		if err := s.pub.Publish(bg, res); err != nil {
			s.metrics.RecordError("publish_failed")
			if s.log != nil {
				s.log.Error("result publish failed", logger.String("symbol", symbol), logger.Error(err))
			}
		}
	}
	if s.alerts != nil && actionable(res.Detection.Signal) {
		if err := s.alerts.Enqueue(bg, res); err != nil {
			s.metrics.RecordError("alert_enqueue_failed")
			if s.log != nil {
				s.log.Error("alert enqueue failed", logger.String("symbol", symbol), logger.Error(err))
			}
		}
	}
	if s.notify != nil {
		s.notify(res)
	}

	if s.log != nil {
		s.log.Info("evaluation complete",
			logger.String("symbol", symbol),
			logger.String("signal", string(res.Detection.Signal)),
			logger.Any("pump_score", res.PumpScore),
			logger.Duration("elapsed", elapsed),
		)
	}
}

// Stop cancels all in-flight evaluations and waits for them to drain.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for _, sl := range s.slots {
		sl.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}
