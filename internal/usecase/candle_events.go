package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domrepo "FlowSentry/internal/domain/repository"
	pkgkafka "FlowSentry/pkg/kafka"
	"FlowSentry/pkg/logger"
)

// EvaluationTrigger schedules a re-confirmation for a symbol. The scheduler
// implements it; the handler stays unaware of cancellation mechanics.
type EvaluationTrigger interface {
	Trigger(ctx context.Context, symbol string)
}

// CandleCloseHandler consumes closed-candle events from the ingestion
// platform and re-triggers the confirmation pipeline for tracked symbols.
// Only closes on the fastest tracked timeframe drive re-evaluation.
type CandleCloseHandler struct {
	topic   string
	shortTF string
	tracked map[string]struct{}
	trigger EvaluationTrigger
	metrics domrepo.Metrics
	log     *logger.Logger
}

func NewCandleCloseHandler(
	topic, shortTF string,
	symbols []string,
	trigger EvaluationTrigger,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *CandleCloseHandler {
	tracked := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		tracked[s] = struct{}{}
	}
	return &CandleCloseHandler{
		topic:   topic,
		shortTF: shortTF,
		tracked: tracked,
		trigger: trigger,
		metrics: metrics,
		log:     log,
	}
}

func (h *CandleCloseHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, tf, close_time}
func (h *CandleCloseHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol    string `json:"symbol"`
		TF        string `json:"tf"`
		CloseTime int64  `json:"close_time"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("candle_event_unmarshal")
		return fmt.Errorf("candle event: %w", err)
	}
	if m.TF != h.shortTF {
		return nil
	}
	if _, ok := h.tracked[m.Symbol]; !ok {
		return nil
	}
	if m.CloseTime > 1e11 { // ms
		m.CloseTime /= 1000
	}
	h.metrics.RecordLatency("candle_event_lag", time.Since(time.Unix(m.CloseTime, 0)).Seconds())

	if h.log != nil {
		h.log.Debug("candle closed, scheduling evaluation",
			logger.String("symbol", m.Symbol),
			logger.String("tf", m.TF),
		)
	}
	h.trigger.Trigger(ctx, m.Symbol)
	return nil
}

var _ pkgkafka.MessageHandler = (*CandleCloseHandler)(nil)
