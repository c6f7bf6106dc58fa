package usecase

import (
	"context"
	"testing"
)

type fakeTrigger struct {
	symbols []string
}

func (f *fakeTrigger) Trigger(_ context.Context, symbol string) {
	f.symbols = append(f.symbols, symbol)
}

type nopMetrics struct{}

func (nopMetrics) RecordEvaluation(string, string)  {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordLastScore(string, float64)  {}
func (nopMetrics) RecordLatency(string, float64)    {}

func newCandleHandler(trigger *fakeTrigger) *CandleCloseHandler {
	return NewCandleCloseHandler("candles.closed", "1m", []string{"BTCUSDT", "ETHUSDT"}, trigger, nopMetrics{}, nil)
}

func TestCandleCloseTriggersTrackedSymbol(t *testing.T) {
	trigger := &fakeTrigger{}
	h := newCandleHandler(trigger)

	msg := []byte(`{"symbol":"BTCUSDT","tf":"1m","close_time":1772366400000}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(trigger.symbols) != 1 || trigger.symbols[0] != "BTCUSDT" {
		t.Fatalf("triggered = %v, want [BTCUSDT]", trigger.symbols)
	}
}

func TestCandleCloseIgnoresSlowTimeframes(t *testing.T) {
	trigger := &fakeTrigger{}
	h := newCandleHandler(trigger)

	msg := []byte(`{"symbol":"BTCUSDT","tf":"5m","close_time":1772366400}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(trigger.symbols) != 0 {
		t.Fatalf("5m close triggered evaluation: %v", trigger.symbols)
	}
}

func TestCandleCloseIgnoresUntrackedSymbol(t *testing.T) {
	trigger := &fakeTrigger{}
	h := newCandleHandler(trigger)

	msg := []byte(`{"symbol":"DOGEUSDT","tf":"1m","close_time":1772366400}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(trigger.symbols) != 0 {
		t.Fatalf("untracked symbol triggered evaluation: %v", trigger.symbols)
	}
}

func TestCandleCloseRejectsMalformedPayload(t *testing.T) {
	trigger := &fakeTrigger{}
	h := newCandleHandler(trigger)

	if err := h.Handle(context.Background(), []byte(`{not json`)); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
	if h.Topic() != "candles.closed" {
		t.Fatalf("topic = %q", h.Topic())
	}
}
