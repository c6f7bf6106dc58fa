package resultcache

import (
	"context"
	"testing"
	"time"

	"FlowSentry/internal/domain/models"
	"FlowSentry/pkg/cache"
)

func sample(symbol string) *models.ConfirmationResult {
	return &models.ConfirmationResult{
		Symbol:    symbol,
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		PumpScore: 72.5,
		Detection: &models.DetectionResult{
			Symbol: symbol,
			Signal: models.SignalPump,
		},
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := New(cache.NewMemoryCache(), time.Minute)
	ctx := context.Background()

	if err := s.Put(ctx, sample("BTCUSDT")); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := s.Get(ctx, "BTCUSDT")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Symbol != "BTCUSDT" || got.PumpScore != 72.5 {
		t.Fatalf("round trip mangled result: %+v", got)
	}
	if got.Detection == nil || got.Detection.Signal != models.SignalPump {
		t.Fatalf("nested detection lost: %+v", got.Detection)
	}
}

func TestGetMissIsNotAnError(t *testing.T) {
	s := New(cache.NewMemoryCache(), time.Minute)

	got, ok, err := s.Get(context.Background(), "UNKNOWN")
	if err != nil {
		t.Fatalf("miss returned error: %v", err)
	}
	if ok || got != nil {
		t.Fatalf("miss returned a result: %+v", got)
	}
}

func TestMarkStale(t *testing.T) {
	s := New(cache.NewMemoryCache(), time.Minute)
	ctx := context.Background()

	if err := s.Put(ctx, sample("ETHUSDT")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.MarkStale(ctx, "ETHUSDT"); err != nil {
		t.Fatalf("mark stale: %v", err)
	}

	got, ok, err := s.Get(ctx, "ETHUSDT")
	if err != nil || !ok {
		t.Fatalf("get after stale: ok=%v err=%v", ok, err)
	}
	if !got.Stale || got.Detection == nil || !got.Detection.Stale {
		t.Fatalf("stale flags not set: stale=%v detection=%+v", got.Stale, got.Detection)
	}
}

func TestMarkStaleWithoutResult(t *testing.T) {
	s := New(cache.NewMemoryCache(), time.Minute)

	// Nothing retained yet: not an error, nothing to flag.
	if err := s.MarkStale(context.Background(), "SOLUSDT"); err != nil {
		t.Fatalf("mark stale on empty store: %v", err)
	}
}

func TestPutNilResult(t *testing.T) {
	s := New(cache.NewMemoryCache(), time.Minute)
	if err := s.Put(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil result")
	}
}
