package scoring

import (
	"errors"
	"math"
	"testing"
	"time"

	"FlowSentry/internal/domain/models"
	"FlowSentry/pkg/config"
)

// breakoutCandles builds 20 bars ranging 99-101 followed by 10 green bars
// closing cleanly above the prior resistance.
func breakoutCandles() []models.CandleBar {
	out := make([]models.CandleBar, 0, 30)
	for i := 0; i < 20; i++ {
		close := 100.0
		if i%2 == 0 {
			close = 100.1
		}
		out = append(out, models.CandleBar{
			Open: 100, High: 101, Low: 99, Close: close, Volume: 100,
			OpenTime: t0.Add(time.Duration(i) * time.Minute),
		})
	}
	for i := 0; i < 10; i++ {
		open := 101.5 + float64(i)
		close := open + 1
		out = append(out, models.CandleBar{
			Open: open, High: close + 0.2, Low: open - 0.2, Close: close, Volume: 300,
			OpenTime: t0.Add(time.Duration(20+i) * time.Minute),
		})
	}
	return out
}

func TestPriceActionCleanBreakout(t *testing.T) {
	s := NewPriceActionQualityScorer(config.DefaultEngine())

	pq, err := s.Score(breakoutCandles())
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !pq.BreakoutUp {
		t.Fatalf("expected upward breakout, got %+v", pq)
	}
	if pq.BreakoutClean != 100 {
		t.Fatalf("breakout cleanliness = %v, want 100 for all follow-through", pq.BreakoutClean)
	}
	if pq.LevelRespect != 70 {
		t.Fatalf("level respect = %v, want neutral 70 with no level interaction", pq.LevelRespect)
	}
	if pq.Score < 75 {
		t.Fatalf("score = %v, want a high quality reading", pq.Score)
	}
}

func TestPriceActionFailedBreakout(t *testing.T) {
	s := NewPriceActionQualityScorer(config.DefaultEngine())

	candles := breakoutCandles()
	// Last six bars collapse back below the 101 resistance.
	for i := 24; i < 30; i++ {
		candles[i].Open = 100.5
		candles[i].Close = 100.2
		candles[i].High = 100.8
		candles[i].Low = 100.0
	}

	pq, err := s.Score(candles)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if pq.BreakoutUp {
		t.Fatalf("reversed breakout still marked up: %+v", pq)
	}
	if pq.BreakoutClean >= 50 {
		t.Fatalf("breakout cleanliness = %v, want below the neutral 50", pq.BreakoutClean)
	}
}

func TestPriceActionSpikesPenalized(t *testing.T) {
	s := NewPriceActionQualityScorer(config.DefaultEngine())

	candles := quietCandles(29)
	candles = append(candles, models.CandleBar{
		Open: 100, High: 112, Low: 99.4, Close: 112, Volume: 100,
		OpenTime: t0.Add(30 * time.Minute),
	})

	pq, err := s.Score(candles)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if pq.ExtremeSpikes == 0 {
		t.Fatalf("12%% single-bar move not counted as a spike: %+v", pq)
	}
	if pq.Smoothness > 75 {
		t.Fatalf("smoothness = %v, want penalized", pq.Smoothness)
	}
}

func TestPriceActionFlatWindow(t *testing.T) {
	s := NewPriceActionQualityScorer(config.DefaultEngine())

	pq, err := s.Score(quietCandles(30))
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	// No level interaction, no breakout, perfectly smooth.
	want := (70.0 + 50.0 + 100.0) / 3
	if math.Abs(pq.Score-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", pq.Score, want)
	}
}

func TestPriceActionInsufficientData(t *testing.T) {
	s := NewPriceActionQualityScorer(config.DefaultEngine())

	if _, err := s.Score(quietCandles(5)); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}
