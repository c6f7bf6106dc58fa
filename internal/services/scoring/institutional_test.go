package scoring

import (
	"errors"
	"math"
	"testing"
	"time"

	"FlowSentry/internal/domain/models"
	"FlowSentry/pkg/config"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func quietCandles(n int) []models.CandleBar {
	out := make([]models.CandleBar, n)
	for i := range out {
		out[i] = models.CandleBar{
			Open: 100, High: 100.6, Low: 99.4, Close: 100, Volume: 100,
			OpenTime: t0.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func retailTape(n int, qty float64) []models.Trade {
	out := make([]models.Trade, n)
	for i := range out {
		side := models.SideBuy
		if i%2 == 1 {
			side = models.SideSell
		}
		out[i] = models.Trade{Price: 100, Quantity: qty, Side: side, Timestamp: t0.Add(time.Duration(i) * time.Second)}
	}
	return out
}

func TestInstitutionalInsufficientTrades(t *testing.T) {
	a := NewInstitutionalAnalyzer(config.DefaultEngine())

	_, err := a.Analyze(quietCandles(30), retailTape(10, 1))
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestInstitutionalBlockTrades(t *testing.T) {
	a := NewInstitutionalAnalyzer(config.DefaultEngine())

	// 39 retail lots plus a single 50-lot buy: mean 2.225, block floor 22.25.
	trades := retailTape(39, 1)
	trades = append(trades, models.Trade{Price: 100, Quantity: 50, Side: models.SideBuy, Timestamp: t0.Add(40 * time.Second)})

	flow, err := a.Analyze(quietCandles(30), trades)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !flow.IsInstitutional {
		t.Fatalf("expected institutional activity, got %+v", flow)
	}
	wantRatio := 50.0 / 89.0
	if math.Abs(flow.BlockTradeRatio-wantRatio) > 1e-9 {
		t.Fatalf("block ratio = %v, want %v", flow.BlockTradeRatio, wantRatio)
	}
	if flow.SmartMoneyFlow != models.FlowInflow {
		t.Fatalf("smart money flow = %v, want inflow", flow.SmartMoneyFlow)
	}
	// 0.5*100 (block component clamped) + 0.3*0 (no wyckoff pattern) + 0.2*100 (directional flow)
	if math.Abs(flow.Score-70) > 1e-9 {
		t.Fatalf("score = %v, want 70", flow.Score)
	}
}

func TestInstitutionalQuietTape(t *testing.T) {
	a := NewInstitutionalAnalyzer(config.DefaultEngine())

	flow, err := a.Analyze(quietCandles(30), retailTape(40, 1))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if flow.IsInstitutional {
		t.Fatalf("uniform retail tape classified institutional: %+v", flow)
	}
	if flow.ActivityType != models.ActivityNone || flow.SmartMoneyFlow != models.FlowNeutral {
		t.Fatalf("activity=%v flow=%v, want none/neutral", flow.ActivityType, flow.SmartMoneyFlow)
	}
}

func TestInstitutionalAccumulation(t *testing.T) {
	a := NewInstitutionalAnalyzer(config.DefaultEngine())

	// Trailing window: range contracting, volume rising, closes near the highs.
	candles := quietCandles(30)
	for i := 20; i < 30; i++ {
		shrink := float64(30-i) * 0.3 // 3.0 down to 0.3
		candles[i].High = 100 + shrink
		candles[i].Low = 100 - shrink
		candles[i].Close = 100 + shrink*0.9 // close pinned near the high
		candles[i].Open = 100 - shrink*0.5
		candles[i].Volume = 100 + 20*float64(i-20)
	}

	flow, err := a.Analyze(candles, retailTape(40, 1))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if flow.ActivityType != models.ActivityAccumulation {
		t.Fatalf("activity = %v, want accumulation", flow.ActivityType)
	}
	if !flow.IsInstitutional {
		t.Fatalf("accumulation pattern not marked institutional")
	}
}

func TestInstitutionalDropsMalformedInput(t *testing.T) {
	a := NewInstitutionalAnalyzer(config.DefaultEngine())

	trades := retailTape(40, 1)
	trades = append(trades,
		models.Trade{Price: -5, Quantity: 1, Timestamp: t0},     // negative price
		models.Trade{Price: 100, Quantity: 0, Timestamp: t0},    // zero quantity
		models.Trade{Price: 100, Quantity: 1},                   // missing timestamp
	)

	flow, err := a.Analyze(quietCandles(30), trades)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	found := false
	for _, e := range flow.Evidence {
		if e == "dropped 3 malformed units" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected malformed-input evidence, got %v", flow.Evidence)
	}
}
