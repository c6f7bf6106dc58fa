package stats

import (
	"math"
	"testing"
	"time"

	"FlowSentry/internal/domain/models"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMeanStdCV(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if m := Mean(xs); !almost(m, 5) {
		t.Fatalf("mean = %v, want 5", m)
	}
	if s := Std(xs); math.Abs(s-2.138089935) > 1e-6 {
		t.Fatalf("std = %v", s)
	}
	if cv := CV(xs); math.Abs(cv-2.138089935/5) > 1e-6 {
		t.Fatalf("cv = %v", cv)
	}
	if m := Mean(nil); m != 0 {
		t.Fatalf("empty mean = %v", m)
	}
}

func TestRatioDivisionGuard(t *testing.T) {
	if r := Ratio(10, 0); r != MaxRatio {
		t.Fatalf("zero denominator ratio = %v, want %v", r, MaxRatio)
	}
	if r := Ratio(0, 0); r != 0 {
		t.Fatalf("0/0 ratio = %v, want 0", r)
	}
	if r := Ratio(10, 4); !almost(r, 2.5) {
		t.Fatalf("ratio = %v", r)
	}
}

func TestCVZeroMeanGuard(t *testing.T) {
	if cv := CV([]float64{0, 0, 0}); cv != 0 {
		t.Fatalf("flat zero series cv = %v, want 0", cv)
	}
	if cv := CV([]float64{-1, 1}); cv != MaxRatio {
		t.Fatalf("zero-mean dispersed cv = %v, want %v", cv, MaxRatio)
	}
}

func TestClamp(t *testing.T) {
	if v := Clamp100(120); v != 100 {
		t.Fatalf("clamp high = %v", v)
	}
	if v := Clamp100(-5); v != 0 {
		t.Fatalf("clamp low = %v", v)
	}
	if v := Clamp100(42); v != 42 {
		t.Fatalf("clamp mid = %v", v)
	}
}

func bar(open, high, low, close, vol float64) models.CandleBar {
	return models.CandleBar{Open: open, High: high, Low: low, Close: close, Volume: vol}
}

func TestVWAP(t *testing.T) {
	candles := []models.CandleBar{
		bar(10, 12, 8, 10, 100), // typical 10
		bar(10, 22, 18, 20, 300), // typical 20
	}
	want := (10.0*100 + 20.0*300) / 400
	if v := VWAP(candles); !almost(v, want) {
		t.Fatalf("vwap = %v, want %v", v, want)
	}
	// zero volume falls back to the last close
	flat := []models.CandleBar{bar(10, 11, 9, 10.5, 0)}
	if v := VWAP(flat); !almost(v, 10.5) {
		t.Fatalf("zero-volume vwap = %v, want 10.5", v)
	}
}

func TestPercentChange(t *testing.T) {
	candles := []models.CandleBar{bar(100, 101, 99, 100, 1), bar(100, 109, 99, 108, 1)}
	if pc := PercentChange(candles); !almost(pc, 8) {
		t.Fatalf("percent change = %v, want 8", pc)
	}
	if pc := PercentChange(candles[:1]); pc != 0 {
		t.Fatalf("single bar percent change = %v", pc)
	}
}

func TestSwingHighsAndDeclining(t *testing.T) {
	candles := []models.CandleBar{
		bar(1, 10, 1, 1, 1),
		bar(1, 15, 1, 1, 1), // local high 15
		bar(1, 9, 1, 1, 1),
		bar(1, 12, 1, 1, 1), // local high 12
		bar(1, 8, 1, 1, 1),
	}
	highs := SwingHighs(candles)
	if len(highs) != 2 || highs[0] != 15 || highs[1] != 12 {
		t.Fatalf("swing highs = %v", highs)
	}
	if !Declining(highs) {
		t.Fatalf("expected declining swing highs")
	}
	if Declining([]float64{1, 2, 3}) {
		t.Fatalf("rising series reported declining")
	}
}

func TestSlope(t *testing.T) {
	if s := Slope([]float64{1, 2, 3, 4}); !almost(s, 1) {
		t.Fatalf("slope = %v, want 1", s)
	}
	if s := Slope([]float64{5}); s != 0 {
		t.Fatalf("short slope = %v", s)
	}
}

func TestRSI(t *testing.T) {
	// 15 rising closes: zero loss, defined maximal value
	up := make([]models.CandleBar, 15)
	for i := range up {
		up[i] = bar(1, 1, 1, float64(100+i), 1)
	}
	if v := RSI(up, 14); v != 100 {
		t.Fatalf("all-gain rsi = %v, want 100", v)
	}
	// flat series is neutral
	flat := make([]models.CandleBar, 15)
	for i := range flat {
		flat[i] = bar(1, 1, 1, 100, 1)
	}
	if v := RSI(flat, 14); v != 50 {
		t.Fatalf("flat rsi = %v, want 50", v)
	}
	// short window is neutral
	if v := RSI(up[:5], 14); v != 50 {
		t.Fatalf("short-window rsi = %v, want 50", v)
	}
}

func TestInterTradeGaps(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		{Price: 1, Quantity: 1, Timestamp: base},
		{Price: 1, Quantity: 1, Timestamp: base.Add(2 * time.Second)},
		{Price: 1, Quantity: 1, Timestamp: base.Add(5 * time.Second)},
	}
	gaps := InterTradeGaps(trades)
	if len(gaps) != 2 || !almost(gaps[0], 2) || !almost(gaps[1], 3) {
		t.Fatalf("gaps = %v", gaps)
	}
}

func TestGreenRatio(t *testing.T) {
	candles := []models.CandleBar{
		bar(10, 11, 9, 11, 1), // green
		bar(10, 11, 9, 9, 1),  // red
		bar(10, 11, 9, 11, 1), // green
		bar(10, 11, 9, 9, 1),  // red
	}
	if r := GreenRatio(candles); !almost(r, 0.5) {
		t.Fatalf("green ratio = %v, want 0.5", r)
	}
}
