package usecase

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	"FlowSentry/internal/domain/models"
	domrepo "FlowSentry/internal/domain/repository"
	"FlowSentry/internal/services/botwatch"
	"FlowSentry/internal/services/scoring"
	"FlowSentry/pkg/config"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newAggregator() *SignalAggregator {
	cfg := config.DefaultEngine()
	return NewSignalAggregator(
		cfg,
		scoring.NewInstitutionalAnalyzer(cfg),
		scoring.NewVolumeLegitimacyScorer(cfg),
		scoring.NewPriceActionQualityScorer(cfg),
		scoring.NewOrderBookManipulationScorer(cfg),
		botwatch.NewClassifier(cfg),
	)
}

// pumpCandles builds a 5m window: 20 bars of 99-101 consolidation on 100
// volume, then 10 green breakout bars on tripled volume, roughly +11% overall.
func pumpCandles() []models.CandleBar {
	out := make([]models.CandleBar, 0, 30)
	for i := 0; i < 20; i++ {
		close := 100.0
		if i%2 == 0 {
			close = 100.1
		}
		out = append(out, models.CandleBar{
			Open: 100, High: 101, Low: 99, Close: close, Volume: 100,
			OpenTime:  t0.Add(time.Duration(i) * 5 * time.Minute),
			CloseTime: t0.Add(time.Duration(i+1) * 5 * time.Minute),
		})
	}
	for i := 0; i < 10; i++ {
		open := 101.5 + float64(i)
		close := open + 1
		out = append(out, models.CandleBar{
			Open: open, High: close + 0.2, Low: open - 0.2, Close: close, Volume: 300,
			OpenTime:  t0.Add(time.Duration(20+i) * 5 * time.Minute),
			CloseTime: t0.Add(time.Duration(21+i) * 5 * time.Minute),
		})
	}
	return out
}

// institutionalTape is 39 one-lot trades plus a single 50-lot block buy.
func institutionalTape() []models.Trade {
	out := make([]models.Trade, 0, 40)
	for i := 0; i < 39; i++ {
		side := models.SideBuy
		if i%2 == 1 {
			side = models.SideSell
		}
		out = append(out, models.Trade{Price: 105, Quantity: 1, Side: side, Timestamp: t0.Add(time.Duration(i) * time.Second)})
	}
	out = append(out, models.Trade{Price: 105, Quantity: 50, Side: models.SideBuy, Timestamp: t0.Add(40 * time.Second)})
	return out
}

func cleanBook() *models.OrderBookSnapshot {
	book := &models.OrderBookSnapshot{Timestamp: t0}
	for i := 0; i < 5; i++ {
		book.Bids = append(book.Bids, models.BookLevel{Price: 111.0 - 0.1*float64(i), Quantity: 4})
		book.Asks = append(book.Asks, models.BookLevel{Price: 111.5 + 0.1*float64(i), Quantity: 4})
	}
	return book
}

func mediumWindow(candles []models.CandleBar) map[domrepo.Timeframe][]models.CandleBar {
	return map[domrepo.Timeframe][]models.CandleBar{domrepo.TF5m: candles}
}

func TestAnalyzePumpScenario(t *testing.T) {
	agg := newAggregator()

	res, err := agg.AnalyzeComprehensive(context.Background(), "BTCUSDT",
		mediumWindow(pumpCandles()), cleanBook(), institutionalTape(), nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if res.Signal != models.SignalPump && res.Signal != models.SignalStrongPump {
		t.Fatalf("signal = %s, want PUMP or STRONG_PUMP", res.Signal)
	}
	if res.Confidence < 65 {
		t.Fatalf("confidence = %.1f, want >= 65", res.Confidence)
	}
	if res.Direction.Up <= 60 {
		t.Fatalf("up probability = %.0f, want > 60", res.Direction.Up)
	}
	if res.Recommendation.Action != models.ActionBuy {
		t.Fatalf("action = %s, want BUY", res.Recommendation.Action)
	}
	if res.InstitutionalFlow == nil || res.InstitutionalFlow.SmartMoneyFlow != models.FlowInflow {
		t.Fatalf("expected smart money inflow, got %+v", res.InstitutionalFlow)
	}
	if len(res.Omitted) != 0 {
		t.Fatalf("unexpected omissions: %v", res.Omitted)
	}
}

func TestAnalyzeAvoidOverridesEverything(t *testing.T) {
	agg := newAggregator()

	// Same strong setup, but the last bar is a churn bar: volume spikes with
	// no price movement. Wash trading must disqualify the symbol outright.
	candles := pumpCandles()
	last := &candles[29]
	prev := candles[28].Close
	last.Open = prev
	last.Close = prev + prev*0.001
	last.High = last.Close + 0.2
	last.Low = last.Open - 0.2
	last.Volume = 500

	res, err := agg.AnalyzeComprehensive(context.Background(), "BTCUSDT",
		mediumWindow(candles), cleanBook(), institutionalTape(), nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	wash, ok := res.BotActivity[models.BotWashTrading]
	if !ok || !wash.Detected {
		t.Fatalf("wash trading not detected: %+v", res.BotActivity)
	}
	if res.Signal != models.SignalAvoid {
		t.Fatalf("signal = %s, want AVOID despite strong sub-scores", res.Signal)
	}
	if res.Recommendation.Action != models.ActionAvoid {
		t.Fatalf("action = %s, want AVOID", res.Recommendation.Action)
	}
}

func TestAnalyzeRenormalizesOmittedWeights(t *testing.T) {
	agg := newAggregator()

	// Nine trades: below the institutional minimum, so that sub-score is
	// omitted and the remaining weights rescale to sum to 1.
	thin := institutionalTape()[:9]

	res, err := agg.AnalyzeComprehensive(context.Background(), "ETHUSDT",
		mediumWindow(pumpCandles()), cleanBook(), thin, nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	found := false
	for _, name := range res.Omitted {
		if name == "institutional" {
			found = true
		}
	}
	if !found {
		t.Fatalf("institutional not omitted: %v", res.Omitted)
	}
	if len(res.SubScores) != 4 {
		t.Fatalf("sub-score count = %d, want 4", len(res.SubScores))
	}
	var sum float64
	for _, s := range res.SubScores {
		sum += s.Weight
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("renormalized weights sum to %v, want 1.0", sum)
	}
	// volume's share becomes 0.25 / 0.65
	for _, s := range res.SubScores {
		if s.Name == "volume" && math.Abs(s.Weight-0.25/0.65) > 1e-9 {
			t.Fatalf("volume weight = %v, want %v", s.Weight, 0.25/0.65)
		}
	}
}

func TestAnalyzeDirectionSumsToHundred(t *testing.T) {
	agg := newAggregator()

	scenarios := map[string][]models.CandleBar{
		"pump":  pumpCandles(),
		"quiet": quietWindow(30),
	}
	for name, candles := range scenarios {
		res, err := agg.AnalyzeComprehensive(context.Background(), "SOLUSDT",
			mediumWindow(candles), cleanBook(), institutionalTape(), nil)
		if err != nil {
			t.Fatalf("%s: analyze: %v", name, err)
		}
		d := res.Direction
		if d.Up+d.Down+d.Sideways != 100 {
			t.Fatalf("%s: direction sums to %v, want exactly 100", name, d.Up+d.Down+d.Sideways)
		}
		if d.Up < 0 || d.Down < 0 || d.Sideways < 0 {
			t.Fatalf("%s: negative probability: %+v", name, d)
		}
		if res.Confidence < 0 || res.Confidence > 100 {
			t.Fatalf("%s: confidence out of range: %v", name, res.Confidence)
		}
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	agg := newAggregator()

	run := func() *models.DetectionResult {
		res, err := agg.AnalyzeComprehensive(context.Background(), "BTCUSDT",
			mediumWindow(pumpCandles()), cleanBook(), institutionalTape(), nil)
		if err != nil {
			t.Fatalf("analyze: %v", err)
		}
		return res
	}

	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical inputs produced different results:\n%+v\n%+v", a, b)
	}
}

func TestAnalyzeNoCandles(t *testing.T) {
	agg := newAggregator()

	if _, err := agg.AnalyzeComprehensive(context.Background(), "BTCUSDT", nil, nil, nil, nil); err == nil {
		t.Fatalf("expected error for empty input window")
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	agg := newAggregator()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := agg.AnalyzeComprehensive(ctx, "BTCUSDT",
		mediumWindow(pumpCandles()), cleanBook(), institutionalTape(), nil); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}

func quietWindow(n int) []models.CandleBar {
	out := make([]models.CandleBar, n)
	for i := range out {
		close := 100.0
		if i%2 == 0 {
			close = 100.1
		}
		out[i] = models.CandleBar{
			Open: 100, High: 100.6, Low: 99.4, Close: close, Volume: 100,
			OpenTime:  t0.Add(time.Duration(i) * 5 * time.Minute),
			CloseTime: t0.Add(time.Duration(i+1) * 5 * time.Minute),
		}
	}
	return out
}
