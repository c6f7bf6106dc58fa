package botwatch

import (
	"math"
	"testing"
	"time"

	"FlowSentry/internal/domain/models"
	"FlowSentry/pkg/config"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func flatCandles(n int, volume float64) []models.CandleBar {
	out := make([]models.CandleBar, n)
	for i := range out {
		out[i] = models.CandleBar{
			Open: 100, High: 100.6, Low: 99.4, Close: 100, Volume: volume,
			OpenTime: t0.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestWashTradeDetection(t *testing.T) {
	d := NewWashTradeDetector(config.DefaultEngine())

	candles := flatCandles(10, 100)
	last := &candles[9]
	last.Volume = 250    // 2.5x the trailing average
	last.Close = 100.2   // 0.2% move
	last.High = 100.6

	det := d.Detect(models.Window{Candles: candles})
	if !det.Detected {
		t.Fatalf("expected wash trading detection")
	}
	want := 50 + (2.0-0.2)*20 // 86
	if math.Abs(det.Confidence-want) > 1e-9 {
		t.Fatalf("confidence = %v, want %v", det.Confidence, want)
	}
	if len(det.Evidence) == 0 {
		t.Fatalf("expected evidence")
	}
}

func TestWashTradeRequiresFlatPrice(t *testing.T) {
	d := NewWashTradeDetector(config.DefaultEngine())

	candles := flatCandles(10, 100)
	candles[9].Volume = 250
	candles[9].Close = 101.5 // 1.5% move: volume spike with real movement is not wash
	candles[9].High = 101.6

	if det := d.Detect(models.Window{Candles: candles}); det.Detected {
		t.Fatalf("volume spike with price movement flagged as wash: %+v", det)
	}
}

func TestWashTradeConfidenceCap(t *testing.T) {
	cfg := config.DefaultEngine()
	cfg.Bots.WashVolumeRatio = 5 // 50 + (5-0)*20 would be 150 uncapped
	d := NewWashTradeDetector(cfg)

	candles := flatCandles(10, 100)
	candles[9].Volume = 600
	candles[9].Close = 100 // zero move

	det := d.Detect(models.Window{Candles: candles})
	if !det.Detected || det.Confidence != 100 {
		t.Fatalf("confidence = %v, want capped at 100", det.Confidence)
	}
}

func TestSpoofingDetection(t *testing.T) {
	d := NewSpoofingDetector(config.DefaultEngine())

	book := &models.OrderBookSnapshot{Timestamp: t0}
	for i := 0; i < 5; i++ {
		book.Bids = append(book.Bids, models.BookLevel{Price: 100 - float64(i), Quantity: 10})
		book.Asks = append(book.Asks, models.BookLevel{Price: 101 + float64(i), Quantity: 10})
	}
	trades := []models.Trade{
		{Price: 100, Quantity: 6, Side: models.SideBuy, Timestamp: t0},
		{Price: 100, Quantity: 4, Side: models.SideSell, Timestamp: t0.Add(time.Second)},
	}

	det := d.Detect(models.Window{Book: book, Trades: trades})
	if !det.Detected {
		t.Fatalf("expected spoofing detection")
	}
	// depth 100 over traded 10 -> ratio 10 -> 40 + 10*5 = 90
	if math.Abs(det.Confidence-90) > 1e-9 {
		t.Fatalf("confidence = %v, want 90", det.Confidence)
	}

	// Plenty of actual trading against the same depth is fine.
	busy := []models.Trade{{Price: 100, Quantity: 80, Side: models.SideBuy, Timestamp: t0}}
	if det := d.Detect(models.Window{Book: book, Trades: busy}); det.Detected {
		t.Fatalf("active depth flagged as spoofing: %+v", det)
	}
}

func TestIcebergDetection(t *testing.T) {
	d := NewIcebergDetector(config.DefaultEngine())

	// Evenly sized, evenly timed child orders.
	trades := make([]models.Trade, 20)
	for i := range trades {
		qty := 9.0
		if i%2 == 1 {
			qty = 11.0
		}
		trades[i] = models.Trade{Price: 100, Quantity: qty, Side: models.SideBuy, Timestamp: t0.Add(time.Duration(i) * time.Second)}
	}

	det := d.Detect(models.Window{Trades: trades})
	if !det.Detected {
		t.Fatalf("expected iceberg detection")
	}
	if det.Confidence != 75 {
		t.Fatalf("confidence = %v, want fixed 75", det.Confidence)
	}

	// Irregular sizes break the pattern.
	trades[3].Quantity = 120
	trades[15].Quantity = 0.5
	if det := d.Detect(models.Window{Trades: trades}); det.Detected {
		t.Fatalf("irregular tape flagged as iceberg: %+v", det)
	}
}

func TestIcebergNeedsEnoughTrades(t *testing.T) {
	d := NewIcebergDetector(config.DefaultEngine())
	trades := make([]models.Trade, 9)
	for i := range trades {
		trades[i] = models.Trade{Price: 100, Quantity: 10, Side: models.SideBuy, Timestamp: t0.Add(time.Duration(i) * time.Second)}
	}
	if det := d.Detect(models.Window{Trades: trades}); det.Detected {
		t.Fatalf("nine trades should not be enough for the pattern")
	}
}

func TestMarketMakerDetection(t *testing.T) {
	d := NewMarketMakerDetector(config.DefaultEngine())

	tight := &models.OrderBookSnapshot{
		Bids:      []models.BookLevel{{Price: 100.00, Quantity: 10}},
		Asks:      []models.BookLevel{{Price: 100.01, Quantity: 10}},
		Timestamp: t0,
	}
	det := d.Detect(models.Window{Book: tight})
	if !det.Detected || det.Confidence != 70 {
		t.Fatalf("tight spread: detected=%v confidence=%v, want detected at 70", det.Detected, det.Confidence)
	}

	wide := &models.OrderBookSnapshot{
		Bids:      []models.BookLevel{{Price: 100.0, Quantity: 10}},
		Asks:      []models.BookLevel{{Price: 100.5, Quantity: 10}},
		Timestamp: t0,
	}
	if det := d.Detect(models.Window{Book: wide}); det.Detected {
		t.Fatalf("wide spread flagged as market making: %+v", det)
	}
}

func dumpCandles() []models.CandleBar {
	out := make([]models.CandleBar, 20)
	for i := range out {
		open := 120.0 - float64(i)
		close := open - 0.8
		high := open + 0.5
		if i == 5 || i == 12 {
			high = open + 3 // lower swing highs
		}
		out[i] = models.CandleBar{
			Open: open, High: high, Low: close - 0.5, Close: close,
			Volume:   200 - 5*float64(i), // fading
			OpenTime: t0.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestDumpBotDetection(t *testing.T) {
	d := NewDumpBotDetector(config.DefaultEngine())

	det := d.Detect(models.Window{Candles: dumpCandles()})
	if !det.Detected {
		t.Fatalf("expected dump bot detection")
	}
	if det.Confidence != 80 {
		t.Fatalf("confidence = %v, want fixed 80", det.Confidence)
	}
}

func TestDumpBotNeedsFadingVolume(t *testing.T) {
	d := NewDumpBotDetector(config.DefaultEngine())

	candles := dumpCandles()
	for i := range candles {
		candles[i].Volume = 100 + 5*float64(i) // rising volume: genuine selloff, not a bot
	}
	if det := d.Detect(models.Window{Candles: candles}); det.Detected {
		t.Fatalf("rising-volume decline flagged as dump bot: %+v", det)
	}
}

func TestClassifierCoversAllDetectors(t *testing.T) {
	c := NewClassifier(config.DefaultEngine())

	out := c.Classify(models.Window{Candles: flatCandles(20, 100)})
	want := []string{
		models.BotWashTrading,
		models.BotSpoofing,
		models.BotIceberg,
		models.BotMarketMaker,
		models.BotDumpBot,
	}
	if len(out) != len(want) {
		t.Fatalf("classification size = %d, want %d", len(out), len(want))
	}
	for _, name := range want {
		if _, ok := out[name]; !ok {
			t.Fatalf("missing detector %q in classification", name)
		}
	}
	for name, det := range out {
		if det.Detected {
			t.Fatalf("quiet window triggered %s: %+v", name, det)
		}
	}
}
