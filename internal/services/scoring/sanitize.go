package scoring

import (
	"FlowSentry/internal/domain/models"
)

// CleanCandles drops individually malformed bars and keeps the rest, so one
// bad record never aborts an evaluation. Returns the number dropped.
func CleanCandles(candles []models.CandleBar) ([]models.CandleBar, int) {
	out := make([]models.CandleBar, 0, len(candles))
	dropped := 0
	for _, c := range candles {
		if !c.Valid() {
			dropped++
			continue
		}
		out = append(out, c)
	}
	return out, dropped
}

// CleanTrades drops individually malformed trades.
func CleanTrades(trades []models.Trade) ([]models.Trade, int) {
	out := make([]models.Trade, 0, len(trades))
	dropped := 0
	for _, t := range trades {
		if !t.Valid() {
			dropped++
			continue
		}
		out = append(out, t)
	}
	return out, dropped
}

// CleanBook drops levels with non-positive price or quantity from a snapshot
// copy; the input snapshot is never mutated.
func CleanBook(book *models.OrderBookSnapshot) (*models.OrderBookSnapshot, int) {
	if book == nil {
		return nil, 0
	}
	clean := &models.OrderBookSnapshot{Timestamp: book.Timestamp}
	dropped := 0
	for _, l := range book.Bids {
		if l.Price <= 0 || l.Quantity <= 0 {
			dropped++
			continue
		}
		clean.Bids = append(clean.Bids, l)
	}
	for _, l := range book.Asks {
		if l.Price <= 0 || l.Quantity <= 0 {
			dropped++
			continue
		}
		clean.Asks = append(clean.Asks, l)
	}
	return clean, dropped
}
