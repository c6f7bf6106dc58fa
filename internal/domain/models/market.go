package models

import "time"

// TradeSide marks the aggressor side of a trade.
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// CandleBar represents one OHLCV bar. Sequences are ordered oldest to newest
// and immutable once produced by the ingestion platform.
type CandleBar struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	OpenTime  time.Time
	CloseTime time.Time
}

// IsGreen reports whether the bar closed above its open.
func (c CandleBar) IsGreen() bool { return c.Close > c.Open }

// IsRed reports whether the bar closed below its open.
func (c CandleBar) IsRed() bool { return c.Close < c.Open }

// Range returns high minus low.
func (c CandleBar) Range() float64 { return c.High - c.Low }

// Valid reports whether the bar satisfies the schema: non-negative volume,
// high >= low, and OHLC inside the [low, high] band.
func (c CandleBar) Valid() bool {
	if c.Volume < 0 || c.High < c.Low {
		return false
	}
	if c.Open < c.Low || c.Open > c.High || c.Close < c.Low || c.Close > c.High {
		return false
	}
	return true
}

// Trade is a single executed trade from the recent tape, ordered by time.
type Trade struct {
	Price     float64
	Quantity  float64
	Side      TradeSide
	Timestamp time.Time
}

// Valid reports whether the trade satisfies the schema.
func (t Trade) Valid() bool {
	return t.Price > 0 && t.Quantity > 0 && !t.Timestamp.IsZero()
}

// BookLevel is one resting price level of the order book.
type BookLevel struct {
	Price    float64
	Quantity float64
}

// OrderBookSnapshot holds bids sorted by descending price and asks by
// ascending price, as delivered by the depth collaborator.
type OrderBookSnapshot struct {
	Bids      []BookLevel
	Asks      []BookLevel
	Timestamp time.Time
}

// BidVolume sums resting bid quantity.
func (ob *OrderBookSnapshot) BidVolume() float64 {
	var v float64
	for _, l := range ob.Bids {
		v += l.Quantity
	}
	return v
}

// AskVolume sums resting ask quantity.
func (ob *OrderBookSnapshot) AskVolume() float64 {
	var v float64
	for _, l := range ob.Asks {
		v += l.Quantity
	}
	return v
}

// MidPrice returns the bid/ask midpoint, or 0 when either side is empty.
func (ob *OrderBookSnapshot) MidPrice() float64 {
	if len(ob.Bids) == 0 || len(ob.Asks) == 0 {
		return 0
	}
	return (ob.Bids[0].Price + ob.Asks[0].Price) / 2
}

// MarketData carries the 24h ticker context supplied by the caller.
// Oversold/Overbought gate the GOLDEN_OPPORTUNITY and EXIT_WARNING signals.
type MarketData struct {
	Volume24h      float64
	PriceChangePct float64
	RSI            float64
	Oversold       bool
	Overbought     bool
}

// Window bundles one evaluation's immutable inputs for the detectors.
type Window struct {
	Candles []CandleBar
	Trades  []Trade
	Book    *OrderBookSnapshot
}
