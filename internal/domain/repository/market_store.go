package repository

import (
	"context"

	"FlowSentry/internal/domain/models"
)

// Timeframe represents candle resolution buckets.
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
)

// MarketStore provides read-only access to the ingestion platform's market
// data: candles, the recent trade tape, and depth snapshots. It is the
// in-process face of the get_klines / get_recent_trades / get_depth /
// get_ticker_24h collaborators.
type MarketStore interface {
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.CandleBar, error)
	GetRecentTrades(ctx context.Context, symbol string, limit int) ([]models.Trade, error)
	GetDepth(ctx context.Context, symbol string, limit int) (*models.OrderBookSnapshot, error)
	GetTicker24h(ctx context.Context, symbol string) (*models.MarketData, error)
}
