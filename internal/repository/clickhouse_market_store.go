package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"FlowSentry/internal/domain/models"
	domrepo "FlowSentry/internal/domain/repository"
	pkgch "FlowSentry/pkg/clickhouse"
	applogger "FlowSentry/pkg/logger"
)

// CHMarketStore implements MarketStore backed by the ingestion platform's
// ClickHouse tables. All reads are point-in-time; nothing here writes.
type CHMarketStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHMarketStore(ch *pkgch.Client) *CHMarketStore {
	return &CHMarketStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHMarketStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHMarketStore) GetLatestNCandles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.CandleBar, error) {
	start := time.Now()
	table, err := tableForTF(tf)
	if err != nil {
		return nil, err
	}
	const qtpl = `
        SELECT open_time, close_time, open, high, low, close, vol
        FROM %s
        WHERE symbol = ?
        ORDER BY open_time DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, table)
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		s.logErr("latest_candles query error", table, symbol, err)
		return nil, fmt.Errorf("get latest candles: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.CandleBar, 0, n)
	for rows.Next() {
		var c models.CandleBar
		if err := rows.Scan(&c.OpenTime, &c.CloseTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			s.logErr("latest_candles scan error", table, symbol, err)
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		tmp = append(tmp, c)
	}
	if err := rows.Err(); err != nil {
		s.logErr("latest_candles rows error", table, symbol, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC, oldest first
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	if s.l != nil {
		s.l.Debug("clickhouse latest_candles ok",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration", time.Since(start)),
		)
	}
	return tmp, nil
}

func (s *CHMarketStore) GetRecentTrades(ctx context.Context, symbol string, limit int) ([]models.Trade, error) {
	const q = `
        SELECT ts, price, qty, side
        FROM flowsentry.trades
        WHERE symbol = ?
        ORDER BY ts DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		s.logErr("recent_trades query error", "flowsentry.trades", symbol, err)
		return nil, fmt.Errorf("get recent trades: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.Trade, 0, limit)
	for rows.Next() {
		var t models.Trade
		var side string
		if err := rows.Scan(&t.Timestamp, &t.Price, &t.Quantity, &side); err != nil {
			s.logErr("recent_trades scan error", "flowsentry.trades", symbol, err)
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Side = models.TradeSide(side)
		tmp = append(tmp, t)
	}
	if err := rows.Err(); err != nil {
		s.logErr("recent_trades rows error", "flowsentry.trades", symbol, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	return tmp, nil
}

func (s *CHMarketStore) GetDepth(ctx context.Context, symbol string, limit int) (*models.OrderBookSnapshot, error) {
	// Latest snapshot only; levels arrive pre-sorted from the ingester
	// (bids descending, asks ascending).
	const q = `
        SELECT ts, side, price, qty
        FROM flowsentry.depth_levels
        WHERE symbol = ?
          AND ts = (SELECT max(ts) FROM flowsentry.depth_levels WHERE symbol = ?)
        ORDER BY side, level ASC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, symbol, limit*2)
	if err != nil {
		s.logErr("depth query error", "flowsentry.depth_levels", symbol, err)
		return nil, fmt.Errorf("get depth: %w", err)
	}
	defer rows.Close()

	ob := &models.OrderBookSnapshot{}
	for rows.Next() {
		var (
			ts    time.Time
			side  string
			level models.BookLevel
		)
		if err := rows.Scan(&ts, &side, &level.Price, &level.Quantity); err != nil {
			s.logErr("depth scan error", "flowsentry.depth_levels", symbol, err)
			return nil, fmt.Errorf("scan depth level: %w", err)
		}
		ob.Timestamp = ts
		if side == "bid" {
			ob.Bids = append(ob.Bids, level)
		} else {
			ob.Asks = append(ob.Asks, level)
		}
	}
	if err := rows.Err(); err != nil {
		s.logErr("depth rows error", "flowsentry.depth_levels", symbol, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(ob.Bids) == 0 && len(ob.Asks) == 0 {
		return nil, fmt.Errorf("get depth: no snapshot for %s", symbol)
	}
	return ob, nil
}

func (s *CHMarketStore) GetTicker24h(ctx context.Context, symbol string) (*models.MarketData, error) {
	const q = `
        SELECT vol_24h, price_change_pct
        FROM flowsentry.ticker_24h
        WHERE symbol = ?
        ORDER BY ts DESC
        LIMIT 1
    `
	var md models.MarketData
	row := s.db.QueryRowContext(ctx, q, symbol)
	if err := row.Scan(&md.Volume24h, &md.PriceChangePct); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("get ticker: no row for %s", symbol)
		}
		s.logErr("ticker query error", "flowsentry.ticker_24h", symbol, err)
		return nil, fmt.Errorf("get ticker: %w", err)
	}
	return &md, nil
}

func (s *CHMarketStore) logErr(msg, table, symbol string, err error) {
	if s.l == nil {
		return
	}
	s.l.Error("clickhouse "+msg,
		applogger.String("table", table),
		applogger.String("symbol", symbol),
		applogger.Error(err),
	)
}

func tableForTF(tf domrepo.Timeframe) (string, error) {
	switch tf {
	case domrepo.TF1m:
		return "flowsentry.candles_1m", nil
	case domrepo.TF5m:
		return "flowsentry.candles_5m", nil
	case domrepo.TF15m:
		return "flowsentry.candles_15m", nil
	case domrepo.TF1h:
		return "flowsentry.candles_1h", nil
	case domrepo.TF4h:
		return "flowsentry.candles_4h", nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %s", tf)
	}
}

var _ domrepo.MarketStore = (*CHMarketStore)(nil)
