package scoring

import (
	"fmt"

	"FlowSentry/internal/domain/models"
	domsvc "FlowSentry/internal/domain/service"
	"FlowSentry/internal/services/stats"
	"FlowSentry/pkg/config"
)

// InstitutionalAnalyzer classifies block trades and Wyckoff-style
// accumulation/distribution over the supplied window.
type InstitutionalAnalyzer struct {
	cfg config.EngineConfig
}

func NewInstitutionalAnalyzer(cfg config.EngineConfig) *InstitutionalAnalyzer {
	return &InstitutionalAnalyzer{cfg: cfg}
}

// Analyze inspects the trade tape for block trades and the candle window for
// accumulation/distribution. Below the minimum trade count it returns
// ErrInsufficientData so the aggregator can renormalize weights.
func (a *InstitutionalAnalyzer) Analyze(candles []models.CandleBar, trades []models.Trade) (models.InstitutionalFlow, error) {
	out := models.InstitutionalFlow{ActivityType: models.ActivityNone, SmartMoneyFlow: models.FlowNeutral}

	trades, droppedTr := CleanTrades(trades)
	candles, droppedC := CleanCandles(candles)
	if droppedTr+droppedC > 0 {
		out.Evidence = append(out.Evidence, fmt.Sprintf("dropped %d malformed units", droppedTr+droppedC))
	}
	if len(trades) < a.cfg.MinTrades {
		out.Evidence = append(out.Evidence, fmt.Sprintf("trade count %d below minimum %d", len(trades), a.cfg.MinTrades))
		return out, ErrInsufficientData
	}

	meanSize := stats.Mean(stats.TradeSizes(trades))
	blockFloor := meanSize * a.cfg.Institutional.BlockTradeMultiple

	var totalVol, blockVol, buyBlockVol, sellBlockVol float64
	blocks := 0
	for _, t := range trades {
		totalVol += t.Quantity
		if meanSize > 0 && t.Quantity > blockFloor {
			blocks++
			blockVol += t.Quantity
			if t.Side == models.SideSell {
				sellBlockVol += t.Quantity
			} else {
				buyBlockVol += t.Quantity
			}
		}
	}
	out.BlockTradeRatio = stats.Ratio(blockVol, totalVol)
	if blocks > 0 {
		out.Evidence = append(out.Evidence, fmt.Sprintf("%d block trades, %.1f%% of volume", blocks, out.BlockTradeRatio*100))
	}

	// Smart-money flow is the sign of net block volume, with a 10% neutral band.
	net := buyBlockVol - sellBlockVol
	if blockVol > 0 {
		switch {
		case net > 0.1*blockVol:
			out.SmartMoneyFlow = models.FlowInflow
			out.Evidence = append(out.Evidence, "net block volume on the buy side")
		case net < -0.1*blockVol:
			out.SmartMoneyFlow = models.FlowOutflow
			out.Evidence = append(out.Evidence, "net block volume on the sell side")
		}
	}

	out.ActivityType = a.classifyActivity(candles, &out)

	out.IsInstitutional = out.BlockTradeRatio > 0.1 || out.ActivityType != models.ActivityNone

	blockComponent := stats.Clamp100(out.BlockTradeRatio * 400)
	activityComponent := 0.0
	if out.ActivityType != models.ActivityNone {
		activityComponent = 100
	}
	flowComponent := 50.0
	if out.SmartMoneyFlow != models.FlowNeutral {
		flowComponent = 100
	}
	out.Score = stats.Clamp100(0.5*blockComponent + 0.3*activityComponent + 0.2*flowComponent)

	return out, nil
}

// classifyActivity evaluates the trailing sub-window for Wyckoff patterns:
// price range contracting while volume rises, with closes clustering near the
// highs (accumulation) or lows (distribution).
func (a *InstitutionalAnalyzer) classifyActivity(candles []models.CandleBar, out *models.InstitutionalFlow) models.ActivityType {
	n := a.cfg.Institutional.TrailingBars
	if len(candles) < n || n < 4 {
		return models.ActivityNone
	}
	win := candles[len(candles)-n:]
	half := n / 2

	var earlyRange, lateRange float64
	for i, c := range win {
		if i < half {
			earlyRange += c.Range()
		} else {
			lateRange += c.Range()
		}
	}
	earlyRange /= float64(half)
	lateRange /= float64(n - half)
	contracting := lateRange < earlyRange

	volRising := stats.Slope(stats.Volumes(win)) > 0

	// Close position inside the bar range: 1 at the high, 0 at the low.
	var closePos float64
	counted := 0
	for _, c := range win {
		r := c.Range()
		if r == 0 {
			continue
		}
		closePos += (c.Close - c.Low) / r
		counted++
	}
	if counted == 0 || !contracting || !volRising {
		return models.ActivityNone
	}
	closePos /= float64(counted)

	switch {
	case closePos >= 0.6:
		out.Evidence = append(out.Evidence, "range contracting, volume rising, closes near highs")
		return models.ActivityAccumulation
	case closePos <= 0.4:
		out.Evidence = append(out.Evidence, "range contracting, volume rising, closes near lows")
		return models.ActivityDistribution
	default:
		return models.ActivityNone
	}
}

var _ domsvc.FlowAnalyzer = (*InstitutionalAnalyzer)(nil)
