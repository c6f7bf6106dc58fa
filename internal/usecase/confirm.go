package usecase

import (
	"context"
	"fmt"

	"FlowSentry/internal/domain/models"
	domrepo "FlowSentry/internal/domain/repository"
	"FlowSentry/internal/services/stats"
	"FlowSentry/pkg/config"
	"FlowSentry/pkg/logger"
)

// adjustmentRule is one named, pure Layer-2 score adjustment. Rules are
// applied in a fixed order and the score is re-clamped after every step.
type adjustmentRule struct {
	name  string
	apply func(res *models.DetectionResult) (delta float64, fired bool)
}

// ConfirmationPipeline re-confirms a symbol across three temporal horizons
// each time a candle closes on the fastest tracked timeframe. It owns the
// data fetch; the aggregator stays pure.
type ConfirmationPipeline struct {
	cfg   config.EngineConfig
	store domrepo.MarketStore
	agg   *SignalAggregator
	rules []adjustmentRule
	log   *logger.Logger
}

func NewConfirmationPipeline(
	cfg config.EngineConfig,
	store domrepo.MarketStore,
	agg *SignalAggregator,
	log *logger.Logger,
) *ConfirmationPipeline {
	p := &ConfirmationPipeline{cfg: cfg, store: store, agg: agg, log: log}
	p.rules = p.buildRules()
	return p
}

// buildRules fixes the Layer-2 adjustment order. Each rule reads the
// detection result only; none mutates shared state.
func (p *ConfirmationPipeline) buildRules() []adjustmentRule {
	strong := p.cfg.Signals.StrongComposite
	return []adjustmentRule{
		{"strong_pump_confirmed", func(r *models.DetectionResult) (float64, bool) {
			return 25, r.Signal == models.SignalStrongPump && r.Confidence >= strong
		}},
		{"strong_dump", func(r *models.DetectionResult) (float64, bool) {
			return -30, r.Signal == models.SignalStrongDump
		}},
		{"institutional_accumulation", func(r *models.DetectionResult) (float64, bool) {
			f := r.InstitutionalFlow
			return 12, f != nil && f.ActivityType == models.ActivityAccumulation
		}},
		{"smart_money_inflow", func(r *models.DetectionResult) (float64, bool) {
			f := r.InstitutionalFlow
			return 8, f != nil && f.SmartMoneyFlow == models.FlowInflow
		}},
		{"volume_illegitimate", func(r *models.DetectionResult) (float64, bool) {
			v := r.VolumeAnalysis
			return -12, v != nil && !v.IsLegitimate
		}},
		{"wash_trading", func(r *models.DetectionResult) (float64, bool) {
			d, ok := r.BotActivity[models.BotWashTrading]
			return -15, ok && d.Detected
		}},
		{"dump_bot", func(r *models.DetectionResult) (float64, bool) {
			d, ok := r.BotActivity[models.BotDumpBot]
			return -20, ok && d.Detected
		}},
	}
}

// Confirm runs all three layers for one symbol. A cancelled context aborts
// between layers; no partial result is surfaced.
func (p *ConfirmationPipeline) Confirm(ctx context.Context, symbol string) (*models.ConfirmationResult, error) {
	in, err := p.fetch(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("confirm %s: %w", symbol, err)
	}

	l1 := p.layer1(in.short)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	det, err := p.agg.AnalyzeComprehensive(ctx, symbol, map[domrepo.Timeframe][]models.CandleBar{
		domrepo.Timeframe(p.cfg.Pipeline.ShortTF):  in.short,
		domrepo.Timeframe(p.cfg.Pipeline.MediumTF): in.medium,
		domrepo.Timeframe(p.cfg.Pipeline.LongTF):   in.long,
	}, in.book, in.trades, in.market)
	if err != nil {
		return nil, fmt.Errorf("confirm %s: %w", symbol, err)
	}

	l2, adjustments := p.layer2(l1.Score, det)
	l3, alignment := p.layer3(in.long, det, l2.Score)

	res := &models.ConfirmationResult{
		Symbol:      symbol,
		Timestamp:   det.Timestamp,
		PumpScore:   l3.Score,
		Layer1:      l1,
		Layer2:      l2,
		Layer3:      l3,
		Adjustments: adjustments,
		Alignment:   alignment,
		Detection:   det,
	}

	if p.log != nil {
		p.log.Debug("confirmation complete",
			logger.String("symbol", symbol),
			logger.Any("pump_score", res.PumpScore),
			logger.String("signal", string(det.Signal)),
		)
	}
	return res, nil
}

type pipelineInput struct {
	short  []models.CandleBar
	medium []models.CandleBar
	long   []models.CandleBar
	trades []models.Trade
	book   *models.OrderBookSnapshot
	market *models.MarketData
}

// fetch pulls the three candle horizons, the trade tape, the depth snapshot
// and the 24h ticker. Candles are mandatory; trades, depth and ticker degrade
// gracefully (the scorers that need them report insufficient data).
func (p *ConfirmationPipeline) fetch(ctx context.Context, symbol string) (*pipelineInput, error) {
	pc := p.cfg.Pipeline
	in := &pipelineInput{}

	var err error
	if in.short, err = p.store.GetLatestNCandles(ctx, symbol, pc.ShortBars, domrepo.Timeframe(pc.ShortTF)); err != nil {
		return nil, fmt.Errorf("short candles: %w", err)
	}
	if in.medium, err = p.store.GetLatestNCandles(ctx, symbol, pc.MediumBars, domrepo.Timeframe(pc.MediumTF)); err != nil {
		return nil, fmt.Errorf("medium candles: %w", err)
	}
	if in.long, err = p.store.GetLatestNCandles(ctx, symbol, pc.LongBars, domrepo.Timeframe(pc.LongTF)); err != nil {
		return nil, fmt.Errorf("long candles: %w", err)
	}

	if in.trades, err = p.store.GetRecentTrades(ctx, symbol, pc.TradeLimit); err != nil {
		p.warn("trade tape unavailable", symbol, err)
		in.trades = nil
	}
	if in.book, err = p.store.GetDepth(ctx, symbol, pc.DepthLimit); err != nil {
		p.warn("depth snapshot unavailable", symbol, err)
		in.book = nil
	}
	if in.market, err = p.store.GetTicker24h(ctx, symbol); err != nil {
		p.warn("24h ticker unavailable, deriving context from RSI", symbol, err)
		in.market = nil
	}

	// When the ticker context is missing, derive oversold/overbought from the
	// long-horizon RSI so GOLDEN_OPPORTUNITY and EXIT_WARNING stay reachable.
	if in.market == nil || (!in.market.Oversold && !in.market.Overbought) {
		rsi := stats.RSI(in.long, pc.RSIPeriod)
		if in.market == nil {
			in.market = &models.MarketData{}
		}
		in.market.RSI = rsi
		in.market.Oversold = rsi <= pc.Oversold
		in.market.Overbought = rsi >= pc.Overbought
	}
	return in, nil
}

// layer1 is the cheap short-horizon heuristic: a provisional pump score from
// the latest bar's volume spike and the short-window momentum. No I/O.
func (p *ConfirmationPipeline) layer1(short []models.CandleBar) models.LayerScore {
	ls := models.LayerScore{Layer: 1, Score: 50}
	if len(short) < 3 {
		ls.Notes = append(ls.Notes, "short window too thin, neutral baseline")
		return ls
	}

	vols := stats.Volumes(short)
	baseline := stats.Mean(vols[:len(vols)-1])
	spike := stats.Ratio(vols[len(vols)-1], baseline)
	if spike > 1 {
		ls.Score += stats.Clamp((spike-1)*10, 0, 25)
		ls.Notes = append(ls.Notes, fmt.Sprintf("volume spike %.1fx baseline", spike))
	}

	momentum := stats.PercentChange(short)
	ls.Score += stats.Clamp(momentum*3, -25, 25)
	ls.Notes = append(ls.Notes, fmt.Sprintf("short momentum %+.2f%%", momentum))

	ls.Score = stats.Clamp100(ls.Score)
	return ls
}

// layer2 folds the ordered adjustment rules over the provisional score,
// re-clamping after each step so no rule can push the score out of range.
func (p *ConfirmationPipeline) layer2(provisional float64, det *models.DetectionResult) (models.LayerScore, []models.Adjustment) {
	ls := models.LayerScore{Layer: 2, Score: provisional}
	var applied []models.Adjustment
	for _, r := range p.rules {
		delta, fired := r.apply(det)
		if !fired {
			continue
		}
		ls.Score = stats.Clamp100(ls.Score + delta)
		applied = append(applied, models.Adjustment{Rule: r.name, Delta: delta, After: ls.Score})
		ls.Notes = append(ls.Notes, fmt.Sprintf("%s %+.0f", r.name, delta))
	}
	return ls, applied
}

// layer3 dampens the Layer-2 score when the short/medium signal contradicts
// the dominant long-horizon trend. The factor never drops below the
// configured floor and never amplifies.
func (p *ConfirmationPipeline) layer3(long []models.CandleBar, det *models.DetectionResult, adjusted float64) (models.LayerScore, float64) {
	ls := models.LayerScore{Layer: 3}
	alignment := 1.0

	trend := stats.PercentChange(long)
	bullish := det.Signal == models.SignalGoldenOpportunity ||
		det.Signal == models.SignalStrongPump || det.Signal == models.SignalPump
	bearish := det.Signal == models.SignalStrongDump || det.Signal == models.SignalDump ||
		det.Signal == models.SignalExitWarning

	contradicts := (bullish && trend < -1) || (bearish && trend > 1)
	if contradicts {
		// Deeper contradiction dampens harder, down to the floor.
		alignment = stats.Clamp(1-abs(trend)/20, p.cfg.Pipeline.MinAlignment, 1.0)
		ls.Notes = append(ls.Notes,
			fmt.Sprintf("signal contradicts long trend (%+.1f%%), alignment %.2f", trend, alignment))
	} else {
		ls.Notes = append(ls.Notes, fmt.Sprintf("long trend %+.1f%% aligned", trend))
	}

	ls.Score = stats.Clamp100(adjusted * alignment)
	return ls, alignment
}

func (p *ConfirmationPipeline) warn(msg, symbol string, err error) {
	if p.log != nil {
		p.log.Warn(msg, logger.String("symbol", symbol), logger.Error(err))
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
