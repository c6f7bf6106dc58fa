package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"FlowSentry/internal/domain/models"
	domrepo "FlowSentry/internal/domain/repository"
	domsvc "FlowSentry/internal/domain/service"
	"FlowSentry/internal/services/scoring"
	"FlowSentry/internal/services/stats"
	"FlowSentry/pkg/config"
)

// Sub-score names in aggregation order.
const (
	scoreInstitutional = "institutional"
	scoreVolume        = "volume"
	scorePrice         = "price"
	scoreDepth         = "depth"
	scoreBot           = "bot"
)

// SignalAggregator combines the five scorers into one DetectionResult. It is
// pure and deterministic: identical inputs yield an identical result, and no
// state survives a call.
type SignalAggregator struct {
	cfg    config.EngineConfig
	flow   domsvc.FlowAnalyzer
	volume domsvc.VolumeScorer
	price  domsvc.PriceActionScorer
	depth  domsvc.DepthScorer
	bots   domsvc.BotClassifier
}

func NewSignalAggregator(
	cfg config.EngineConfig,
	flow domsvc.FlowAnalyzer,
	volume domsvc.VolumeScorer,
	price domsvc.PriceActionScorer,
	depth domsvc.DepthScorer,
	bots domsvc.BotClassifier,
) *SignalAggregator {
	return &SignalAggregator{cfg: cfg, flow: flow, volume: volume, price: price, depth: depth, bots: bots}
}

// AnalyzeComprehensive evaluates one symbol over an already-fetched input
// window. The five scorers have no data dependency on each other and run in
// parallel; this call is the single synchronization barrier.
func (a *SignalAggregator) AnalyzeComprehensive(
	ctx context.Context,
	symbol string,
	candlesByTF map[domrepo.Timeframe][]models.CandleBar,
	book *models.OrderBookSnapshot,
	trades []models.Trade,
	market *models.MarketData,
) (*models.DetectionResult, error) {
	primary := a.primaryCandles(candlesByTF)
	if len(primary) == 0 {
		return nil, fmt.Errorf("analyze %s: no candles supplied", symbol)
	}

	var (
		wg      sync.WaitGroup
		flowRes models.InstitutionalFlow
		flowErr error
		volRes  models.VolumeAnalysis
		volErr  error
		pqRes   models.PriceQuality
		pqErr   error
		depRes  models.DepthAnalysis
		depErr  error
		botRes  map[string]models.Detection
	)

	wg.Add(5)
	go func() { defer wg.Done(); flowRes, flowErr = a.flow.Analyze(primary, trades) }()
	go func() { defer wg.Done(); volRes, volErr = a.volume.Score(primary) }()
	go func() { defer wg.Done(); pqRes, pqErr = a.price.Score(primary) }()
	go func() { defer wg.Done(); depRes, depErr = a.depth.Score(book, trades) }()
	go func() {
		defer wg.Done()
		botRes = a.bots.Classify(models.Window{Candles: primary, Trades: trades, Book: book})
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &models.DetectionResult{
		Symbol:      symbol,
		Timestamp:   lastCloseTime(primary),
		BotActivity: botRes,
	}

	// Assemble sub-scores in fixed order; omissions trigger renormalization.
	maxBotSeverity := 0.0
	for _, d := range botRes {
		if d.Detected && d.Confidence > maxBotSeverity {
			maxBotSeverity = d.Confidence
		}
	}

	subs := make([]models.SubScore, 0, 5)
	add := func(name string, weight, value float64, evidence []string, err error) {
		if err != nil {
			if !errors.Is(err, scoring.ErrInsufficientData) {
				evidence = append(evidence, fmt.Sprintf("%s scorer failed: %v", name, err))
			}
			res.Omitted = append(res.Omitted, name)
			return
		}
		subs = append(subs, models.SubScore{Name: name, Value: stats.Clamp100(value), Weight: weight, Evidence: evidence})
	}
	add(scoreInstitutional, a.cfg.Weights.Institutional, flowRes.Score, flowRes.Evidence, flowErr)
	add(scoreVolume, a.cfg.Weights.Volume, volRes.Score, volRes.Evidence, volErr)
	add(scorePrice, a.cfg.Weights.Price, pqRes.Score, pqRes.Evidence, pqErr)
	add(scoreDepth, a.cfg.Weights.Depth, 100-depRes.ManipulationScore, depRes.Evidence, depErr)
	// Bot contribution is inverse: the more severe the detected pattern, the
	// less it contributes.
	add(scoreBot, a.cfg.Weights.Bot, 100-maxBotSeverity, nil, nil)

	renormalize(subs)
	res.SubScores = subs

	composite := 0.0
	for _, s := range subs {
		composite += s.Value * s.Weight
	}
	res.Confidence = stats.Clamp100(composite)

	if flowErr == nil {
		res.InstitutionalFlow = &flowRes
	}
	if volErr == nil {
		res.VolumeAnalysis = &volRes
	}
	if pqErr == nil {
		res.PriceQuality = &pqRes
	}
	if depErr == nil {
		res.DepthAnalysis = &depRes
	}

	res.Direction = a.direction(primary, res)
	res.Signal = a.classify(res, market)
	res.RiskLevel = a.riskLevel(primary, res)
	res.Recommendation = a.recommend(res)

	return res, nil
}

// primaryCandles picks the medium-horizon series, falling back to the longest
// supplied series so a partial input map still evaluates.
func (a *SignalAggregator) primaryCandles(byTF map[domrepo.Timeframe][]models.CandleBar) []models.CandleBar {
	if cs, ok := byTF[domrepo.Timeframe(a.cfg.Pipeline.MediumTF)]; ok && len(cs) > 0 {
		return cs
	}
	var best []models.CandleBar
	for _, tf := range []domrepo.Timeframe{domrepo.TF5m, domrepo.TF1m, domrepo.TF15m, domrepo.TF1h, domrepo.TF4h} {
		if cs := byTF[tf]; len(cs) > len(best) {
			best = cs
		}
	}
	return best
}

// renormalize rescales the remaining weights to sum to 1.0 after omissions.
func renormalize(subs []models.SubScore) {
	var sum float64
	for _, s := range subs {
		sum += s.Weight
	}
	if sum == 0 {
		return
	}
	for i := range subs {
		subs[i].Weight /= sum
	}
}

// direction derives up/down/sideways probabilities from institutional flow,
// price-action bias and window momentum, normalized to sum to exactly 100.
func (a *SignalAggregator) direction(candles []models.CandleBar, res *models.DetectionResult) models.DirectionProbability {
	up, down, side := 1.0, 1.0, 1.0

	if f := res.InstitutionalFlow; f != nil {
		switch f.SmartMoneyFlow {
		case models.FlowInflow:
			up += 1.5
		case models.FlowOutflow:
			down += 1.5
		default:
			side += 0.5
		}
		switch f.ActivityType {
		case models.ActivityAccumulation:
			up += 1.0
		case models.ActivityDistribution:
			down += 1.0
		}
	}
	if pq := res.PriceQuality; pq != nil {
		if pq.BreakoutUp {
			up += 1.0
		}
		if pq.Score >= 70 {
			// clean tape favors the prevailing direction over chop
			side -= 0.5
			if side < 0.25 {
				side = 0.25
			}
		}
	}
	momentum := stats.PercentChange(candles)
	switch {
	case momentum > 1:
		up += math.Min(2, momentum/4)
	case momentum < -1:
		down += math.Min(2, -momentum/4)
	default:
		side += 0.75
	}

	total := up + down + side
	upPct := math.Round(up / total * 100)
	downPct := math.Round(down / total * 100)
	return models.DirectionProbability{
		Up:       upPct,
		Down:     downPct,
		Sideways: 100 - upPct - downPct,
	}
}

// classify applies the priority-ordered signal rules. The AVOID override wins
// over everything: a severe wash-trading or dump-bot detection disqualifies
// the symbol no matter how strong the other sub-scores are.
func (a *SignalAggregator) classify(res *models.DetectionResult, market *models.MarketData) models.Signal {
	t := a.cfg.Signals

	for _, name := range []string{models.BotWashTrading, models.BotDumpBot} {
		if d, ok := res.BotActivity[name]; ok && d.Detected && d.Confidence >= a.cfg.Bots.SeverityFloor {
			return models.SignalAvoid
		}
	}

	volumeLegit := res.VolumeAnalysis != nil && res.VolumeAnalysis.IsLegitimate
	oversold := market != nil && market.Oversold
	overbought := market != nil && market.Overbought
	distribution := res.InstitutionalFlow != nil && res.InstitutionalFlow.ActivityType == models.ActivityDistribution

	switch {
	case res.Confidence >= t.GoldenComposite && res.Direction.Up >= t.GoldenUpProb &&
		volumeLegit && res.BotDetections() == 0 && oversold:
		return models.SignalGoldenOpportunity
	case res.Confidence >= t.StrongComposite && res.Direction.Up > t.StrongProb:
		return models.SignalStrongPump
	case res.Confidence >= t.BaseComposite && res.Direction.Up > t.BaseProb:
		return models.SignalPump
	case distribution && overbought && res.Direction.Down > t.StrongProb && res.Confidence >= t.StrongComposite:
		return models.SignalExitWarning
	case res.Confidence >= t.StrongComposite && res.Direction.Down > t.StrongProb:
		return models.SignalStrongDump
	case res.Confidence >= t.BaseComposite && res.Direction.Down > t.BaseProb:
		return models.SignalDump
	default:
		return models.SignalNeutral
	}
}

// riskLevel grades risk: EXTREME when a severe bot pattern shows up without
// institutional backing, otherwise a monotonic map of composite confidence
// and window volatility.
func (a *SignalAggregator) riskLevel(candles []models.CandleBar, res *models.DetectionResult) models.RiskLevel {
	severeBot := false
	for _, d := range res.BotActivity {
		if d.Detected && d.Confidence >= a.cfg.Bots.SeverityFloor {
			severeBot = true
			break
		}
	}
	backed := res.InstitutionalFlow != nil && res.InstitutionalFlow.IsInstitutional
	if severeBot && !backed {
		return models.RiskExtreme
	}

	vol := stats.Std(stats.BarMoves(candles))
	switch {
	case res.Confidence >= 75 && vol < 2:
		return models.RiskLow
	case res.Confidence >= 60 && vol < 4:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

// recommend maps signal and risk into an action plus position-size band.
func (a *SignalAggregator) recommend(res *models.DetectionResult) models.Recommendation {
	var rec models.Recommendation
	switch res.Signal {
	case models.SignalGoldenOpportunity, models.SignalStrongPump, models.SignalPump:
		rec.Action = models.ActionBuy
		rec.Reason = "composite confidence and upside probability above entry thresholds"
	case models.SignalExitWarning, models.SignalStrongDump, models.SignalDump:
		rec.Action = models.ActionSell
		rec.Reason = "distribution or downside pressure dominates"
	case models.SignalAvoid:
		rec.Action = models.ActionAvoid
		rec.Reason = "severe synthetic activity detected"
	default:
		rec.Action = models.ActionHold
		rec.Reason = "no actionable edge"
	}

	switch res.RiskLevel {
	case models.RiskLow:
		rec.PositionMinPct, rec.PositionMaxPct = 2, 3
	case models.RiskMedium:
		rec.PositionMinPct, rec.PositionMaxPct = 1, 2
	case models.RiskHigh:
		rec.PositionMinPct, rec.PositionMaxPct = 0.5, 1
	default: // EXTREME
		rec.PositionMinPct, rec.PositionMaxPct = 0, 0
	}
	return rec
}

func lastCloseTime(candles []models.CandleBar) time.Time {
	if len(candles) == 0 {
		return time.Time{}
	}
	return candles[len(candles)-1].CloseTime
}
