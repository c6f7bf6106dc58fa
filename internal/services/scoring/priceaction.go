package scoring

import (
	"fmt"

	"FlowSentry/internal/domain/models"
	domsvc "FlowSentry/internal/domain/service"
	"FlowSentry/internal/services/stats"
	"FlowSentry/pkg/config"
)

// PriceActionQualityScorer rates the cleanliness of price movement: respect of
// prior support/resistance, breakout follow-through, and absence of extreme
// single-bar spikes.
type PriceActionQualityScorer struct {
	cfg config.EngineConfig
}

func NewPriceActionQualityScorer(cfg config.EngineConfig) *PriceActionQualityScorer {
	return &PriceActionQualityScorer{cfg: cfg}
}

func (s *PriceActionQualityScorer) Score(candles []models.CandleBar) (models.PriceQuality, error) {
	var out models.PriceQuality

	candles, dropped := CleanCandles(candles)
	if dropped > 0 {
		out.Evidence = append(out.Evidence, fmt.Sprintf("dropped %d malformed candles", dropped))
	}
	if len(candles) < s.cfg.MinCandles {
		out.Evidence = append(out.Evidence, fmt.Sprintf("candle count %d below minimum %d", len(candles), s.cfg.MinCandles))
		return out, ErrInsufficientData
	}

	// Prior levels come from the first two thirds of the window; the last
	// third is what gets judged against them.
	split := len(candles) * 2 / 3
	resistance := maxHigh(candles[:split])
	support := minLow(candles[:split])
	recent := candles[split:]

	out.LevelRespect = s.levelRespect(recent, support, resistance, &out)
	out.BreakoutClean = s.breakoutCleanliness(recent, resistance, &out)
	out.Smoothness = s.smoothness(candles, &out)

	out.Score = stats.Clamp100((out.LevelRespect + out.BreakoutClean + out.Smoothness) / 3)
	return out, nil
}

// levelRespect rewards wicks that reject a level and penalizes closes that
// pierce it without follow-through.
func (s *PriceActionQualityScorer) levelRespect(recent []models.CandleBar, support, resistance float64, out *models.PriceQuality) float64 {
	respects, pierces := 0, 0
	for i, c := range recent {
		// Wick through resistance, close back under: rejection.
		if c.High > resistance && c.Close <= resistance {
			respects++
			continue
		}
		// Wick through support, close back above: rejection.
		if c.Low < support && c.Close >= support {
			respects++
			continue
		}
		// Close beyond a level without follow-through on the next bar.
		if c.Close > resistance && i+1 < len(recent) && recent[i+1].Close < resistance {
			pierces++
		}
		if c.Close < support && i+1 < len(recent) && recent[i+1].Close > support {
			pierces++
		}
	}
	if respects+pierces == 0 {
		return 70 // no level interaction: mildly positive, nothing sloppy seen
	}
	score := 100 * float64(respects) / float64(respects+pierces)
	out.Evidence = append(out.Evidence, fmt.Sprintf("level interactions: %d rejections, %d failed pierces", respects, pierces))
	return score
}

// breakoutCleanliness scores the follow-through/reversal ratio after the first
// close above prior resistance. No breakout scores a flat 50.
func (s *PriceActionQualityScorer) breakoutCleanliness(recent []models.CandleBar, resistance float64, out *models.PriceQuality) float64 {
	breakoutIdx := -1
	for i, c := range recent {
		if c.Close > resistance {
			breakoutIdx = i
			break
		}
	}
	if breakoutIdx < 0 || breakoutIdx == len(recent)-1 {
		return 50
	}
	follow, reverse := 0, 0
	for _, c := range recent[breakoutIdx+1:] {
		if c.Close > resistance && c.IsGreen() {
			follow++
		} else if c.Close < resistance {
			reverse++
		}
	}
	if follow+reverse == 0 {
		return 50
	}
	out.BreakoutUp = follow > reverse
	score := 100 * float64(follow) / float64(follow+reverse)
	out.Evidence = append(out.Evidence, fmt.Sprintf("breakout above %.4f: %d follow-through, %d reversal bars", resistance, follow, reverse))
	return score
}

// smoothness penalizes bars whose move exceeds the configured sigma multiple
// of the window's bar-to-bar moves.
func (s *PriceActionQualityScorer) smoothness(candles []models.CandleBar, out *models.PriceQuality) float64 {
	moves := stats.BarMoves(candles)
	if len(moves) == 0 {
		return 50
	}
	mean := stats.Mean(moves)
	sigma := stats.Std(moves)
	if sigma == 0 {
		return 100
	}
	limit := mean + s.cfg.Price.SpikeSigma*sigma
	spikes := 0
	for _, m := range moves {
		if m > limit {
			spikes++
		}
	}
	out.ExtremeSpikes = spikes
	if spikes > 0 {
		out.Evidence = append(out.Evidence, fmt.Sprintf("%d extreme spikes beyond %.1f sigma", spikes, s.cfg.Price.SpikeSigma))
	}
	return stats.Clamp100(100 - 25*float64(spikes))
}

func maxHigh(candles []models.CandleBar) float64 {
	m := 0.0
	for _, c := range candles {
		if c.High > m {
			m = c.High
		}
	}
	return m
}

func minLow(candles []models.CandleBar) float64 {
	if len(candles) == 0 {
		return 0
	}
	m := candles[0].Low
	for _, c := range candles[1:] {
		if c.Low < m {
			m = c.Low
		}
	}
	return m
}

var _ domsvc.PriceActionScorer = (*PriceActionQualityScorer)(nil)
