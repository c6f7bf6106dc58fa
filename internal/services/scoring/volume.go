package scoring

import (
	"fmt"
	"math"

	"FlowSentry/internal/domain/models"
	domsvc "FlowSentry/internal/domain/service"
	"FlowSentry/internal/services/stats"
	"FlowSentry/pkg/config"
)

// Volume quality tiers.
const (
	QualityExcellent = "EXCELLENT"
	QualityGood      = "GOOD"
	QualityFair      = "FAIR"
	QualityPoor      = "POOR"
)

// VolumeLegitimacyScorer rates whether observed volume looks organic:
// price tracking VWAP, a balanced green/red candle mix, and natural per-bar
// volume dispersion.
type VolumeLegitimacyScorer struct {
	cfg config.EngineConfig
}

func NewVolumeLegitimacyScorer(cfg config.EngineConfig) *VolumeLegitimacyScorer {
	return &VolumeLegitimacyScorer{cfg: cfg}
}

func (s *VolumeLegitimacyScorer) Score(candles []models.CandleBar) (models.VolumeAnalysis, error) {
	var out models.VolumeAnalysis

	candles, dropped := CleanCandles(candles)
	if dropped > 0 {
		out.Evidence = append(out.Evidence, fmt.Sprintf("dropped %d malformed candles", dropped))
	}
	if len(candles) < s.cfg.MinCandles {
		out.Evidence = append(out.Evidence, fmt.Sprintf("candle count %d below minimum %d", len(candles), s.cfg.MinCandles))
		return out, ErrInsufficientData
	}

	out.VWAPScore = s.vwapScore(candles)
	out.BalanceScore = s.balanceScore(candles)
	out.ClusterScore = s.clusterScore(candles)

	w := s.cfg.Volume
	out.Score = stats.Clamp100(w.VWAPWeight*out.VWAPScore + w.BalanceWeight*out.BalanceScore + w.ClusterWeight*out.ClusterScore)

	out.Quality = qualityTier(out.Score)
	out.IsLegitimate = out.Score >= 50
	if !out.IsLegitimate {
		out.Evidence = append(out.Evidence, "volume profile does not look organic")
	}

	return out, nil
}

func qualityTier(score float64) string {
	switch {
	case score >= 80:
		return QualityExcellent
	case score >= 65:
		return QualityGood
	case score >= 50:
		return QualityFair
	default:
		return QualityPoor
	}
}

// vwapScore is the inverse of normalized |close - VWAP| / VWAP: 100 at zero
// deviation, decaying linearly to 0 at the configured ceiling.
func (s *VolumeLegitimacyScorer) vwapScore(candles []models.CandleBar) float64 {
	vwap := stats.VWAP(candles)
	if vwap == 0 {
		return 0
	}
	close := candles[len(candles)-1].Close
	devPct := math.Abs(close-vwap) / vwap * 100
	ceiling := s.cfg.Volume.DeviationCeilingPct
	if ceiling <= 0 {
		ceiling = 5
	}
	return stats.Clamp100(100 * (1 - devPct/ceiling))
}

// balanceScore peaks at 100 when 40-60% of candles are green and degrades
// linearly outside that band.
func (s *VolumeLegitimacyScorer) balanceScore(candles []models.CandleBar) float64 {
	ratio := stats.GreenRatio(candles)
	switch {
	case ratio >= 0.4 && ratio <= 0.6:
		return 100
	case ratio < 0.4:
		return stats.Clamp100(100 * ratio / 0.4)
	default:
		return stats.Clamp100(100 * (1 - ratio) / 0.4)
	}
}

// clusterScore peaks at 100 when per-candle volume CV sits inside [0.5, 1.0]
// (natural dispersion) and degrades outside: too uniform smells synthetic,
// too erratic smells like burst manipulation.
func (s *VolumeLegitimacyScorer) clusterScore(candles []models.CandleBar) float64 {
	cv := stats.CV(stats.Volumes(candles))
	switch {
	case cv >= 0.5 && cv <= 1.0:
		return 100
	case cv < 0.5:
		return stats.Clamp100(100 * cv / 0.5)
	default:
		// degrade over one CV unit past the band
		return stats.Clamp100(100 * (1 - (cv-1.0)))
	}
}

var _ domsvc.VolumeScorer = (*VolumeLegitimacyScorer)(nil)
