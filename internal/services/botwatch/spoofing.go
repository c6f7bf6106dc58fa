package botwatch

import (
	"fmt"
	"math"

	"FlowSentry/internal/domain/models"
	"FlowSentry/internal/services/stats"
	"FlowSentry/pkg/config"
)

// SpoofingDetector flags resting depth far in excess of what actually trades:
// orders placed to be seen, not filled.
type SpoofingDetector struct {
	cfg config.EngineConfig
}

func NewSpoofingDetector(cfg config.EngineConfig) *SpoofingDetector {
	return &SpoofingDetector{cfg: cfg}
}

func (d *SpoofingDetector) Name() string { return models.BotSpoofing }

func (d *SpoofingDetector) Detect(w models.Window) models.Detection {
	if w.Book == nil || len(w.Trades) == 0 {
		return models.Detection{}
	}
	depth := w.Book.BidVolume() + w.Book.AskVolume()
	var traded float64
	for _, t := range w.Trades {
		traded += t.Quantity
	}
	ratio := stats.Ratio(depth, traded)
	if ratio <= d.cfg.Bots.SpoofDepthRatio {
		return models.Detection{}
	}
	confidence := math.Min(100, 40+ratio*5)
	return models.Detection{
		Detected:   true,
		Confidence: confidence,
		Evidence: []string{
			fmt.Sprintf("resting depth %.1fx recent traded volume", ratio),
		},
	}
}
