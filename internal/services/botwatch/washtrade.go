package botwatch

import (
	"fmt"
	"math"

	"FlowSentry/internal/domain/models"
	"FlowSentry/internal/services/stats"
	"FlowSentry/pkg/config"
)

// WashTradeDetector flags volume far above the trailing average while price
// barely moves: churn without genuine ownership change.
type WashTradeDetector struct {
	cfg config.EngineConfig
}

func NewWashTradeDetector(cfg config.EngineConfig) *WashTradeDetector {
	return &WashTradeDetector{cfg: cfg}
}

func (d *WashTradeDetector) Name() string { return models.BotWashTrading }

func (d *WashTradeDetector) Detect(w models.Window) models.Detection {
	candles := w.Candles
	if len(candles) < 5 {
		return models.Detection{}
	}
	last := candles[len(candles)-1]
	trailing := stats.Mean(stats.Volumes(candles[:len(candles)-1]))
	volumeRatio := stats.Ratio(last.Volume, trailing)

	prev := candles[len(candles)-2].Close
	priceChange := 0.0
	if prev != 0 {
		priceChange = math.Abs((last.Close - prev) / prev * 100)
	}

	if volumeRatio <= d.cfg.Bots.WashVolumeRatio || priceChange >= d.cfg.Bots.WashMaxPriceMove {
		return models.Detection{}
	}
	confidence := math.Min(100, 50+(d.cfg.Bots.WashVolumeRatio-priceChange)*20)
	return models.Detection{
		Detected:   true,
		Confidence: confidence,
		Evidence: []string{
			fmt.Sprintf("volume %.1fx trailing average with only %.2f%% price move", volumeRatio, priceChange),
		},
	}
}
