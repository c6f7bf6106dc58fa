package botwatch

import (
	"fmt"

	"FlowSentry/internal/domain/models"
	"FlowSentry/internal/services/stats"
	"FlowSentry/pkg/config"
)

// icebergConfidence is fixed: the pattern is binary, either the child-order
// signature is there or it is not.
const icebergConfidence = 75

// IcebergDetector flags a large order sliced into evenly sized, evenly timed
// child trades.
type IcebergDetector struct {
	cfg config.EngineConfig
}

func NewIcebergDetector(cfg config.EngineConfig) *IcebergDetector {
	return &IcebergDetector{cfg: cfg}
}

func (d *IcebergDetector) Name() string { return models.BotIceberg }

func (d *IcebergDetector) Detect(w models.Window) models.Detection {
	if len(w.Trades) < 10 {
		return models.Detection{}
	}
	sizeCV := stats.CV(stats.TradeSizes(w.Trades))
	timingCV := stats.CV(stats.InterTradeGaps(w.Trades))
	if sizeCV >= d.cfg.Bots.IcebergSizeCV || timingCV >= d.cfg.Bots.IcebergTimingCV {
		return models.Detection{}
	}
	return models.Detection{
		Detected:   true,
		Confidence: icebergConfidence,
		Evidence: []string{
			fmt.Sprintf("uniform child orders: size cv %.3f, timing cv %.3f", sizeCV, timingCV),
		},
	}
}
