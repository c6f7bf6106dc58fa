package botwatch

import (
	"fmt"

	"FlowSentry/internal/domain/models"
	"FlowSentry/pkg/config"
)

const makerConfidence = 70

// MarketMakerDetector flags an algorithmically tight spread. Market-making is
// benign in itself, but the aggregator wants to know the tape is dominated by
// an algo rather than directional flow.
type MarketMakerDetector struct {
	cfg config.EngineConfig
}

func NewMarketMakerDetector(cfg config.EngineConfig) *MarketMakerDetector {
	return &MarketMakerDetector{cfg: cfg}
}

func (d *MarketMakerDetector) Name() string { return models.BotMarketMaker }

func (d *MarketMakerDetector) Detect(w models.Window) models.Detection {
	book := w.Book
	if book == nil || len(book.Bids) == 0 || len(book.Asks) == 0 {
		return models.Detection{}
	}
	mid := book.MidPrice()
	if mid == 0 {
		return models.Detection{}
	}
	spreadPct := (book.Asks[0].Price - book.Bids[0].Price) / mid * 100
	if spreadPct < 0 || spreadPct >= d.cfg.Bots.MakerSpreadPct {
		return models.Detection{}
	}
	return models.Detection{
		Detected:   true,
		Confidence: makerConfidence,
		Evidence: []string{
			fmt.Sprintf("spread %.4f%% of mid price", spreadPct),
		},
	}
}
