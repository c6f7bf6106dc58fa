// Package botwatch holds the bot-behavior pattern detectors. Each detector is
// pure and independent; the classifier iterates a fixed registry so new
// patterns plug in without touching aggregation logic.
package botwatch

import (
	"FlowSentry/internal/domain/models"
	domsvc "FlowSentry/internal/domain/service"
	"FlowSentry/pkg/config"
)

// Classifier runs every registered detector over the same window.
type Classifier struct {
	detectors []domsvc.BotDetector
}

// NewClassifier builds the default five-detector set.
func NewClassifier(cfg config.EngineConfig) *Classifier {
	return &Classifier{
		detectors: []domsvc.BotDetector{
			NewWashTradeDetector(cfg),
			NewSpoofingDetector(cfg),
			NewIcebergDetector(cfg),
			NewMarketMakerDetector(cfg),
			NewDumpBotDetector(cfg),
		},
	}
}

// Classify runs all detectors and keys results by detector name. Detectors are
// order-independent; a detector that cannot evaluate its window reports
// not-detected rather than failing the classification.
func (c *Classifier) Classify(w models.Window) map[string]models.Detection {
	out := make(map[string]models.Detection, len(c.detectors))
	for _, d := range c.detectors {
		out[d.Name()] = d.Detect(w)
	}
	return out
}

var _ domsvc.BotClassifier = (*Classifier)(nil)
