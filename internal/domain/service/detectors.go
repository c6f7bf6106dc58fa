package service

import (
	"FlowSentry/internal/domain/models"
)

// FlowAnalyzer classifies block trades and Wyckoff-style accumulation or
// distribution from the trade tape and candle window.
type FlowAnalyzer interface {
	Analyze(candles []models.CandleBar, trades []models.Trade) (models.InstitutionalFlow, error)
}

// VolumeScorer rates whether observed volume looks organic.
type VolumeScorer interface {
	Score(candles []models.CandleBar) (models.VolumeAnalysis, error)
}

// PriceActionScorer rates the cleanliness of price movement against
// support/resistance.
type PriceActionScorer interface {
	Score(candles []models.CandleBar) (models.PriceQuality, error)
}

// DepthScorer detects fake walls, layering and imbalance in the order book.
type DepthScorer interface {
	Score(book *models.OrderBookSnapshot, trades []models.Trade) (models.DepthAnalysis, error)
}

// BotDetector is one independent bot-pattern detector. Detectors are pure and
// order-independent over the same window.
type BotDetector interface {
	Name() string
	Detect(w models.Window) models.Detection
}

// BotClassifier runs the fixed detector set and merges their outputs.
type BotClassifier interface {
	Classify(w models.Window) map[string]models.Detection
}
