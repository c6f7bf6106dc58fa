package models

import "time"

// LayerScore is one confirmation layer's breakdown.
type LayerScore struct {
	Layer    int      `json:"layer"`
	Score    float64  `json:"score"`
	Notes    []string `json:"notes,omitempty"`
}

// Adjustment records one applied Layer-2 rule for attribution.
type Adjustment struct {
	Rule  string  `json:"rule"`
	Delta float64 `json:"delta"`
	After float64 `json:"after"` // score after this rule and re-clamp
}

// ConfirmationResult merges the three temporal layers for one symbol tick.
type ConfirmationResult struct {
	Symbol      string           `json:"symbol"`
	Timestamp   time.Time        `json:"timestamp"`
	PumpScore   float64          `json:"pump_score"` // final, [0,100]
	Layer1      LayerScore       `json:"layer1"`
	Layer2      LayerScore       `json:"layer2"`
	Layer3      LayerScore       `json:"layer3"`
	Adjustments []Adjustment     `json:"adjustments,omitempty"`
	Alignment   float64          `json:"alignment"` // [0.5,1.0] long-horizon factor
	Detection   *DetectionResult `json:"detection,omitempty"`
	Stale       bool             `json:"stale,omitempty"`
}
