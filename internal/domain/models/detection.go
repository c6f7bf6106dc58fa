package models

import "time"

// Signal is the graded judgement emitted per evaluation.
type Signal string

const (
	SignalGoldenOpportunity Signal = "GOLDEN_OPPORTUNITY"
	SignalStrongPump        Signal = "STRONG_PUMP"
	SignalPump              Signal = "PUMP"
	SignalNeutral           Signal = "NEUTRAL"
	SignalDump              Signal = "DUMP"
	SignalStrongDump        Signal = "STRONG_DUMP"
	SignalExitWarning       Signal = "EXIT_WARNING"
	SignalAvoid             Signal = "AVOID"
)

// RiskLevel grades the evaluation's risk.
type RiskLevel string

const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskExtreme RiskLevel = "EXTREME"
)

// ActivityType classifies institutional behavior.
type ActivityType string

const (
	ActivityAccumulation ActivityType = "ACCUMULATION"
	ActivityDistribution ActivityType = "DISTRIBUTION"
	ActivityNone         ActivityType = "NONE"
)

// FlowDirection is the sign of net block-trade volume.
type FlowDirection string

const (
	FlowInflow  FlowDirection = "INFLOW"
	FlowOutflow FlowDirection = "OUTFLOW"
	FlowNeutral FlowDirection = "NEUTRAL"
)

// Action is the recommended course for the downstream consumer.
type Action string

const (
	ActionBuy   Action = "BUY"
	ActionSell  Action = "SELL"
	ActionHold  Action = "HOLD"
	ActionAvoid Action = "AVOID"
)

// Bot detector names, used as keys of DetectionResult.BotActivity.
const (
	BotWashTrading = "wash_trading"
	BotSpoofing    = "spoofing"
	BotIceberg     = "iceberg"
	BotMarketMaker = "market_maker"
	BotDumpBot     = "dump_bot"
)

// SubScore is one scorer's contribution before aggregation.
type SubScore struct {
	Name     string   `json:"name"`
	Value    float64  `json:"value"`  // [0,100]
	Weight   float64  `json:"weight"` // [0,1], renormalized when peers are omitted
	Evidence []string `json:"evidence,omitempty"`
}

// Detection is the outcome of one bot-pattern detector.
type Detection struct {
	Detected   bool     `json:"detected"`
	Confidence float64  `json:"confidence"` // [0,100]
	Evidence   []string `json:"evidence,omitempty"`
}

// InstitutionalFlow reports block-trade and Wyckoff analysis.
type InstitutionalFlow struct {
	IsInstitutional bool          `json:"is_institutional"`
	ActivityType    ActivityType  `json:"activity_type"`
	SmartMoneyFlow  FlowDirection `json:"smart_money_flow"`
	BlockTradeRatio float64       `json:"block_trade_ratio"`
	Score           float64       `json:"score"` // [0,100]
	Evidence        []string      `json:"evidence,omitempty"`
}

// VolumeAnalysis reports how organic the observed volume looks.
type VolumeAnalysis struct {
	Score        float64  `json:"score"` // [0,100]
	VWAPScore    float64  `json:"vwap_score"`
	BalanceScore float64  `json:"balance_score"`
	ClusterScore float64  `json:"cluster_score"`
	Quality      string   `json:"quality"` // EXCELLENT, GOOD, FAIR, POOR
	IsLegitimate bool     `json:"is_legitimate"`
	Evidence     []string `json:"evidence,omitempty"`
}

// PriceQuality reports the cleanliness of price movement.
type PriceQuality struct {
	Score           float64  `json:"score"` // [0,100]
	LevelRespect    float64  `json:"level_respect"`
	BreakoutClean   float64  `json:"breakout_clean"`
	Smoothness      float64  `json:"smoothness"`
	ExtremeSpikes   int      `json:"extreme_spikes"`
	BreakoutUp      bool     `json:"breakout_up"`
	Evidence        []string `json:"evidence,omitempty"`
}

// DepthAnalysis reports order-book manipulation findings.
// Score is inverted for aggregation: higher ManipulationScore means a lower
// depth sub-score in the composite.
type DepthAnalysis struct {
	ManipulationScore float64  `json:"manipulation_score"` // [0,100], higher = worse
	FakeWalls         bool     `json:"fake_walls"`
	Layering          bool     `json:"layering"`
	Imbalance         float64  `json:"imbalance"` // [0,1]
	ImbalanceAbnormal bool     `json:"imbalance_abnormal"`
	Evidence          []string `json:"evidence,omitempty"`
}

// DirectionProbability sums to 100 across components (within rounding epsilon).
type DirectionProbability struct {
	Up       float64 `json:"up"`
	Down     float64 `json:"down"`
	Sideways float64 `json:"sideways"`
}

// Recommendation carries the action and a position-size band keyed by risk.
type Recommendation struct {
	Action         Action  `json:"action"`
	PositionMinPct float64 `json:"position_min_pct"`
	PositionMaxPct float64 `json:"position_max_pct"`
	Reason         string  `json:"reason,omitempty"`
}

// DetectionResult is the engine's complete judgement for one evaluation.
// It is created fresh per AnalyzeComprehensive call and never mutated after.
type DetectionResult struct {
	Symbol            string               `json:"symbol"`
	Timestamp         time.Time            `json:"timestamp"`
	Signal            Signal               `json:"signal"`
	Confidence        float64              `json:"confidence"` // [0,100]
	Direction         DirectionProbability `json:"direction_probability"`
	RiskLevel         RiskLevel            `json:"risk_level"`
	BotActivity       map[string]Detection `json:"bot_activity"`
	VolumeAnalysis    *VolumeAnalysis      `json:"volume_analysis,omitempty"`
	DepthAnalysis     *DepthAnalysis       `json:"depth_analysis,omitempty"`
	PriceQuality      *PriceQuality        `json:"price_quality,omitempty"`
	InstitutionalFlow *InstitutionalFlow   `json:"institutional_flow,omitempty"`
	SubScores         []SubScore           `json:"sub_scores"`
	Recommendation    Recommendation       `json:"recommendation"`
	Omitted           []string             `json:"omitted,omitempty"` // scorers skipped for insufficient data
	Stale             bool                 `json:"stale,omitempty"`   // set when a newer evaluation was abandoned
}

// BotDetections counts detectors that fired.
func (r *DetectionResult) BotDetections() int {
	n := 0
	for _, d := range r.BotActivity {
		if d.Detected {
			n++
		}
	}
	return n
}
