package config

import (
	"fmt"
	"math"
	"time"
)

// EngineConfig holds every tunable weight and threshold of the detection
// engine. It is loaded once, validated, and passed explicitly into the
// aggregator and the confirmation pipeline; nothing mutates it afterwards.
type EngineConfig struct {
	MinCandles int `yaml:"min_candles"`
	MinTrades  int `yaml:"min_trades"`

	Weights struct {
		Institutional float64 `yaml:"institutional"`
		Volume        float64 `yaml:"volume"`
		Price         float64 `yaml:"price"`
		Depth         float64 `yaml:"depth"`
		Bot           float64 `yaml:"bot"`
	} `yaml:"weights"`

	Institutional struct {
		BlockTradeMultiple float64 `yaml:"block_trade_multiple"` // block = size > N x mean
		TrailingBars       int     `yaml:"trailing_bars"`        // Wyckoff sub-window
	} `yaml:"institutional"`

	Volume struct {
		VWAPWeight          float64 `yaml:"vwap_weight"`
		BalanceWeight       float64 `yaml:"balance_weight"`
		ClusterWeight       float64 `yaml:"cluster_weight"`
		DeviationCeilingPct float64 `yaml:"deviation_ceiling_pct"` // |close-VWAP|/VWAP decay ceiling
	} `yaml:"volume"`

	Price struct {
		SpikeSigma float64 `yaml:"spike_sigma"` // bar move beyond N sigma counts as extreme
	} `yaml:"price"`

	Depth struct {
		WallMultiple    float64 `yaml:"wall_multiple"`     // fake wall = size > N x mean level size
		LayeringCV      float64 `yaml:"layering_cv"`       // uniform sizes below this CV
		DepthTradeRatio float64 `yaml:"depth_trade_ratio"` // depth / traded volume considered elevated
		ImbalanceLimit  float64 `yaml:"imbalance_limit"`   // |bid-ask|/(bid+ask) abnormal past this
	} `yaml:"depth"`

	Bots struct {
		WashVolumeRatio   float64 `yaml:"wash_volume_ratio"`
		WashMaxPriceMove  float64 `yaml:"wash_max_price_move"` // percent
		SpoofDepthRatio   float64 `yaml:"spoof_depth_ratio"`
		IcebergSizeCV     float64 `yaml:"iceberg_size_cv"`
		IcebergTimingCV   float64 `yaml:"iceberg_timing_cv"`
		MakerSpreadPct    float64 `yaml:"maker_spread_pct"` // of mid price
		DumpRedBars       int     `yaml:"dump_red_bars"`
		DumpLookback      int     `yaml:"dump_lookback"`
		SeverityFloor     float64 `yaml:"severity_floor"` // AVOID override threshold
	} `yaml:"bots"`

	Signals struct {
		GoldenComposite float64 `yaml:"golden_composite"`
		GoldenUpProb    float64 `yaml:"golden_up_prob"`
		StrongComposite float64 `yaml:"strong_composite"`
		StrongProb      float64 `yaml:"strong_prob"`
		BaseComposite   float64 `yaml:"base_composite"`
		BaseProb        float64 `yaml:"base_prob"`
	} `yaml:"signals"`

	Pipeline struct {
		ShortTF      string        `yaml:"short_tf"`
		MediumTF     string        `yaml:"medium_tf"`
		LongTF       string        `yaml:"long_tf"`
		ShortBars    int           `yaml:"short_bars"`
		MediumBars   int           `yaml:"medium_bars"`
		LongBars     int           `yaml:"long_bars"`
		TradeLimit   int           `yaml:"trade_limit"`
		DepthLimit   int           `yaml:"depth_limit"`
		EvalTimeout  time.Duration `yaml:"eval_timeout"`
		RSIPeriod    int           `yaml:"rsi_period"`
		Oversold     float64       `yaml:"oversold"`
		Overbought   float64       `yaml:"overbought"`
		MinAlignment float64       `yaml:"min_alignment"` // Layer-3 dampening floor
	} `yaml:"pipeline"`
}

// DefaultEngine returns the documented default weights and thresholds.
func DefaultEngine() EngineConfig {
	var e EngineConfig
	e.MinCandles = 20
	e.MinTrades = 30
	e.Weights.Institutional = 0.35
	e.Weights.Volume = 0.25
	e.Weights.Price = 0.20
	e.Weights.Depth = 0.15
	e.Weights.Bot = 0.05
	e.Institutional.BlockTradeMultiple = 10
	e.Institutional.TrailingBars = 10
	e.Volume.VWAPWeight = 0.4
	e.Volume.BalanceWeight = 0.3
	e.Volume.ClusterWeight = 0.3
	e.Volume.DeviationCeilingPct = 5
	e.Price.SpikeSigma = 2
	e.Depth.WallMultiple = 5
	e.Depth.LayeringCV = 0.2
	e.Depth.DepthTradeRatio = 5
	e.Depth.ImbalanceLimit = 0.5
	e.Bots.WashVolumeRatio = 2
	e.Bots.WashMaxPriceMove = 0.5
	e.Bots.SpoofDepthRatio = 5
	e.Bots.IcebergSizeCV = 0.15
	e.Bots.IcebergTimingCV = 0.3
	e.Bots.MakerSpreadPct = 0.05
	e.Bots.DumpRedBars = 14
	e.Bots.DumpLookback = 20
	e.Bots.SeverityFloor = 70
	e.Signals.GoldenComposite = 85
	e.Signals.GoldenUpProb = 75
	e.Signals.StrongComposite = 75
	e.Signals.StrongProb = 70
	e.Signals.BaseComposite = 65
	e.Signals.BaseProb = 60
	e.Pipeline.ShortTF = "1m"
	e.Pipeline.MediumTF = "5m"
	e.Pipeline.LongTF = "1h"
	e.Pipeline.ShortBars = 30
	e.Pipeline.MediumBars = 100
	e.Pipeline.LongBars = 120
	e.Pipeline.TradeLimit = 500
	e.Pipeline.DepthLimit = 50
	e.Pipeline.EvalTimeout = 3 * time.Second
	e.Pipeline.RSIPeriod = 14
	e.Pipeline.Oversold = 30
	e.Pipeline.Overbought = 70
	e.Pipeline.MinAlignment = 0.5
	return e
}

// Validate checks structural invariants of the engine configuration.
func (e *EngineConfig) Validate() error {
	sum := e.Weights.Institutional + e.Weights.Volume + e.Weights.Price + e.Weights.Depth + e.Weights.Bot
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("engine.weights must sum to 1.0, got %.4f", sum)
	}
	vw := e.Volume.VWAPWeight + e.Volume.BalanceWeight + e.Volume.ClusterWeight
	if math.Abs(vw-1.0) > 1e-9 {
		return fmt.Errorf("engine.volume sub-weights must sum to 1.0, got %.4f", vw)
	}
	if e.MinCandles < 3 {
		return fmt.Errorf("engine.min_candles must be >= 3")
	}
	if e.MinTrades < 1 {
		return fmt.Errorf("engine.min_trades must be >= 1")
	}
	if e.Bots.DumpRedBars > e.Bots.DumpLookback {
		return fmt.Errorf("engine.bots.dump_red_bars cannot exceed dump_lookback")
	}
	if e.Pipeline.MinAlignment <= 0 || e.Pipeline.MinAlignment > 1 {
		return fmt.Errorf("engine.pipeline.min_alignment must be in (0,1]")
	}
	if e.Pipeline.EvalTimeout <= 0 {
		return fmt.Errorf("engine.pipeline.eval_timeout must be positive")
	}
	return nil
}
