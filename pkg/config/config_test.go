package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalYAML = `environment: test
symbols:
  - BTCUSDT
kafka:
  brokers:
    - localhost:9092
  candles_topic: candles.closed
  results_topic: detections.confirmed
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultEngineValid(t *testing.T) {
	e := DefaultEngine()
	if err := e.Validate(); err != nil {
		t.Fatalf("default engine invalid: %v", err)
	}
}

func TestEngineWeightsMustSumToOne(t *testing.T) {
	e := DefaultEngine()
	e.Weights.Institutional = 0.5 // sum becomes 1.15
	err := e.Validate()
	if err == nil || !strings.Contains(err.Error(), "weights must sum to 1.0") {
		t.Fatalf("err = %v, want weight-sum failure", err)
	}
}

func TestEngineVolumeSubWeights(t *testing.T) {
	e := DefaultEngine()
	e.Volume.VWAPWeight = 0.9
	if err := e.Validate(); err == nil {
		t.Fatalf("expected volume sub-weight failure")
	}
}

func TestEngineDumpWindowConsistency(t *testing.T) {
	e := DefaultEngine()
	e.Bots.DumpRedBars = 25 // exceeds the 20-bar lookback
	if err := e.Validate(); err == nil {
		t.Fatalf("expected dump window failure")
	}
}

func TestEngineAlignmentBounds(t *testing.T) {
	e := DefaultEngine()
	for _, bad := range []float64{0, -0.1, 1.5} {
		e.Pipeline.MinAlignment = bad
		if err := e.Validate(); err == nil {
			t.Fatalf("min_alignment %v accepted", bad)
		}
	}
}

func TestLoadSeedsEngineDefaults(t *testing.T) {
	// A config without an engine section gets the full default engine.
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine.Weights.Institutional != 0.35 {
		t.Fatalf("institutional weight = %v, want default 0.35", cfg.Engine.Weights.Institutional)
	}
	if cfg.Engine.Pipeline.MediumTF != "5m" {
		t.Fatalf("medium tf = %q, want default 5m", cfg.Engine.Pipeline.MediumTF)
	}
}

func TestLoadPartialEngineOverride(t *testing.T) {
	body := minimalYAML + `engine:
  min_candles: 30
`
	cfg, err := Load(writeConfig(t, body))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine.MinCandles != 30 {
		t.Fatalf("min_candles = %d, want overridden 30", cfg.Engine.MinCandles)
	}
	// Untouched keys keep their defaults.
	if cfg.Engine.Weights.Volume != 0.25 {
		t.Fatalf("volume weight = %v, want default 0.25", cfg.Engine.Weights.Volume)
	}
}

func TestLoadRejectsMissingSymbols(t *testing.T) {
	body := strings.Replace(minimalYAML, "symbols:\n  - BTCUSDT\n", "", 1)
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected validation failure for missing symbols")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SYMBOLS", "SOLUSDT,XRPUSDT")
	t.Setenv("KAFKA_RESULTS_TOPIC", "detections.v2")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Symbols) != 2 || cfg.Symbols[0] != "SOLUSDT" {
		t.Fatalf("symbols = %v, want env override", cfg.Symbols)
	}
	if cfg.Kafka.ResultsTopic != "detections.v2" {
		t.Fatalf("results topic = %q, want env override", cfg.Kafka.ResultsTopic)
	}
}
