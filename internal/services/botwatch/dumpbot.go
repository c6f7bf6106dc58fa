package botwatch

import (
	"fmt"

	"FlowSentry/internal/domain/models"
	"FlowSentry/internal/services/stats"
	"FlowSentry/pkg/config"
)

const dumpConfidence = 80

// DumpBotDetector flags programmatic distribution: a long run of red candles
// with fading volume and declining swing highs.
type DumpBotDetector struct {
	cfg config.EngineConfig
}

func NewDumpBotDetector(cfg config.EngineConfig) *DumpBotDetector {
	return &DumpBotDetector{cfg: cfg}
}

func (d *DumpBotDetector) Name() string { return models.BotDumpBot }

func (d *DumpBotDetector) Detect(w models.Window) models.Detection {
	lookback := d.cfg.Bots.DumpLookback
	if len(w.Candles) < lookback {
		return models.Detection{}
	}
	win := w.Candles[len(w.Candles)-lookback:]

	red := 0
	for _, c := range win {
		if c.IsRed() {
			red++
		}
	}
	if red < d.cfg.Bots.DumpRedBars {
		return models.Detection{}
	}

	if !stats.Declining(stats.Volumes(win)) {
		return models.Detection{}
	}

	highs := stats.SwingHighs(win)
	if len(highs) < 2 || !stats.Declining(highs) {
		return models.Detection{}
	}

	return models.Detection{
		Detected:   true,
		Confidence: dumpConfidence,
		Evidence: []string{
			fmt.Sprintf("%d of %d candles red with fading volume and lower swing highs", red, lookback),
		},
	}
}
