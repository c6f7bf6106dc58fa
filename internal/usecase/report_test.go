package usecase

import (
	"strings"
	"testing"

	"FlowSentry/internal/domain/models"
)

func sampleResult() *models.DetectionResult {
	return &models.DetectionResult{
		Symbol:     "BTCUSDT",
		Signal:     models.SignalStrongPump,
		Confidence: 78.4,
		RiskLevel:  models.RiskMedium,
		Direction:  models.DirectionProbability{Up: 72, Down: 15, Sideways: 13},
		SubScores: []models.SubScore{
			{Name: "institutional", Value: 70, Weight: 0.35},
			{Name: "volume", Value: 82, Weight: 0.25},
		},
		InstitutionalFlow: &models.InstitutionalFlow{
			IsInstitutional: true,
			ActivityType:    models.ActivityAccumulation,
			SmartMoneyFlow:  models.FlowInflow,
			BlockTradeRatio: 0.42,
		},
		VolumeAnalysis: &models.VolumeAnalysis{
			Quality: "GOOD", IsLegitimate: true,
			VWAPScore: 88, BalanceScore: 100, ClusterScore: 60,
		},
		BotActivity: map[string]models.Detection{
			models.BotWashTrading: {Detected: true, Confidence: 86, Evidence: []string{"volume 2.5x with 0.2% move"}},
			models.BotIceberg:     {Detected: true, Confidence: 75},
			models.BotSpoofing:    {},
		},
		Recommendation: models.Recommendation{
			Action: models.ActionBuy, PositionMinPct: 1, PositionMaxPct: 2,
			Reason: "composite confidence and upside probability above entry thresholds",
		},
	}
}

func TestFormatReportContent(t *testing.T) {
	out := FormatReport(sampleResult())

	for _, want := range []string{
		"=== BTCUSDT Detection Report ===",
		"Signal: STRONG_PUMP",
		"Confidence: 78.4/100",
		"Risk: MEDIUM",
		"institutional participation confirmed",
		"quality GOOD (LEGITIMATE)",
		"WARNING: iceberg detected (confidence 75)",
		"WARNING: wash_trading detected (confidence 86)",
		"BUY, position 1.0-2.0%",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}

	// Undetected patterns never surface as warnings.
	if strings.Contains(out, "spoofing") {
		t.Fatalf("undetected spoofing mentioned:\n%s", out)
	}
}

func TestFormatReportStableOrdering(t *testing.T) {
	a := FormatReport(sampleResult())
	b := FormatReport(sampleResult())
	if a != b {
		t.Fatalf("identical results rendered differently:\n%s\n---\n%s", a, b)
	}

	// Bot warnings are sorted by name: iceberg before wash_trading.
	iceberg := strings.Index(a, "iceberg detected")
	wash := strings.Index(a, "wash_trading detected")
	if iceberg < 0 || wash < 0 || iceberg > wash {
		t.Fatalf("bot warnings out of order:\n%s", a)
	}
}

func TestFormatReportStaleAndEmpty(t *testing.T) {
	if FormatReport(nil) != "" {
		t.Fatalf("nil result should render empty")
	}

	res := sampleResult()
	res.Stale = true
	if !strings.Contains(FormatReport(res), "result is stale") {
		t.Fatalf("stale note missing")
	}

	res.Recommendation = models.Recommendation{Action: models.ActionAvoid}
	if !strings.Contains(FormatReport(res), "AVOID, no position") {
		t.Fatalf("zero position band not rendered as no position")
	}
}
