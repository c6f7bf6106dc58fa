package usecase

import (
	"fmt"
	"sort"
	"strings"

	"FlowSentry/internal/domain/models"
)

// FormatReport renders a DetectionResult as a structured text block for the
// alerting and prompt-building consumers. The layout is stable: sections
// always appear in the same order and bot warnings are sorted by name so two
// identical results render identically.
func FormatReport(res *models.DetectionResult) string {
	if res == nil {
		return ""
	}
	var b strings.Builder

	fmt.Fprintf(&b, "=== %s Detection Report ===\n", res.Symbol)
	fmt.Fprintf(&b, "Signal: %s | Confidence: %.1f/100 | Risk: %s\n",
		res.Signal, res.Confidence, res.RiskLevel)
	fmt.Fprintf(&b, "Direction: up %.0f%% / down %.0f%% / sideways %.0f%%\n",
		res.Direction.Up, res.Direction.Down, res.Direction.Sideways)

	b.WriteString("\nSub-Scores:\n")
	for _, s := range res.SubScores {
		fmt.Fprintf(&b, "  %-14s %6.1f  (weight %.2f)\n", s.Name+":", s.Value, s.Weight)
	}
	if len(res.Omitted) > 0 {
		fmt.Fprintf(&b, "  omitted for insufficient data: %s\n", strings.Join(res.Omitted, ", "))
	}

	if f := res.InstitutionalFlow; f != nil {
		b.WriteString("\nInstitutional Flow:\n")
		fmt.Fprintf(&b, "  activity %s, smart money %s, block-trade ratio %.1f%%\n",
			f.ActivityType, f.SmartMoneyFlow, f.BlockTradeRatio*100)
		if f.IsInstitutional {
			b.WriteString("  institutional participation confirmed\n")
		}
	}

	if v := res.VolumeAnalysis; v != nil {
		b.WriteString("\nVolume:\n")
		legit := "SUSPICIOUS"
		if v.IsLegitimate {
			legit = "LEGITIMATE"
		}
		fmt.Fprintf(&b, "  quality %s (%s), vwap %.0f / balance %.0f / cluster %.0f\n",
			v.Quality, legit, v.VWAPScore, v.BalanceScore, v.ClusterScore)
	}

	if d := res.DepthAnalysis; d != nil {
		b.WriteString("\nOrder Book:\n")
		fmt.Fprintf(&b, "  manipulation score %.0f, imbalance %.2f\n", d.ManipulationScore, d.Imbalance)
		if d.FakeWalls {
			b.WriteString("  WARNING: fake walls detected\n")
		}
		if d.Layering {
			b.WriteString("  WARNING: layering detected\n")
		}
	}

	if warns := botWarnings(res.BotActivity); len(warns) > 0 {
		b.WriteString("\nBot Activity:\n")
		for _, w := range warns {
			b.WriteString("  " + w + "\n")
		}
	}

	b.WriteString("\nRecommendation:\n")
	rec := res.Recommendation
	if rec.PositionMaxPct > 0 {
		fmt.Fprintf(&b, "  %s, position %.1f-%.1f%% of portfolio", rec.Action, rec.PositionMinPct, rec.PositionMaxPct)
	} else {
		fmt.Fprintf(&b, "  %s, no position", rec.Action)
	}
	if rec.Reason != "" {
		fmt.Fprintf(&b, " (%s)", rec.Reason)
	}
	b.WriteString("\n")

	if res.Stale {
		b.WriteString("\nNOTE: result is stale; a newer evaluation was abandoned.\n")
	}
	return b.String()
}

func botWarnings(activity map[string]models.Detection) []string {
	names := make([]string, 0, len(activity))
	for name, d := range activity {
		if d.Detected {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		d := activity[name]
		w := fmt.Sprintf("WARNING: %s detected (confidence %.0f)", name, d.Confidence)
		if len(d.Evidence) > 0 {
			w += " - " + d.Evidence[0]
		}
		out = append(out, w)
	}
	return out
}
