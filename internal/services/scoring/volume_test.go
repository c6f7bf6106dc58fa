package scoring

import (
	"errors"
	"testing"
	"time"

	"FlowSentry/internal/domain/models"
	"FlowSentry/pkg/config"
)

// organicCandles alternates green and red bars around a stable price with
// naturally dispersed volume.
func organicCandles(n int) []models.CandleBar {
	out := make([]models.CandleBar, n)
	for i := range out {
		c := models.CandleBar{High: 100.6, Low: 99.4, OpenTime: t0.Add(time.Duration(i) * time.Minute)}
		if i%2 == 0 {
			c.Open, c.Close, c.Volume = 99.5, 100.5, 50
		} else {
			c.Open, c.Close, c.Volume = 100.5, 99.5, 150
		}
		out[i] = c
	}
	return out
}

// syntheticCandles is a uniform one-way ramp: every bar green, every volume
// identical, price running away from VWAP.
func syntheticCandles(n int) []models.CandleBar {
	out := make([]models.CandleBar, n)
	for i := range out {
		base := 100 + float64(i)
		out[i] = models.CandleBar{
			Open: base, High: base + 1.1, Low: base - 0.1, Close: base + 1, Volume: 100,
			OpenTime: t0.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestVolumeLegitimacyOrganic(t *testing.T) {
	s := NewVolumeLegitimacyScorer(config.DefaultEngine())

	va, err := s.Score(organicCandles(30))
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !va.IsLegitimate {
		t.Fatalf("organic window not legitimate: %+v", va)
	}
	if va.Quality != QualityExcellent {
		t.Fatalf("quality = %q (score %.1f), want EXCELLENT", va.Quality, va.Score)
	}
	if va.BalanceScore != 100 {
		t.Fatalf("balance = %v for a 50/50 green/red mix, want 100", va.BalanceScore)
	}
}

func TestVolumeLegitimacySynthetic(t *testing.T) {
	s := NewVolumeLegitimacyScorer(config.DefaultEngine())

	va, err := s.Score(syntheticCandles(25))
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if va.IsLegitimate {
		t.Fatalf("uniform one-way ramp scored legitimate: %+v", va)
	}
	if va.Quality != QualityPoor {
		t.Fatalf("quality = %q (score %.1f), want POOR", va.Quality, va.Score)
	}
	if va.ClusterScore != 0 {
		t.Fatalf("cluster = %v for zero volume dispersion, want 0", va.ClusterScore)
	}
}

func TestVolumeLegitimacyInsufficientData(t *testing.T) {
	s := NewVolumeLegitimacyScorer(config.DefaultEngine())

	if _, err := s.Score(organicCandles(10)); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestVolumeQualityTierBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{85, QualityExcellent},
		{80, QualityExcellent},
		{70, QualityGood},
		{65, QualityGood},
		{55, QualityFair},
		{50, QualityFair},
		{49, QualityPoor},
		{0, QualityPoor},
	}
	for _, tc := range cases {
		got := qualityTier(tc.score)
		if got != tc.want {
			t.Fatalf("tier(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
